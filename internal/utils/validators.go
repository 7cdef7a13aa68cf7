// internal/utils/validators.go
// Validation utility functions

package utils

import (
	"fmt"
	"regexp"
)

var queueNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateQueueName validates an operator-supplied queue name.
func ValidateQueueName(name string) error {
	if !queueNamePattern.MatchString(name) {
		return fmt.Errorf("queue name must be 1-64 characters of letters, digits, underscore or hyphen")
	}
	return nil
}

// ValidatePlayerID validates a player identifier supplied on join.
func ValidatePlayerID(id string) error {
	if id == "" {
		return fmt.Errorf("player id must not be empty")
	}
	if len(id) > 128 {
		return fmt.Errorf("player id must not exceed 128 characters")
	}
	return nil
}

// ValidateTeamSize validates a positive, bounded team size setting.
func ValidateTeamSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("team size must be positive")
	}
	if size > 64 {
		return fmt.Errorf("team size must not exceed 64")
	}
	return nil
}
