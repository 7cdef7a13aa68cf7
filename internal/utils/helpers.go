// internal/utils/helpers.go
// General utility functions

package utils

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	return fmt.Sprintf("req_%s", GenerateUUID())
}

// MustMarshalJSON marshals data to JSON or panics
func MustMarshalJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal JSON: %v", err))
	}
	return json.RawMessage(data)
}
