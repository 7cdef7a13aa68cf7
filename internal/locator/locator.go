// Package locator resolves a concrete game server for a set of formed
// teams by calling an external matchmaking-backend HTTP endpoint.
package locator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// GameDescriptor is the server a completed match should connect to.
type GameDescriptor struct {
	GameID string `json:"gameId"`
	Host   string `json:"host"`
	Port   uint16 `json:"port"`
}

// Settings is the GameLocator's hot-reloadable configuration. Defaults
// match spec.md §4.5/§6.
type Settings struct {
	BaseURL  string `json:"baseUrl"`
	IDPath   string `json:"idPath"`
	HostPath string `json:"hostPath"`
	PortPath string `json:"portPath"`
}

// DefaultSettings returns the configuration used when no file or env
// override is present.
func DefaultSettings() Settings {
	return Settings{
		IDPath:   "$.gameId",
		HostPath: "$.host",
		PortPath: "$.port",
	}
}

// Locator calls baseUrl with the queue name substituted for "{playlist}"
// and the concrete teams JSON-encoded in the body, then extracts the
// server descriptor from the response per the configured JSON paths.
// Settings are guarded by a reader-writer lock: concurrent lookups may
// proceed together, but a config write excludes all of them.
type Locator struct {
	mu       sync.RWMutex
	settings Settings
	client   *http.Client
}

// New builds a Locator. If client is nil, a default client with a 10s
// timeout is used.
func New(settings Settings, client *http.Client) *Locator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Locator{settings: settings, client: client}
}

// Settings returns a snapshot of the current configuration.
func (l *Locator) Settings() Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings
}

// UpdateSettings atomically replaces the configuration.
func (l *Locator) UpdateSettings(s Settings) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings = s
}

// GameNotFoundError is returned when the locator endpoint responds with a
// non-2xx status.
type GameNotFoundError struct {
	Status int
}

func (e *GameNotFoundError) Error() string {
	return fmt.Sprintf("game not found: upstream status %d", e.Status)
}

// InvalidFieldError is returned when a configured JSON path is missing or
// wrongly typed in the locator's response.
type InvalidFieldError struct {
	Field string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field in locator response: %s", e.Field)
}

// ErrInvalidPort is returned when the extracted port does not fit in a
// uint16.
type ErrInvalidPortType struct{}

func (e *ErrInvalidPortType) Error() string { return "invalid port in locator response" }

var ErrInvalidPort error = &ErrInvalidPortType{}

// Find resolves teams to a server descriptor for queueName. Each team is a
// flat list of player ids; which players belong to the same entry (party)
// is not part of the request.
func (l *Locator) Find(ctx context.Context, queueName string, teams [][]string) (*GameDescriptor, error) {
	settings := l.Settings()

	url := strings.ReplaceAll(settings.BaseURL, "{playlist}", queueName)

	body, err := json.Marshal(map[string]interface{}{"teams": teams})
	if err != nil {
		return nil, fmt.Errorf("locator: encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("locator: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("locator: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GameNotFoundError{Status: resp.StatusCode}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("locator: read response: %w", err)
	}
	payload := buf.String()

	idField := jsonPathField(settings.IDPath)
	hostField := jsonPathField(settings.HostPath)
	portField := jsonPathField(settings.PortPath)

	idResult := gjson.Get(payload, idField)
	if !idResult.Exists() || idResult.Type != gjson.String {
		return nil, &InvalidFieldError{Field: settings.IDPath}
	}

	hostResult := gjson.Get(payload, hostField)
	if !hostResult.Exists() || hostResult.Type != gjson.String {
		return nil, &InvalidFieldError{Field: settings.HostPath}
	}

	portResult := gjson.Get(payload, portField)
	if !portResult.Exists() || portResult.Type != gjson.Number {
		return nil, &InvalidFieldError{Field: settings.PortPath}
	}
	port := portResult.Num
	if port < 0 || port > 65535 || port != float64(int64(port)) {
		return nil, ErrInvalidPort
	}

	return &GameDescriptor{
		GameID: idResult.String(),
		Host:   hostResult.String(),
		Port:   uint16(port),
	}, nil
}

// jsonPathField translates a "$.foo.bar" JSONPath expression into the dot
// path gjson expects.
func jsonPathField(path string) string {
	return strings.TrimPrefix(strings.TrimPrefix(path, "$."), "$")
}
