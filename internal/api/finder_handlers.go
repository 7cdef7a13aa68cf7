// internal/api/finder_handlers.go
// GameLocator configuration endpoint

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matchqueue/internal/locator"
	"matchqueue/internal/tracker"
)

// finderSettingsRequest is the operator-supplied GameLocator configuration.
type finderSettingsRequest struct {
	BaseURL  string `json:"baseUrl"`
	IDPath   string `json:"idPath"`
	HostPath string `json:"hostPath"`
	PortPath string `json:"portPath"`
}

// HandleUpdateFinder hot-reloads the shared GameLocator configuration
// without restarting the service.
func HandleUpdateFinder(tr *tracker.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req finderSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if req.BaseURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "baseUrl is required"})
			return
		}

		settings := locator.Settings{
			BaseURL:  req.BaseURL,
			IDPath:   orDefault(req.IDPath, "$.gameId"),
			HostPath: orDefault(req.HostPath, "$.host"),
			PortPath: orDefault(req.PortPath, "$.port"),
		}

		tr.UpdateLocatorSettings(settings)
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
