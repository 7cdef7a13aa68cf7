// internal/api/queue_handlers.go
// Queue management endpoints for matchmaking operators

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"matchqueue/internal/matcher"
	"matchqueue/internal/queue"
	"matchqueue/internal/tracker"
	"matchqueue/internal/utils"
)

// createQueueRequest is the operator-supplied shape for creating a queue.
type createQueueRequest struct {
	Name       string          `json:"name"`
	Matchmaker string          `json:"matchmaker"`
	Settings   json.RawMessage `json:"settings"`
}

// HandleCreateQueue registers a new queue.
func HandleCreateQueue(tr *tracker.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createQueueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := utils.ValidateQueueName(req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := tr.CreateQueue(req.Name, req.Matchmaker, req.Settings)
		switch {
		case err == tracker.ErrQueueExists:
			c.JSON(http.StatusConflict, gin.H{"error": "queue already exists"})
		case err == tracker.ErrLocked:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "matchmaking is shutting down"})
		case err == matcher.ErrUnknownType:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown matcher type"})
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusCreated, gin.H{"name": req.Name, "matchmaker": req.Matchmaker})
		}
	}
}

// matchmakerView is the wire shape of a queue's matcher: its type name and
// its current settings.
type matchmakerView struct {
	Type     string          `json:"type"`
	Settings json.RawMessage `json:"settings"`
}

// queueView is the wire shape returned for one queue, per spec.md §6:
// { name, entries, matchmaker:{type,settings} }.
type queueView struct {
	Name       string         `json:"name"`
	Entries    []string       `json:"entries"`
	Matchmaker matchmakerView `json:"matchmaker"`
}

func buildQueueView(name string, q *queue.Queue) (queueView, error) {
	settings, err := q.MatcherSettings()
	if err != nil {
		return queueView{}, err
	}

	entries := q.Entries()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}

	return queueView{
		Name:    name,
		Entries: ids,
		Matchmaker: matchmakerView{
			Type:     q.MatcherType(),
			Settings: json.RawMessage(mustMarshalSettings(settings)),
		},
	}, nil
}

// HandleListQueues returns a bare JSON array of every registered queue,
// per spec.md §6's GET /api/v1/queue contract.
func HandleListQueues(tr *tracker.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		names := tr.ListQueues()
		views := make([]queueView, 0, len(names))
		for _, name := range names {
			q, err := tr.GetQueue(name)
			if err != nil {
				continue
			}
			view, err := buildQueueView(name, q)
			if err != nil {
				continue
			}
			views = append(views, view)
		}
		c.JSON(http.StatusOK, views)
	}
}

// HandleGetQueue returns the detailed state of one queue, including its
// matcher settings and the ids currently waiting.
func HandleGetQueue(tr *tracker.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		q, err := tr.GetQueue(name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "queue not found"})
			return
		}

		view, err := buildQueueView(name, q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read matcher settings"})
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

func mustMarshalSettings(m interface{ MarshalJSON() ([]byte, error) }) []byte {
	data, err := m.MarshalJSON()
	if err != nil {
		return []byte("null")
	}
	return data
}
