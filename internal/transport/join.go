// Package transport exposes the queue join/leave contract over a
// WebSocket connection: a client sends one JSON frame describing its
// entry, then waits for a single response frame before the connection
// closes.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"matchqueue/internal/matcher"
	"matchqueue/internal/repositories"
	"matchqueue/internal/tracker"
)

const (
	// readWait bounds how long a client has to send its join frame.
	readWait = 10 * time.Second
	// writeWait bounds how long the server waits to flush the response frame.
	writeWait = 10 * time.Second
	// resultWait bounds how long a connection stays open waiting for a match.
	resultWait = 10 * time.Minute
	// maxMessageSize caps the size of the inbound join frame.
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// joinRequest is the first and only frame a client sends.
type joinRequest struct {
	ID       string                 `json:"id"`
	Players  []string               `json:"players"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// joinResponse is the single frame the server sends back before closing.
type joinResponse struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Game   interface{}       `json:"game,omitempty"`
	Teams  [][]matcher.Entry `json:"teams,omitempty"`
}

type gameView struct {
	GameID string `json:"gameId"`
	Host   string `json:"host"`
	Port   uint16 `json:"port"`
}

// HandleJoin upgrades the connection, reads the join request, enqueues it
// on the named queue, and blocks until a result (or a timeout, or the
// client disconnects) before sending the final frame. ratings may be nil,
// in which case no elo fallback lookup is attempted.
func HandleJoin(tr *tracker.Tracker, ratings *repositories.RatingRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		queueName := c.Param("name")

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithError(err).Warn("transport: failed to upgrade join connection")
			return
		}
		defer conn.Close()

		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(readWait))

		var req joinRequest
		if err := conn.ReadJSON(&req); err != nil {
			writeFinal(conn, joinResponse{Status: "error", Error: "malformed join request"})
			return
		}

		if req.ID == "" || len(req.Players) == 0 {
			writeFinal(conn, joinResponse{Status: "error", Error: "id and players are required"})
			return
		}

		entry := matcher.Entry{
			ID:         req.ID,
			Players:    req.Players,
			TimeQueued: time.Now(),
			Metadata:   req.Metadata,
		}

		applyRatingFallback(c.Request.Context(), tr, ratings, queueName, &entry)

		handle, err := tr.Join(queueName, entry)
		if err != nil {
			writeFinal(conn, joinResponse{Status: "error", Error: err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), resultWait)
		defer cancel()

		resultCh := make(chan struct{})
		go watchForClientClose(conn, tr, queueName, req.ID, cancel, resultCh)

		result, err := handle.Wait(ctx)
		close(resultCh)
		if err != nil {
			tr.Leave(queueName, req.ID)
			writeFinal(conn, joinResponse{Status: "error", Error: "timed out waiting for a match"})
			return
		}
		if result.Err != nil {
			writeFinal(conn, joinResponse{Status: "error", Error: result.Err.Error()})
			return
		}

		var game interface{}
		if result.Game != nil {
			game = gameView{GameID: result.Game.GameID, Host: result.Game.Host, Port: result.Game.Port}
		}

		writeFinal(conn, joinResponse{Status: "matched", Game: game, Teams: result.Teams})
	}
}

// applyRatingFallback fills in an "elo" metadata value from the player's
// persisted rating when the target queue is elo-matched and the client
// didn't supply its own rating. It is opportunistic: any lookup failure
// (unknown queue, no persisted rating, ratings repository not wired)
// leaves the entry untouched and lets the matcher's own validation reject
// it if a rating is genuinely required.
func applyRatingFallback(ctx context.Context, tr *tracker.Tracker, ratings *repositories.RatingRepository, queueName string, entry *matcher.Entry) {
	if ratings == nil || len(entry.Players) == 0 {
		return
	}
	if _, hasElo := entry.Metadata["elo"]; hasElo {
		return
	}

	q, err := tr.GetQueue(queueName)
	if err != nil || q.MatcherType() != matcher.TypeElo {
		return
	}

	rating, err := ratings.GetByPlayerAndQueue(ctx, entry.Players[0], queueName)
	if err != nil {
		return
	}

	if entry.Metadata == nil {
		entry.Metadata = make(map[string]interface{})
	}
	entry.Metadata["elo"] = rating.Rating
}

// watchForClientClose keeps reading from the connection (the client never
// sends a second frame under the normal contract) solely to detect an
// early disconnect, so the entry can be cancelled out of its queue instead
// of lingering until resultWait expires.
func watchForClientClose(conn *websocket.Conn, tr *tracker.Tracker, queueName, entryID string, cancel context.CancelFunc, done <-chan struct{}) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			select {
			case <-done:
			default:
				tr.Leave(queueName, entryID)
				cancel()
			}
			return
		}
		select {
		case <-done:
			return
		default:
		}
	}
}

func writeFinal(conn *websocket.Conn, resp joinResponse) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	data, err := json.Marshal(resp)
	if err != nil {
		logrus.WithError(err).Error("transport: failed to marshal join response")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logrus.WithError(err).Warn("transport: failed to write join response")
	}
}
