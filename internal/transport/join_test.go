package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"matchqueue/internal/locator"
	"matchqueue/internal/matcher"
	"matchqueue/internal/tracker"
)

func newTestServer(t *testing.T) (*httptest.Server, *tracker.Tracker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gameSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"gameId":"g-1","host":"127.0.0.1","port":7777}`))
	}))
	t.Cleanup(gameSrv.Close)

	loc := locator.New(locator.Settings{BaseURL: gameSrv.URL, IDPath: "$.gameId", HostPath: "$.host", PortPath: "$.port"}, gameSrv.Client())
	tr := tracker.New(loc, 10*time.Millisecond)

	settings, err := matcher.NewFlexible(matcher.FlexibleSettings{TeamSize: 1, NumberOfTeams: 2, MinEntrySize: 1, MaxEntrySize: 1})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := settings.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.CreateQueue("ranked", matcher.TypeFlexible, raw); err != nil {
		t.Fatal(err)
	}

	tr.Start(t.Context())
	t.Cleanup(tr.Stop)

	r := gin.New()
	r.GET("/api/v1/queue/:name/join", HandleJoin(tr, nil))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, tr
}

func dialJoin(t *testing.T, srv *httptest.Server, queue string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/queue/" + queue + "/join"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	return conn
}

func TestHandleJoinDeliversMatch(t *testing.T) {
	srv, _ := newTestServer(t)

	c1 := dialJoin(t, srv, "ranked")
	defer c1.Close()
	c2 := dialJoin(t, srv, "ranked")
	defer c2.Close()

	if err := c1.WriteJSON(map[string]interface{}{"id": "e1", "players": []string{"alice"}}); err != nil {
		t.Fatal(err)
	}
	if err := c2.WriteJSON(map[string]interface{}{"id": "e2", "players": []string{"bob"}}); err != nil {
		t.Fatal(err)
	}

	c1.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp1 joinResponse
	if err := c1.ReadJSON(&resp1); err != nil {
		t.Fatal(err)
	}
	if resp1.Status != "matched" {
		t.Fatalf("expected matched, got %+v", resp1)
	}

	if len(resp1.Teams) != 2 {
		t.Fatalf("expected 2 teams, got %d: %+v", len(resp1.Teams), resp1.Teams)
	}
	seen := map[string]bool{}
	for _, team := range resp1.Teams {
		if len(team) != 1 {
			t.Fatalf("expected 1 entry per team, got %d: %+v", len(team), team)
		}
		entry := team[0]
		if entry.ID == "" || len(entry.Players) != 1 {
			t.Fatalf("expected full entry with id and players, got %+v", entry)
		}
		seen[entry.ID] = true
	}
	if !seen["e1"] || !seen["e2"] {
		t.Fatalf("expected both e1 and e2 represented as full entries, got %+v", resp1.Teams)
	}
}

func TestHandleJoinRejectsMalformedRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialJoin(t, srv, "ranked")
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp joinResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "error" {
		t.Fatalf("expected error status, got %+v", resp)
	}
}

func TestHandleJoinUnknownQueue(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialJoin(t, srv, "missing")
	defer conn.Close()

	if err := conn.WriteJSON(map[string]interface{}{"id": "e1", "players": []string{"alice"}}); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp joinResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "error" {
		t.Fatalf("expected error for unknown queue, got %+v", resp)
	}
}
