package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/critslots/internal/builds"
)

const writeWait = 5 * time.Second

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub fans out change reports to websocket clients watching a build.
type Hub struct {
	mu       sync.Mutex
	watchers map[string]map[*subscriber]struct{}
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		watchers: make(map[string]map[*subscriber]struct{}),
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

type changeMessage struct {
	Type   string              `json:"type"`
	Report builds.ChangeReport `json:"report"`
}

// Publish sends the report to every client watching buildID.
func (h *Hub) Publish(buildID string, report builds.ChangeReport) {
	data, err := json.Marshal(changeMessage{Type: "configChanged", Report: report})
	if err != nil {
		h.log.Error().Err(err).Str("build", buildID).Msg("marshal change report")
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.watchers[buildID]))
	for sub := range h.watchers[buildID] {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			h.log.Warn().Err(err).Str("build", buildID).Msg("dropping watcher")
			h.remove(buildID, sub)
			sub.conn.Close()
		}
	}
}

// Watchers returns how many clients are subscribed to buildID.
func (h *Hub) Watchers(buildID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[buildID])
}

func (h *Hub) add(buildID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.watchers[buildID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.watchers[buildID] = set
	}
	set[sub] = struct{}{}
}

func (h *Hub) remove(buildID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.watchers[buildID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.watchers, buildID)
	}
}

// Handle upgrades GET /ws?build={id}. Clients only listen; anything they send
// is discarded.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	buildID := r.URL.Query().Get("build")
	if buildID == "" {
		http.Error(w, "missing build", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("build", buildID).Msg("websocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn}
	h.add(buildID, sub)
	h.log.Debug().Str("build", buildID).Msg("watcher connected")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(buildID, sub)
			conn.Close()
			h.log.Debug().Str("build", buildID).Msg("watcher disconnected")
			return
		}
	}
}
