package httpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/orbitdine/internal/broadcast"
	"github.com/Skotchmaster/orbitdine/pkg/logging"
)

const (
	EventJoinTable   = "join_table"
	EventTableJoined = "table_joined"
	EventError       = "error"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4096
)

type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type RealtimeHTTP struct {
	Hub      *broadcast.Hub
	Upgrader websocket.Upgrader
}

func NewRealtimeHTTP(hub *broadcast.Hub, allowedOrigins []string) *RealtimeHTTP {
	h := &RealtimeHTTP{Hub: hub}
	h.Upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// originChecker allows any origin when the list is empty or contains "*".
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

// parseTableID accepts 3 or "3".
func parseTableID(raw json.RawMessage) (uint, error) {
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return uint(n), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimPrefix(strings.TrimSpace(s), "table_")
		if v, err := strconv.ParseUint(s, 10, 32); err == nil && v > 0 {
			return uint(v), nil
		}
	}
	return 0, fmt.Errorf("invalid table id %s", string(raw))
}

// Serve upgrades the request and streams hub events until either side closes.
// An optional ?table= query joins that table immediately.
func (h *RealtimeHTTP) Serve(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "realtime")

	var initial []uint
	if q := c.QueryParam("table"); q != "" {
		id, err := parseTableID(json.RawMessage(strconv.Quote(q)))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		initial = append(initial, id)
	}

	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		l.Warn("upgrade_error", "error", err)
		return nil
	}

	sub := h.Hub.Subscribe(initial...)
	l = l.With("subscriber", sub.ID)
	l.Info("client_connected", "tables", initial)

	replies := make(chan broadcast.Message, 8)
	done := make(chan struct{})
	go h.writeLoop(conn, sub, replies, done, l)

	h.readLoop(conn, sub, replies, l)

	h.Hub.Unsubscribe(sub)
	<-done
	l.Info("client_disconnected", "dropped", sub.Dropped())
	return nil
}

func (h *RealtimeHTTP) readLoop(conn *websocket.Conn, sub *broadcast.Subscriber, replies chan<- broadcast.Message, l *slog.Logger) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	reply := func(m broadcast.Message) {
		select {
		case replies <- m:
		default:
		}
	}

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.Warn("read_error", "error", err)
			}
			return
		}

		switch msg.Event {
		case EventJoinTable:
			id, err := parseTableID(msg.Data)
			if err != nil {
				reply(broadcast.Message{Event: EventError, Data: err.Error(), At: time.Now().UTC()})
				continue
			}
			sub.Join(id)
			l.Debug("table_joined", "table_id", id)
			reply(broadcast.Message{Event: EventTableJoined, Data: id, At: time.Now().UTC()})
		default:
			reply(broadcast.Message{Event: EventError, Data: "unknown event " + msg.Event, At: time.Now().UTC()})
		}
	}
}

// writeLoop is the only writer on conn.
func (h *RealtimeHTTP) writeLoop(conn *websocket.Conn, sub *broadcast.Subscriber, replies <-chan broadcast.Message, done chan<- struct{}, l *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	write := func(m broadcast.Message) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			l.Warn("write_error", "event", m.Event, "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if !write(ev.Message()) {
				return
			}
		case m := <-replies:
			if !write(m) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
