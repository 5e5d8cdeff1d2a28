package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"
)

// Subscribers that cannot take a frame within writeWait are dropped.
const writeWait = 5 * time.Second

// hub fans state frames out to websocket subscribers.
type hub struct {
	upgrader  websocket.Upgrader
	writeWait time.Duration
	clients   map[*websocket.Conn]bool
	register  chan *websocket.Conn
	remove    chan *websocket.Conn
	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newHub(wait time.Duration) *hub {
	h := &hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeWait: wait,
		clients:   make(map[*websocket.Conn]bool),
		register:  make(chan *websocket.Conn),
		remove:    make(chan *websocket.Conn),
		broadcast: make(chan []byte, 16),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *hub) run() {
	var last []byte
	for {
		select {
		case <-h.done:
			for conn := range h.clients {
				conn.Close()
			}
			return
		case conn := <-h.register:
			h.clients[conn] = true
			if last != nil {
				h.send(conn, last)
			}
		case conn := <-h.remove:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
		case msg := <-h.broadcast:
			last = msg
			for conn := range h.clients {
				h.send(conn, msg)
			}
		}
	}
}

func (h *hub) send(conn *websocket.Conn, msg []byte) {
	conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Warnf("Failed to send frame to websocket client: %v", err)
		delete(h.clients, conn)
		conn.Close()
	}
}

// publish queues a state frame; frames are dropped when subscribers fall
// behind.
func (h *hub) publish(st State) {
	b, err := json.Marshal(st)
	if err != nil {
		log.Errorf("encoding state frame: %v", err)
		return
	}
	select {
	case h.broadcast <- b:
	default:
		log.Debugf("state frame dropped at tick %d", st.Tick)
	}
}

func (h *hub) close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *hub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	// Clients only listen; reading detects when they go away.
	go func() {
		defer func() {
			select {
			case h.remove <- conn:
			case <-h.done:
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warnf("websocket error: %v", err)
				}
				return
			}
		}
	}()
}
