package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStalledSubscriberIsDropped(t *testing.T) {
	h := newHub(500 * time.Millisecond)
	defer h.close()
	ts := httptest.NewServer(http.HandlerFunc(h.handle))
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	// Never reads, so its socket buffers fill up.
	stalled, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer stalled.Close()

	frame := bytes.Repeat([]byte("x"), 1<<20)
	go func() {
		for i := 0; i < 64; i++ {
			select {
			case h.broadcast <- frame:
			case <-h.done:
				return
			}
		}
	}()

	live, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer live.Close()

	live.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := live.ReadMessage()
	if err != nil {
		t.Fatalf("live subscriber starved: %v", err)
	}
	if len(msg) != len(frame) {
		t.Errorf("got %d byte frame, expected %d", len(msg), len(frame))
	}
}
