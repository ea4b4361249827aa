package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"

	"cyberguard/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamLogs handles GET /ws/logs?token=…: live server log over a websocket,
// starting with the recent backlog. Disabled when ADMIN_TOKEN is unset.
func (v *Viewer) StreamLogs(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if v.cfg.AdminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(v.cfg.AdminToken)) != 1 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ADMIN] WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	logsChan, backlog := logger.Instance.Subscribe()
	defer logger.Instance.Unsubscribe(logsChan)

	for _, line := range backlog {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(done)
				return
			}
		}
	}()

	for {
		select {
		case msg := <-logsChan:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
