package signaling

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Dispatch handles one parsed inbound event from a connection.
type Dispatch func(c *Client, event string, data json.RawMessage)

// ServeWS upgrades an HTTP request to a websocket connection, registers
// it and runs the read/write pumps. The connection is unregistered (with
// user-left cascades) when either pump exits.
func ServeWS(registry *Registry, dispatch Dispatch, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := NewClient(uuid.NewString())
	registry.Register(c)
	log.Printf("signaling: connection %s established", c.ID)

	go writePump(c, conn)
	go readPump(c, conn, registry, dispatch)
	return nil
}

func readPump(c *Client, conn *websocket.Conn, registry *Registry, dispatch Dispatch) {
	defer func() {
		registry.Unregister(c.ID)
		conn.Close()
		log.Printf("signaling: connection %s closed", c.ID)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("signaling: connection %s read error: %v", c.ID, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			log.Printf("signaling: connection %s sent malformed frame", c.ID)
			continue
		}
		dispatch(c, env.Event, env.Data)
	}
}

func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Outbox():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
