package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type WSConfig struct {
	// PingTimeout is how long a connection may stay silent before it is
	// considered dead. Pings go out at 9/10 of it.
	PingTimeout  time.Duration
	SendBuffer   int
	MaxFrame     int64
	AllowOrigins []string
}

// WSServer upgrades HTTP requests and drives one gateway session per socket.
type WSServer struct {
	gateway  *Gateway
	cfg      WSConfig
	upgrader websocket.Upgrader
}

func NewWSServer(gateway *Gateway, cfg WSConfig) *WSServer {
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 60 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	s := &WSServer{gateway: gateway, cfg: cfg}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *WSServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	log.Printf("[ws][origin] rejected origin=%s", origin)
	return false
}

// Serve upgrades the request and blocks until the socket closes. identity
// is the authenticated user id, or empty when the caller did not
// authenticate the connection.
func (s *WSServer) Serve(w http.ResponseWriter, r *http.Request, identity string) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &wsClient{
		conn: conn,
		send: make(chan Frame, s.cfg.SendBuffer),
		done: make(chan struct{}),
	}
	c.session = NewSession(c, identity)
	log.Printf("[ws][open] session=%s remote=%s", c.session.ID(), r.RemoteAddr)

	go c.writePump(s.cfg.PingTimeout * 9 / 10)
	c.readPump(s.gateway, s.cfg)
	return nil
}

type wsClient struct {
	conn    *websocket.Conn
	session *Session
	send    chan Frame

	done      chan struct{}
	closeOnce sync.Once
}

// Send queues a frame for the write pump. A full buffer drops the frame
// rather than stalling the broadcaster.
func (c *wsClient) Send(f Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- f:
		return true
	default:
		log.Printf("[ws][send] session=%s buffer full, dropped event=%q", c.session.ID(), f.Event)
		return false
	}
}

func (c *wsClient) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *wsClient) readPump(gateway *Gateway, cfg WSConfig) {
	defer func() {
		gateway.Close(c.session)
		c.shutdown()
		c.conn.Close()
	}()

	if cfg.MaxFrame > 0 {
		c.conn.SetReadLimit(cfg.MaxFrame)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PingTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PingTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("[ws][read] session=%s: %v", c.session.ID(), err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PingTimeout))

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Printf("[ws][frame] session=%s undecodable frame: %v", c.session.ID(), err)
			continue
		}
		if err := gateway.HandleFrame(c.session, f); err != nil {
			log.Printf("[ws][frame] session=%s event=%q dropped: %v", c.session.ID(), f.Event, err)
		}
	}
}

func (c *wsClient) writePump(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				c.shutdown()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
