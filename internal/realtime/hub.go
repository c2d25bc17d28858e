package realtime

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

/*
|--------------------------------------------------------------------------
| WebSocket Client Registry
|--------------------------------------------------------------------------
| Koneksi diregister per identitas (user:<id> / vendor:<id>) supaya
| event bisa dikirim ke pihak tertentu saja, bukan broadcast ke semua.
*/

type client struct {
	conn     *websocket.Conn
	writeMux sync.Mutex
	closed   bool
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*websocket.Conn]*client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]*client),
	}
}

func UserKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

func VendorKey(id int64) string {
	return fmt.Sprintf("vendor:%d", id)
}

func (h *Hub) register(key string, conn *websocket.Conn) *client {
	c := &client{conn: conn}

	h.mu.Lock()
	if h.clients[key] == nil {
		h.clients[key] = make(map[*websocket.Conn]*client)
	}
	h.clients[key][conn] = c
	total := len(h.clients[key])
	h.mu.Unlock()

	log.Printf("[ws] %s connected, total koneksi: %d", key, total)
	return c
}

func (h *Hub) unregister(key string, conn *websocket.Conn) {
	h.mu.Lock()
	if conns, ok := h.clients[key]; ok {
		if c, ok := conns[conn]; ok {
			c.writeMux.Lock()
			c.closed = true
			c.writeMux.Unlock()
			delete(conns, conn)
		}
		if len(conns) == 0 {
			delete(h.clients, key)
		}
	}
	h.mu.Unlock()

	_ = conn.Close()
	log.Printf("[ws] %s disconnected", key)
}

// Send kirim message ke semua koneksi satu identitas. Best-effort:
// koneksi yang gagal ditulis langsung ditutup dan dilepas.
func (h *Hub) Send(key string, message []byte) {
	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients[key]))
	for _, c := range h.clients[key] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.writeMux.Lock()
		if c.closed {
			c.writeMux.Unlock()
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
		err := c.conn.WriteMessage(websocket.TextMessage, message)
		if err != nil {
			c.closed = true
		}
		c.writeMux.Unlock()

		if err != nil {
			log.Printf("[ws] %s write error: %v", key, err)
			go h.unregister(key, c.conn)
		}
	}
}

// Serve urus satu koneksi sampai putus: register, ping/pong, read
// loop. Dipanggil dari handler websocket.
func (h *Hub) Serve(key string, conn *websocket.Conn) {
	c := h.register(key, conn)
	defer h.unregister(key, conn)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Ping ticker setiap 20 detik
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.writeMux.Lock()
				if c.closed {
					c.writeMux.Unlock()
					return
				}
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				err := conn.WriteMessage(websocket.PingMessage, nil)
				c.writeMux.Unlock()

				if err != nil {
					log.Printf("[ws] %s ping error: %v", key, err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read loop — client tidak kirim apa-apa, tapi read perlu jalan
	// buat ngerasain close & pong.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
			) {
				log.Printf("[ws] %s unexpected close: %v", key, err)
			}
			return
		}
	}
}
