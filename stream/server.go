// Package stream broadcasts simulation frames to external renderers over
// websockets.
package stream

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/quillaja/sph"
)

// Message is the JSON document sent for every frame.
type Message struct {
	Type      string       `json:"type"`
	Frame     int          `json:"frame"`
	Time      float64      `json:"time"`
	Positions [][3]float64 `json:"positions"`
	Densities []float64    `json:"densities"`
}

// NewMessage converts a published frame.
func NewMessage(f *sph.Frame) *Message {
	msg := &Message{
		Type:      "frame",
		Frame:     f.Step,
		Time:      f.Time,
		Positions: make([][3]float64, len(f.Particles)),
		Densities: make([]float64, len(f.Particles)),
	}
	for i, p := range f.Particles {
		msg.Positions[i] = p.Position
		msg.Densities[i] = p.Density
	}
	return msg
}

// Server is an http.Handler upgrading requests to websockets. Every client
// gets the latest frame on connect and every published frame after that. A
// frame published while a client connects may arrive twice.
type Server struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	clientsMutex sync.RWMutex
	clients      map[*websocket.Conn]*sync.Mutex

	latestMutex sync.RWMutex
	latest      []byte
}

// NewServer returns a server logging to logger (nil discards).
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // renderers are served from anywhere
			},
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// ServeHTTP handles one websocket client until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Println("websocket upgrade error:", err)
		return
	}
	defer conn.Close()

	// register before reading latest so a frame published meanwhile
	// reaches the client one way or the other
	connMutex := &sync.Mutex{}
	connMutex.Lock()
	s.clientsMutex.Lock()
	s.clients[conn] = connMutex
	s.clientsMutex.Unlock()
	defer func() {
		s.clientsMutex.Lock()
		delete(s.clients, conn)
		s.clientsMutex.Unlock()
	}()

	s.latestMutex.RLock()
	latest := s.latest
	s.latestMutex.RUnlock()
	if latest != nil {
		if err := conn.WriteMessage(websocket.TextMessage, latest); err != nil {
			connMutex.Unlock()
			s.logger.Println("websocket write error:", err)
			return
		}
	}
	connMutex.Unlock()

	// renderers only listen; reading keeps control frames flowing and
	// notices the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Println("websocket read error:", err)
			}
			return
		}
	}
}

// Publish sends f to every connected client. Frames flagged NonFinite are
// not sent; renderers keep the last good frame.
func (s *Server) Publish(f *sph.Frame) error {
	if f.NonFinite {
		return nil
	}
	data, err := json.Marshal(NewMessage(f))
	if err != nil {
		return err
	}

	s.latestMutex.Lock()
	s.latest = data
	s.latestMutex.Unlock()

	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	for conn, m := range s.clients {
		m.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		m.Unlock()
		if err != nil {
			s.logger.Println("websocket write error:", err)
		}
	}
	return nil
}

// Clients is the number of connected clients.
func (s *Server) Clients() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}
