package sync

import (
	"bufio"
	"errors"
	"log"
	"net"
	"strings"
	"sync"
)

// Server accepts line-oriented TCP sync clients. A client may send
// "subscribe <user_id>" to receive only that user's deck events.
type Server struct {
	Addr string
	Hub  *Hub

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	log.Printf("[tcp-sync] listening on %s", s.Addr)
	return s.Serve(ln)
}

// Serve accepts on ln until it is closed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		log.Printf("[tcp-sync] client connected: %s", conn.RemoteAddr())

		go s.handle(conn)
	}
}

// Close stops accepting new clients.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) handle(c net.Conn) {
	defer func() {
		s.Hub.Remove(c)
		log.Printf("[tcp-sync] client disconnected: %s", c.RemoteAddr())
	}()

	sc := bufio.NewScanner(c)
	for sc.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		switch cmd {
		case "subscribe":
			s.Hub.Subscribe(c, strings.TrimSpace(arg))
		case "unsubscribe":
			s.Hub.Subscribe(c, "")
		}
	}
}
