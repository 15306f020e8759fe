// Package gateway hosts the loopback WebSocket endpoint the UI layer talks
// to: engine events stream out, commands come in.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AmirAgassi/rizzly/internal/ai"
	"github.com/AmirAgassi/rizzly/internal/events"
	"github.com/AmirAgassi/rizzly/internal/logging"
	"github.com/AmirAgassi/rizzly/internal/monitor"
)

const protocolVersion = 1

// Engine is the slice of the automation engine the gateway drives.
type Engine interface {
	Navigate(ctx context.Context, url string) error
	DownloadAllImages()
	CollectProfileImages(ctx context.Context, max int) ([]string, error)
	AnalyzeProfile(ctx context.Context, max int) (ai.Reaction, int, error)
	TypeMessage(ctx context.Context, text string) (ai.Reaction, error)
	SetConversation(prefs string, turns []string)
	MonitoringStatus() monitor.Status
}

type Config struct {
	ListenAddr string
	// Timeout bounds one awaited command (profile collection, typing).
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	out.ListenAddr = strings.TrimSpace(out.ListenAddr)
	if out.ListenAddr == "" {
		out.ListenAddr = "127.0.0.1:17605"
	}
	if out.Timeout <= 0 {
		out.Timeout = 2 * time.Minute
	}
	return out
}

// Server accepts UI connections on a loopback-only address.
type Server struct {
	cfg    Config
	engine Engine
	bus    *events.Bus
	logger logging.Logger

	mu      sync.Mutex
	ln      net.Listener
	httpSrv *http.Server
	addr    string
}

func NewServer(cfg Config, engine Engine, bus *events.Bus, logger logging.Logger) *Server {
	return &Server{
		cfg:    cfg.withDefaults(),
		engine: engine,
		bus:    bus,
		logger: logging.OrNop(logger),
	}
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) Start() error {
	if s == nil {
		return errors.New("gateway server is nil")
	}
	s.mu.Lock()
	if s.ln != nil {
		s.mu.Unlock()
		return nil
	}
	cfg := s.cfg
	s.mu.Unlock()

	host, _, err := net.SplitHostPort(cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("invalid listen_addr %q: %w", cfg.ListenAddr, err)
	}
	if host == "" || host == "0.0.0.0" {
		return fmt.Errorf("listen_addr must bind to loopback, got %q", cfg.ListenAddr)
	}
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return fmt.Errorf("listen_addr must bind to loopback, got %q", cfg.ListenAddr)
		}
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %q: %w", cfg.ListenAddr, err)
	}
	addr := ln.Addr().String()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.ln = ln
	s.httpSrv = httpSrv
	s.addr = addr
	s.mu.Unlock()

	s.logger.Info("gateway listening on ws://%s/ws", addr)
	go func() {
		_ = httpSrv.Serve(ln)
	}()
	return nil
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	srv := s.httpSrv
	s.httpSrv = nil
	s.ln = nil
	s.addr = ""
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.logger.Info("ui client connected from %s", conn.RemoteAddr())
	go s.serveConn(conn)
}

type welcomeFrame struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
}

type commandFrame struct {
	Command     string   `json:"command"`
	ID          string   `json:"id,omitempty"`
	URL         string   `json:"url,omitempty"`
	Text        string   `json:"text,omitempty"`
	Max         int      `json:"max,omitempty"`
	Preferences string   `json:"preferences,omitempty"`
	Turns       []string `json:"turns,omitempty"`
}

type resultFrame struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	OK      bool   `json:"ok"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// serveConn owns one client: a forwarder goroutine streams bus events while
// this goroutine reads commands. All writes share the connection's mutex.
func (s *Server) serveConn(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	var writeMu sync.Mutex
	writeJSON := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}

	// Subscribe before the welcome frame so no event published after the
	// client sees the welcome can be missed.
	sub, cancel := s.bus.Subscribe()
	defer cancel()

	if err := writeJSON(welcomeFrame{Type: "welcome", Version: protocolVersion}); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := writeJSON(ev); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info("ui client disconnected: %v", err)
			return
		}
		var cmd commandFrame
		if err := json.Unmarshal(data, &cmd); err != nil {
			_ = writeJSON(resultFrame{Type: "result", OK: false, Error: "malformed command frame"})
			continue
		}
		_ = writeJSON(s.dispatch(cmd))
	}
}

func (s *Server) dispatch(cmd commandFrame) resultFrame {
	ctx, cancelCtx := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancelCtx()

	result := resultFrame{Type: "result", ID: cmd.ID, OK: true}
	switch strings.TrimSpace(cmd.Command) {
	case "navigate":
		if err := s.engine.Navigate(ctx, cmd.URL); err != nil {
			return fail(cmd.ID, err)
		}
	case "download_all_images":
		s.engine.DownloadAllImages()
	case "download_profile_images":
		images, err := s.engine.CollectProfileImages(ctx, cmd.Max)
		if err != nil {
			return fail(cmd.ID, err)
		}
		result.Payload = map[string]any{"images": images, "count": len(images)}
	case "analyze_profile":
		reaction, count, err := s.engine.AnalyzeProfile(ctx, cmd.Max)
		if err != nil {
			return fail(cmd.ID, err)
		}
		result.Payload = map[string]any{"reaction": reaction, "count": count}
	case "type_message":
		reaction, err := s.engine.TypeMessage(ctx, cmd.Text)
		if err != nil {
			return fail(cmd.ID, err)
		}
		result.Payload = reaction
	case "set_conversation":
		s.engine.SetConversation(cmd.Preferences, cmd.Turns)
	case "check_monitoring":
		result.Payload = s.engine.MonitoringStatus()
	default:
		return fail(cmd.ID, fmt.Errorf("unknown command %q", cmd.Command))
	}
	return result
}

func fail(id string, err error) resultFrame {
	return resultFrame{Type: "result", ID: id, OK: false, Error: err.Error()}
}
