// Package bridge serves the command registry over a websocket so a remote
// client can drive the display through the one serial link held by this
// process.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/thiefmaster/braviactl/comm"
	"github.com/thiefmaster/braviactl/commands"
)

type Config struct {
	// Listen is the address the bridge serves on, e.g. "127.0.0.1:8765".
	Listen string `yaml:"listen"`
	// AllowedOrigins lists the hosts (host[:port]) browsers may connect from.
	// Clients that send no Origin header are always accepted.
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type Request struct {
	Command string        `json:"command"`
	Args    []interface{} `json:"args"`
}

type Response struct {
	Command string      `json:"command"`
	Value   interface{} `json:"value"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// error kinds reported in Response.Kind
const (
	KindInvalidArgument = "invalid_argument"
	KindUnknownCommand  = "unknown_command"
	KindFraming         = "framing"
	KindChecksum        = "checksum"
	KindStatus          = "status"
	KindIO              = "io"
	KindBadRequest      = "bad_request"
)

// ErrClosed is reported for requests that arrive after the server stopped.
var ErrClosed = errors.New("bridge: server closed")

type Server struct {
	registry *commands.Registry
	upgrader websocket.Upgrader
	allowed  map[string]bool
	listen   string

	connMu   sync.Mutex
	conns    map[*websocket.Conn]bool
	stopping bool

	// mu keeps exchanges on the link one at a time.
	mu     sync.Mutex
	link   commands.Exchanger
	closed bool
}

func New(registry *commands.Registry, link commands.Exchanger, cfg Config) *Server {
	s := &Server{
		registry: registry,
		link:     link,
		allowed:  make(map[string]bool),
		listen:   cfg.Listen,
		conns:    make(map[*websocket.Conn]bool),
	}
	for _, origin := range cfg.AllowedOrigins {
		s.allowed[origin] = true
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header["Origin"]
	if len(origin) == 0 {
		return true
	}
	u, err := url.Parse(origin[0])
	if err != nil {
		return false
	}
	return s.allowed[u.Host]
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ws)
	return mux
}

// ListenAndServe serves on Config.Listen until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.listen == "" {
		return errors.New("bridge: no listen address configured")
	}
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", s.listen, err)
	}
	log.Printf("serving commands on ws://%s/ws\n", ln.Addr())
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled. When it returns every websocket
// is closed and no exchange is running or will start, so the caller may close
// the link.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		srv.Close()
	}()
	err := srv.Serve(ln)
	close(done)
	s.shutdown()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("bridge server exited: %w", err)
	}
	return nil
}

// shutdown closes the upgraded connections, which http.Server.Close leaves
// alone, then waits for a running exchange to finish.
func (s *Server) shutdown() {
	s.connMu.Lock()
	s.stopping = true
	for c := range s.conns {
		c.Close()
	}
	s.connMu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Server) track(c *websocket.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.stopping {
		return false
	}
	s.conns[c] = true
	return true
}

func (s *Server) untrack(c *websocket.Conn) {
	s.connMu.Lock()
	delete(s.conns, c)
	s.connMu.Unlock()
}

func (s *Server) ws(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %s\n", err)
		return
	}
	defer c.Close()
	if !s.track(c) {
		return
	}
	defer s.untrack(c)
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read failed: %s\n", err)
			}
			return
		}
		var resp Response
		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			resp = Response{Error: fmt.Sprintf("could not unmarshal request: %v", err), Kind: KindBadRequest}
		} else {
			resp = s.handle(req)
		}
		if err := c.WriteJSON(resp); err != nil {
			log.Printf("websocket write failed: %s\n", err)
			return
		}
	}
}

func (s *Server) handle(req Request) Response {
	resp := Response{Command: req.Command}
	args, err := stringArgs(req.Command, req.Args)
	if err != nil {
		return failed(resp, err)
	}
	call, err := s.registry.Prepare(req.Command, args)
	if err != nil {
		return failed(resp, err)
	}
	var value interface{}
	if call.NeedsLink() {
		s.mu.Lock()
		if s.closed {
			err = ErrClosed
		} else {
			value, err = call.Run(s.link)
		}
		s.mu.Unlock()
	} else {
		value, err = call.Run(nil)
	}
	if err != nil {
		log.Printf("%s failed: %v\n", call.Name(), err)
		return failed(resp, err)
	}
	resp.Value = value
	return resp
}

// stringArgs accepts JSON strings, numbers and booleans.
func stringArgs(command string, raw []interface{}) ([]string, error) {
	args := make([]string, 0, len(raw))
	for _, v := range raw {
		switch v := v.(type) {
		case string:
			args = append(args, v)
		case float64:
			args = append(args, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			args = append(args, strconv.FormatBool(v))
		default:
			return nil, &commands.ArgumentError{Command: command, Reason: fmt.Sprintf("unsupported argument type %T", v)}
		}
	}
	return args, nil
}

func failed(resp Response, err error) Response {
	resp.Error = err.Error()
	resp.Kind = errorKind(err)
	return resp
}

func errorKind(err error) string {
	var (
		argErr     *commands.ArgumentError
		unknownErr *commands.UnknownCommandError
		frameErr   *comm.FramingError
		sumErr     *comm.ChecksumError
		statusErr  *comm.StatusError
		ioErr      *comm.IOError
	)
	switch {
	case errors.As(err, &argErr):
		return KindInvalidArgument
	case errors.As(err, &unknownErr):
		return KindUnknownCommand
	case errors.As(err, &frameErr):
		return KindFraming
	case errors.As(err, &sumErr):
		return KindChecksum
	case errors.As(err, &statusErr):
		return KindStatus
	case errors.As(err, &ioErr), errors.Is(err, ErrClosed):
		return KindIO
	default:
		return ""
	}
}
