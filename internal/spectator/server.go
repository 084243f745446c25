package spectator

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-desk/pkg/chessdto"
)

const (
	defaultRenderTimeout = 2 * time.Second
	serverName           = "cheese-desk"
)

// Snapshotter is the read side of a Hub.
type Snapshotter interface {
	State() chessdto.SessionState
	BoardPNG(ctx context.Context) ([]byte, error)
}

// Server serves the spectator endpoints:
//
//	GET /state.json  current session state
//	GET /board.png   current board picture
//	GET /healthz     liveness
type Server struct {
	hub           Snapshotter
	logger        *zap.Logger
	renderTimeout time.Duration
	srv           *fasthttp.Server
}

type ServerOption func(*Server)

func WithServerLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithRenderTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.renderTimeout = d
		}
	}
}

func NewServer(hub Snapshotter, opts ...ServerOption) *Server {
	s := &Server{
		hub:           hub,
		logger:        zap.NewNop(),
		renderTimeout: defaultRenderTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &fasthttp.Server{
		Handler:      s.handle,
		Name:         serverName,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	return s
}

// Serve blocks until the listener is closed or Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("spectator server listening", zap.String("addr", ln.Addr().String()))
	return s.srv.Serve(ln)
}

// Start listens on addr and serves in the background. Errors after the
// listener is up are logged.
func (s *Server) Start(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("spectator server stopped", zap.Error(err))
		}
	}()
	return ln.Addr(), nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() && !ctx.IsHead() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported")
		return
	}
	switch string(ctx.Path()) {
	case "/state.json":
		s.handleState(ctx)
	case "/board.png":
		s.handleBoard(ctx)
	case "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString("ok")
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not_found", "no such endpoint")
	}
}

func (s *Server) handleState(ctx *fasthttp.RequestCtx) {
	body, err := json.Marshal(s.hub.State())
	if err != nil {
		s.logger.Error("encode state failed", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "encode_failed", err.Error())
		return
	}
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func (s *Server) handleBoard(ctx *fasthttp.RequestCtx) {
	renderCtx, cancel := context.WithTimeout(context.Background(), s.renderTimeout)
	defer cancel()
	data, err := s.hub.BoardPNG(renderCtx)
	if err != nil {
		s.logger.Warn("render board failed", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "render_failed", err.Error())
		return
	}
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetContentType("image/png")
	ctx.SetBody(data)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, msg string) {
	body, _ := json.Marshal(chessdto.ErrorBody{Code: code, Message: msg})
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
