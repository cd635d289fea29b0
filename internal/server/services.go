package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HTTPService serves handler on addr until stopped.
type HTTPService struct {
	srv    *http.Server
	logger *zap.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewHTTPService creates an HTTPService.
//
// Precondition: handler and logger must be non-nil.
func NewHTTPService(addr string, handler http.Handler, logger *zap.Logger) *HTTPService {
	if handler == nil || logger == nil {
		panic("server.NewHTTPService: handler and logger must not be nil")
	}
	return &HTTPService{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start listens and serves. It returns nil after Stop.
func (h *HTTPService) Start() error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.listener = ln
	h.mu.Unlock()
	h.logger.Info("http listening", zap.String("addr", ln.Addr().String()))
	if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once Start is listening, or "".
func (h *HTTPService) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for handlers.
// Hijacked websocket connections are not waited for.
func (h *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		h.logger.Warn("http shutdown", zap.Error(err))
	}
}

// Runner is a component driven by a context, such as the simulation tick
// loop or a feed subscription.
type Runner func(ctx context.Context) error

// ContextService runs a Runner until Stop cancels its context.
type ContextService struct {
	run    Runner
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewContextService wraps run.
//
// Precondition: run must be non-nil.
func NewContextService(run Runner) *ContextService {
	if run == nil {
		panic("server.NewContextService: run must not be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ContextService{run: run, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Start calls the Runner and blocks until it returns. A Runner that returns
// because Stop cancelled it reports nil.
func (c *ContextService) Start() error {
	defer close(c.done)
	err := c.run(c.ctx)
	if c.ctx.Err() != nil {
		return nil
	}
	return err
}

// Stop cancels the Runner and waits for Start to return.
func (c *ContextService) Stop() {
	c.cancel()
	<-c.done
}
