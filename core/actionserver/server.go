// Package actionserver exposes the action registry over HTTP using the
// action server protocol: the engine posts the next action and a tracker
// snapshot, and receives events plus messages to deliver.
package actionserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/m3rciful/hrbot/core/dialogue"
	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/metrics"
)

const shutdownTimeout = 10 * time.Second

// Options configure the HTTP surface.
type Options struct {
	Token       string
	CORSOrigins []string
	Metrics     bool
}

// Server serves one registry.
type Server struct {
	reg    *dialogue.Registry
	opts   Options
	engine *gin.Engine
}

// New builds the router. Call gin.SetMode before New to silence debug output.
func New(reg *dialogue.Registry, opts Options) *Server {
	s := &Server{reg: reg, opts: opts, engine: gin.New()}
	s.routes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), requestID(), accessLog())
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.opts.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Authorization", "Content-Type", headerRequestID},
			ExposeHeaders: []string{"Content-Length", headerRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.opts.Metrics {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := r.Group("/")
	if s.opts.Token != "" {
		api.Use(tokenAuth(s.opts.Token))
	}
	api.GET("/actions", s.listActions)
	api.POST("/webhook", s.webhook)
}

func (s *Server) listActions(c *gin.Context) {
	names := s.reg.Names()
	out := make([]ActionInfo, 0, len(names))
	for _, n := range names {
		out = append(out, ActionInfo{Name: n})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) webhook(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	name := strings.TrimSpace(req.NextAction)
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "next_action is required"})
		return
	}

	tracker := req.Tracker
	if tracker == nil {
		tracker = dialogue.NewTracker(req.SenderID)
	}
	if tracker.SenderID == "" {
		tracker.SenderID = req.SenderID
	}
	if tracker.Slots == nil {
		tracker.Slots = make(map[string]any)
	}

	ctx := logger.WithSender(c.Request.Context(), tracker.SenderID)
	res, err := s.reg.Run(ctx, name, tracker)
	switch {
	case errors.Is(err, dialogue.ErrActionNotFound):
		metrics.Actions.WithLabelValues(name, metrics.OutcomeNotFound).Inc()
		logger.Warn(ctx, logger.CompActionServer, "action.unknown", slog.String("action", name))
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no registered action found for name '" + name + "'", ActionName: name})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), ActionName: name})
		return
	}

	resp := Response{Events: res.Events, Responses: res.Messages}
	if resp.Events == nil {
		resp.Events = []dialogue.Event{}
	}
	if resp.Responses == nil {
		resp.Responses = []dialogue.Message{}
	}
	c.JSON(http.StatusOK, resp)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("actionserver: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	logger.Info(ctx, logger.CompActionServer, "listen", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("actionserver: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("actionserver: shutdown: %w", err)
	}
	logger.Info(shutdownCtx, logger.CompActionServer, "stopped")
	return nil
}
