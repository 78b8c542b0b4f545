// Package webhook receives Viber callbacks over HTTP.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultPath is where callbacks are accepted.
	DefaultPath = "/viber/webhook"

	maxBody         = 1 << 20
	shutdownTimeout = 15 * time.Second
)

var eventsReceived = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "viber_webhook",
		Name:      "events_total",
		Help:      "Callbacks received by event type and result.",
	},
	[]string{"event", "result"},
)

// Handler processes one verified callback.
type Handler func(ctx context.Context, ev Event, raw []byte) error

// Server accepts signed callbacks for one account token.
type Server struct {
	Token   string
	Path    string
	Handler Handler
	Logger  *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Router builds the gin engine serving the callback path, /healthz and /metrics.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	r.POST(path, s.receive)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (s *Server) receive(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	if err != nil {
		eventsReceived.WithLabelValues("", "read_error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	if !Verify(raw, c.GetHeader(SignatureHeader), s.Token) {
		eventsReceived.WithLabelValues("", "bad_signature").Inc()
		s.logger().Warn("rejected callback", "reason", "signature mismatch", "remote", c.ClientIP())
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Event == "" {
		eventsReceived.WithLabelValues("", "bad_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	if s.Handler != nil {
		if err := s.Handler(c.Request.Context(), ev, raw); err != nil {
			eventsReceived.WithLabelValues(ev.Event, "handler_error").Inc()
			s.logger().Error("callback handler failed", "event", ev.Event, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "handler failed"})
			return
		}
	}

	eventsReceived.WithLabelValues(ev.Event, "ok").Inc()
	c.Status(http.StatusOK)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts callbacks on ln until ctx is done. Binding first lets the
// caller register the webhook once the port is open.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger().Info("webhook listener started", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger().Info("webhook listener stopped")
	return nil
}
