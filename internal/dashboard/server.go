// Package dashboard serves the StudyFlow JSON API: boards, tasks, moves,
// subjects, invites, settings, the week and print views, and a server-sent
// event stream of board changes.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/zulandar/studyflow/internal/invite"
	"github.com/zulandar/studyflow/internal/logging"
	"github.com/zulandar/studyflow/internal/store"
)

// defaultHeartbeat is the SSE keep-alive interval.
const defaultHeartbeat = 15 * time.Second

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Store     *store.Store
	JWTSecret string
	Issuer    string
	Port      int
	Out       io.Writer
	Logger    log.FieldLogger
	// Heartbeat overrides the SSE keep-alive interval.
	Heartbeat time.Duration
}

type server struct {
	store     *store.Store
	invites   *invite.Service
	auth      *Auth
	log       log.FieldLogger
	heartbeat time.Duration
}

// NewRouter builds the API router without starting a listener.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("dashboard: store is required")
	}
	auth, err := NewAuth(opts.JWTSecret, opts.Issuer, opts.Store.Now)
	if err != nil {
		return nil, err
	}
	logger := logging.OrDiscard(opts.Logger)
	s := &server{
		store:     opts.Store,
		invites:   invite.New(opts.Store, logger),
		auth:      auth,
		log:       logger,
		heartbeat: opts.Heartbeat,
	}
	if s.heartbeat <= 0 {
		s.heartbeat = defaultHeartbeat
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	registerRoutes(router, s)
	return router, nil
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// requestLogger logs every request at debug level, and failures at warn.
func requestLogger(logger log.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logger.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("dashboard: request failed")
			return
		}
		entry.Debug("dashboard: request")
	}
}
