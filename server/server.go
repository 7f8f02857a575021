package server

import (
	"context"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"net/http"
	"parcel-status-relay/core"
	"parcel-status-relay/workers/tracking/models"
	"time"
)

// StatusQuerier answers "what is the status right now".
type StatusQuerier interface {
	QueryNow(ctx context.Context) string
}

// NotificationLister reads the notification history.
type NotificationLister interface {
	RecentNotifications(ctx context.Context, limit int) ([]models.Notification, error)
}

type Server struct {
	logger        *zap.Logger
	querier       StatusQuerier
	notifications NotificationLister
	metrics       *core.Metrics
	signingSecret string
	now           func() time.Time
}

func New(logger *zap.Logger, querier StatusQuerier, notifications NotificationLister, metrics *core.Metrics, signingSecret string) *Server {
	return &Server{
		logger:        logger,
		querier:       querier,
		notifications: notifications,
		metrics:       metrics,
		signingSecret: signingSecret,
		now:           time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Post("/slack/track", s.trackCommand)
	r.Get("/notifications", s.listNotifications)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// ListenAndServe serves until ctx is done and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
