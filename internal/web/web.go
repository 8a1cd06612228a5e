package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kosen-tools/gyouji-cal/internal/calendar"
	"github.com/kosen-tools/gyouji-cal/internal/config"
	"github.com/kosen-tools/gyouji-cal/internal/filter"
	"github.com/kosen-tools/gyouji-cal/internal/logger"
	"github.com/kosen-tools/gyouji-cal/internal/pipeline"
)

// BuildFunc produces a complete calendar.
type BuildFunc func(ctx context.Context) (*pipeline.Result, error)

// Server serves calendar feeds built by a BuildFunc.
type Server struct {
	cfg   *config.Config
	build BuildFunc
	mux   *http.ServeMux
	now   func() time.Time

	// buildMu serializes builds so concurrent misses fetch the page once.
	buildMu sync.Mutex

	mu        sync.RWMutex
	result    *pipeline.Result
	updatedAt time.Time

	cron *cron.Cron
}

// NewServer constructs a Server. cfg is normalized in place.
func NewServer(cfg *config.Config, build BuildFunc) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Normalize()

	s := &Server{
		cfg:   cfg,
		build: build,
		mux:   http.NewServeMux(),
		now:   time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's routes wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/csv", s.handleCSV)
	s.mux.HandleFunc("/ical", s.handleICal)
	s.mux.HandleFunc("/events.json", s.handleEvents)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/", notFound)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not found"))
}

// Result returns the cached calendar when it is younger than the cache TTL,
// and builds a new one otherwise.
func (s *Server) Result(ctx context.Context) (*pipeline.Result, error) {
	if res := s.fresh(); res != nil {
		logger.IncrCounter("web.cache.hit")
		return res, nil
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	// another request may have rebuilt while we waited
	if res := s.fresh(); res != nil {
		logger.IncrCounter("web.cache.hit")
		return res, nil
	}
	logger.IncrCounter("web.cache.miss")
	return s.rebuild(ctx)
}

// Refresh rebuilds the calendar regardless of the cache age. On failure the
// previous calendar stays cached.
func (s *Server) Refresh(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	_, err := s.rebuild(ctx)
	return err
}

func (s *Server) fresh() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil || s.now().Sub(s.updatedAt) >= s.cfg.CacheTTL {
		return nil
	}
	return s.result
}

func (s *Server) rebuild(ctx context.Context) (*pipeline.Result, error) {
	start := time.Now()
	res, err := s.build(ctx)
	logger.RecordTiming("web.build", time.Since(start))
	if err != nil {
		logger.IncrCounter("web.build.error")
		return nil, err
	}

	s.mu.Lock()
	s.result = res
	s.updatedAt = s.now()
	s.mu.Unlock()

	logger.SetGauge("calendar.events", float64(len(res.Events)))
	return res, nil
}

// StartRefresher rebuilds the calendar on the cron schedule in cfg.Refresh,
// evaluated in cfg.Timezone. An empty schedule does nothing.
func (s *Server) StartRefresher() error {
	if s.cfg.Refresh == "" {
		return nil
	}

	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using local time for refresh", logger.Fields{"timezone": s.cfg.Timezone})
		loc = time.Local
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(s.cfg.Refresh, s.scheduledRefresh); err != nil {
		return err
	}
	c.Start()
	s.cron = c

	logger.Info("scheduled refresh enabled", logger.Fields{"schedule": s.cfg.Refresh, "timezone": loc.String()})
	return nil
}

func (s *Server) scheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout+10*time.Second)
	defer cancel()

	if err := s.Refresh(ctx); err != nil {
		logger.Error("scheduled refresh failed", logger.Fields{"source": s.cfg.SourceURL}, err)
		return
	}
	logger.Info("scheduled refresh complete", nil)
}

// StopRefresher stops the cron scheduler and waits for a running refresh.
func (s *Server) StopRefresher() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.StartRefresher(); err != nil {
		return err
	}
	defer s.StopRefresher()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", logger.Fields{"listen": "http://" + s.cfg.Listen})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("HTTP server stopped", nil)
	return nil
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resultFor(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.CSV()))
}

func (s *Server) handleICal(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resultFor(w, r)
	if !ok {
		return
	}

	var body string
	if strict, _ := strconv.ParseBool(r.URL.Query().Get("strict")); strict {
		body = res.StrictICal(calendar.StrictOptions{
			ProdID:   s.cfg.ProdID,
			Name:     s.cfg.CalendarName,
			Timezone: s.cfg.Timezone,
		})
	} else {
		body = res.ICal(s.cfg.ProdID)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resultFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		notFound(w, r)
		return
	}

	resp := healthResponse{
		Status:  "ok",
		Source:  s.cfg.SourceURL,
		Metrics: logger.GetMetricsSnapshot(),
	}
	s.mu.RLock()
	if s.result != nil {
		resp.Events = len(s.result.Events)
		resp.UpdatedAt = s.updatedAt
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Source    string                 `json:"source"`
	Events    int                    `json:"events"`
	UpdatedAt time.Time              `json:"updated_at"`
	Metrics   map[string]interface{} `json:"metrics"`
}

// resultFor handles method filtering, the range and q query parameters and
// build errors shared by the feed routes. It reports false when a response
// has already been written.
func (s *Server) resultFor(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	if r.Method != http.MethodGet {
		notFound(w, r)
		return nil, false
	}
	logger.IncrCounter("web.requests." + strings.TrimPrefix(r.URL.Path, "/"))

	f, err := filter.FromQuery(r.URL.Query())
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(err.Error()))
		return nil, false
	}

	res, err := s.Result(r.Context())
	if err != nil {
		status := errorStatus(err)
		logger.Error("building calendar failed", logger.Fields{
			"path":   r.URL.Path,
			"status": status,
		}, err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(http.StatusText(status)))
		return nil, false
	}
	return res.Filter(f), true
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write JSON response", nil, err)
	}
}
