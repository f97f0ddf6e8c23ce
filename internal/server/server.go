// Package server exposes the local journal as a read-only JSON feed for
// widgets and dashboards on the same network.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/julianstephens/ibadah/internal/journal"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/metrics"
	"github.com/julianstephens/ibadah/internal/recap"
	"github.com/julianstephens/ibadah/internal/streak"
	"github.com/julianstephens/ibadah/internal/utils"
)

type Options struct {
	Today             func() string
	Metrics           *metrics.Metrics
	RequestsPerSecond float64
	AllowedOrigins    []string
}

const (
	visitorIdleTTL  = 3 * time.Minute
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Server struct {
	journal *journal.Journal
	opts    Options
	now     func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

func New(j *journal.Journal, opts Options) *Server {
	if opts.Today == nil {
		opts.Today = func() string { return utils.DayKey(time.Now()) }
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{journal: j, opts: opts, now: time.Now, visitors: make(map[string]*visitor)}
}

// Handler builds the routed, rate limited and CORS wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", s.opts.Metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.rateLimit)
	api.Use(s.opts.Metrics.Middleware(routeTemplate))
	api.HandleFunc("/summary", s.summary).Methods(http.MethodGet)
	api.HandleFunc("/days/{date}", s.day).Methods(http.MethodGet)
	api.HandleFunc("/fasting", s.fasting).Methods(http.MethodGet)
	api.HandleFunc("/recap", s.recap).Methods(http.MethodGet)

	return handlers.CORS(
		handlers.AllowedOrigins(s.opts.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.cleanupVisitors(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("feed server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
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
	logger.Info("feed server stopped")
	return nil
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.RequestsPerSecond > 0 && !s.limiter(r).Allow() {
			respondWithError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiter(r *http.Request) *rate.Limiter {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visitors[ip]
	if !ok {
		burst := int(s.opts.RequestsPerSecond * 2)
		if burst < 1 {
			burst = 1
		}
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.opts.RequestsPerSecond), burst)}
		s.visitors[ip] = v
	}
	v.lastSeen = s.now()
	return v.limiter
}

func (s *Server) cleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictIdle(visitorIdleTTL); n > 0 {
				logger.Debug("evicted idle rate limit entries", "count", n)
			}
		}
	}
}

// evictIdle drops limiters not used within ttl and returns how many went.
func (s *Server) evictIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-ttl)
	n := 0
	for ip, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, ip)
			n++
		}
	}
	return n
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.journal.Summary.Load())
}

type dayResponse struct {
	Date     string      `json:"date"`
	Progress int         `json:"progress"`
	Fasted   bool        `json:"fasted"`
	Stored   bool        `json:"stored"`
	Tasks    interface{} `json:"tasks"`
}

func (s *Server) day(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if err := utils.ValidateDayKey(date); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if utils.IsAfter(date, s.opts.Today()) {
		respondWithError(w, http.StatusNotFound, "date is in the future")
		return
	}
	rec := s.journal.Days.Load(date)
	respondWithJSON(w, http.StatusOK, dayResponse{
		Date:     rec.Date,
		Progress: rec.Progress,
		Fasted:   s.journal.Fasting.Contains(date),
		Stored:   s.journal.Days.Has(date),
		Tasks:    rec.Tasks,
	})
}

type fastingResponse struct {
	Dates         []string `json:"dates"`
	CurrentStreak int      `json:"currentStreak"`
	LongestStreak int      `json:"longestStreak"`
}

func (s *Server) fasting(w http.ResponseWriter, r *http.Request) {
	dates := s.journal.Fasting.Dates()
	respondWithJSON(w, http.StatusOK, fastingResponse{
		Dates:         dates,
		CurrentStreak: streak.CurrentFromDates(dates, s.opts.Today()),
		LongestStreak: streak.Longest(dates),
	})
}

func (s *Server) recap(w http.ResponseWriter, r *http.Request) {
	rc, err := recap.Build(s.journal, s.opts.Today())
	if err != nil {
		logger.Warn("recap failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "failed to build recap")
		return
	}
	respondWithJSON(w, http.StatusOK, rc)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
