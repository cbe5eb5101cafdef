// Package httpapi exposes the binrange store over the 3DS Server REST
// surface.
//
// Routes:
//
//	POST /api/3ds/store        store a PRes message of card ranges
//	POST /api/3ds/store-times  same, with decode/store timing in the reply
//	GET  /api/3ds/method-url   look up the card range for ?pan=
//	POST /api/3ds/reset        drop all stored ranges
//
// Error responses always carry the JSON body
// {timestamp, status, error, message, path}.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/binrange"
	"github.com/hupe1980/binrange/codec"
)

// DefaultMaxBodyBytes caps PRes request bodies. Production feeds reach
// hundreds of megabytes for full-network range files.
const DefaultMaxBodyBytes int64 = 512 << 20

// Options configures a Server.
type Options struct {
	// Codec decodes PRes payloads. Defaults to codec.Default.
	Codec codec.Codec

	// Logger receives request and timing records. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// RateLimit caps accepted requests per second; Burst is the bucket
	// size. A zero RateLimit disables limiting.
	RateLimit float64
	Burst     int

	// MaxBodyBytes caps request body size. Values < 1 fall back to
	// DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Server serves the 3DS card range API over a binrange.Store.
type Server struct {
	store   *binrange.Store
	codec   codec.Codec
	logger  *slog.Logger
	limiter *rate.Limiter
	maxBody int64
}

// New creates a Server around store.
func New(store *binrange.Store, optFns ...func(*Options)) *Server {
	opts := Options{
		Codec:        codec.Default,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes < 1 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		store:   store,
		codec:   opts.Codec,
		logger:  opts.Logger,
		maxBody: opts.MaxBodyBytes,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the fully wired http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/3ds/store", s.route(http.MethodPost, s.handleStore))
	mux.HandleFunc("/api/3ds/store-times", s.route(http.MethodPost, s.handleStoreTimes))
	mux.HandleFunc("/api/3ds/method-url", s.route(http.MethodGet, s.handleMethodURL))
	mux.HandleFunc("/api/3ds/reset", s.route(http.MethodPost, s.handleReset))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "Not Found", "The requested path does not exist.")
	})

	return s.withRequestLog(s.withRateLimit(mux))
}

// route dispatches to h for the expected method and answers everything
// else with a JSON 405, matching the rest of the error surface.
func (s *Server) route(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			s.writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed",
				"Request method '"+r.Method+"' is not supported")
			return
		}
		h(w, r)
	}
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.writeError(w, r, http.StatusTooManyRequests, "Too Many Requests",
				"Request rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.logger.InfoContext(r.Context(), "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
