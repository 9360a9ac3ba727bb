// Package api serves the cryptolab REST interface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/engine"
	"github.com/RowanDark/cryptolab/internal/logging"
	"github.com/RowanDark/cryptolab/internal/observability/metrics"
)

const defaultMaxInputBytes = 32 * 1024

// Config configures the REST API server.
type Config struct {
	Addr string
	// AuthToken, when set, must be presented as a bearer token on every
	// /api/v1 route.
	AuthToken     string
	MaxInputBytes int
	Engine        *engine.Engine
	Recipes       *cipher.RecipeManager
	Audit         *logging.AuditLogger
	Logger        *slog.Logger
}

// Server exposes the cipher engine over HTTP.
type Server struct {
	cfg        Config
	engine     *engine.Engine
	recipes    *cipher.RecipeManager
	audit      *logging.AuditLogger
	logger     *slog.Logger
	router     *mux.Router
	httpServer *http.Server
}

// NewServer constructs a REST API server using the provided configuration.
func NewServer(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("api address must be provided")
	}
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Recipes == nil {
		cfg.Recipes = cipher.NewRecipeManager("")
	}
	if cfg.Audit == nil {
		cfg.Audit = logging.NewDiscardLogger("api")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	if cfg.MaxInputBytes <= 0 {
		cfg.MaxInputBytes = defaultMaxInputBytes
	}
	s := &Server{
		cfg:     cfg,
		engine:  cfg.Engine,
		recipes: cfg.Recipes,
		audit:   cfg.Audit,
		logger:  cfg.Logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.requireToken)

	v1.HandleFunc("/operations", s.handleListOperations).Methods(http.MethodGet)
	v1.HandleFunc("/execute", s.handleExecute).Methods(http.MethodPost)
	v1.HandleFunc("/pipeline", s.handlePipeline).Methods(http.MethodPost)

	v1.HandleFunc("/encode", s.handleEncode).Methods(http.MethodPost)
	v1.HandleFunc("/decode", s.handleDecode).Methods(http.MethodPost)
	v1.HandleFunc("/break", s.handleBreak).Methods(http.MethodPost)
	v1.HandleFunc("/pad", s.handlePad).Methods(http.MethodPost)

	v1.HandleFunc("/recipes", s.handleRecipeList).Methods(http.MethodGet)
	v1.HandleFunc("/recipes", s.handleRecipeSave).Methods(http.MethodPost)
	v1.HandleFunc("/recipes/{name}", s.handleRecipeGet).Methods(http.MethodGet)
	v1.HandleFunc("/recipes/{name}", s.handleRecipeDelete).Methods(http.MethodDelete)
	v1.HandleFunc("/recipes/{name}/run", s.handleRecipeRun).Methods(http.MethodPost)

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until the provided context is cancelled or a fatal error occurs.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	s.logger.Info("http api listening", slog.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return <-errCh
	case err := <-errCh:
		return err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		metrics.RecordRequest("http", r.Method+" "+route, strconv.Itoa(rec.status), elapsed)
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", elapsed),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("write response", slog.Any("error", err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON body capped at a size proportional to the input limit.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	limit := int64(s.cfg.MaxInputBytes)*8 + 64*1024
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// checkSize measures text in Latin-1 bytes, the form the ciphers consume.
func (s *Server) checkSize(w http.ResponseWriter, text string) bool {
	raw, err := bytecodec.Encode(text)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if len(raw) > s.cfg.MaxInputBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge, "input exceeds "+strconv.Itoa(s.cfg.MaxInputBytes)+" bytes")
		return false
	}
	return true
}
