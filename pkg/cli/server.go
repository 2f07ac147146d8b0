package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/cherry/pkg/store"
	"github.com/mchmarny/cherry/pkg/token"
	urfave "github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 60
	serverMaxHeaderBytes      = 20
	serverMaxBodyBytes        = 1 << 20
	serverPortDefault         = 8080
	serverAddressDefault      = "127.0.0.1"

	requestIDHeader = "X-Request-ID"

	portFlagName    = "port"
	addressFlagName = "address"
	watchFlagName   = "watch"
)

func newServerCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP classification server",
		Action:  cmdStartServer,
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  portFlagName,
				Usage: "Port on which the server will listen",
				Value: serverPortDefault,
			},
			&urfave.StringFlag{
				Name:  addressFlagName,
				Usage: "Address on which the server will listen",
				Value: serverAddressDefault,
			},
			&urfave.BoolFlag{
				Name:  watchFlagName,
				Usage: "Serve a language model from its file cache whenever the cache file is written",
			},
		},
	}
}

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Top      *int   `json:"top,omitempty"`
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdStartServer(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	address := fmt.Sprintf("%s:%d", cmd.String(addressFlagName), cmd.Int(portFlagName))

	reg := newRegistry(cfg)
	if cmd.Bool(watchFlagName) {
		if err := cfg.Cache.Watch(ctx, reg.reload); err != nil {
			return fmt.Errorf("watching model cache: %w", err)
		}
	}

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(cfg, reg),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("server started", "address", "http://"+address)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

// registry holds one classifier per language, loaded on first use and
// shared read-only by all requests. Keys are normalized language selectors.
type registry struct {
	cfg *appConfig

	mu    sync.RWMutex
	langs map[string]*classifier
}

func newRegistry(cfg *appConfig) *registry {
	return &registry{cfg: cfg, langs: make(map[string]*classifier)}
}

func normalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

func (r *registry) lookup(key string) (*classifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.langs[key]
	return c, ok
}

func (r *registry) get(lang string) (*classifier, error) {
	key := normalizeLanguage(lang)
	if c, ok := r.lookup(key); ok {
		return c, nil
	}

	// loaded without the lock, the first installed classifier wins
	c, err := newClassifier(r.cfg, key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.langs[key]; ok {
		return existing, nil
	}
	r.langs[key] = c
	return c, nil
}

// reload serves the file cache model of a language from now on. A cache
// that no longer loads evicts the language instead.
func (r *registry) reload(lang string) {
	key := normalizeLanguage(lang)
	tk, err := token.New(key)
	if err != nil {
		slog.Debug("ignoring cache change", "lang", key, "error", err)
		return
	}

	m, err := r.cfg.Cache.LoadModel(key)
	if err != nil {
		slog.Warn("cached model not loaded", "lang", key, "error", err)
		r.evict(key)
		return
	}

	r.mu.Lock()
	r.langs[key] = &classifier{lang: key, model: m, tk: tk}
	r.mu.Unlock()
	slog.Info("model reloaded from cache", "lang", key, "classes", m.NumClasses(), "terms", m.Vocabulary().Len())
}

// evict drops the loaded classifier of a language so the next request
// loads its model again.
func (r *registry) evict(lang string) {
	key := normalizeLanguage(lang)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.langs[key]; ok {
		delete(r.langs, key)
		slog.Info("model evicted", "lang", key)
	}
}

func makeRouter(cfg *appConfig, reg *registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /models", modelsAPIHandler(cfg))
	mux.HandleFunc("POST /classify", classifyAPIHandler(cfg, reg))
	return withRequestID(mux)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request", "id", id, "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
}

func modelsAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		list, err := store.ListModels(cfg.DB)
		if err != nil {
			slog.Error("failed to list models", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list models")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func classifyAPIHandler(cfg *appConfig, reg *registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClassifyRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, serverMaxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}

		lang := firstNonEmpty(req.Language, cfg.Language)
		c, err := reg.get(lang)
		if err != nil {
			if isUnavailable(err) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("no model for language: %s", lang))
				return
			}
			slog.Error("failed to load classifier", "lang", lang, "error", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		top := cfg.TopWords
		if req.Top != nil {
			top = *req.Top
		}

		res, err := c.classify(req.Text, top)
		if err != nil {
			slog.Error("failed to classify", "lang", lang, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to classify")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
