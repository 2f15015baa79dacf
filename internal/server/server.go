package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dreambig/dreambig-sg/internal/config"
	"github.com/dreambig/dreambig-sg/internal/imagen"
	"github.com/dreambig/dreambig-sg/internal/llm"
	"github.com/dreambig/dreambig-sg/internal/server/middleware"
	"github.com/dreambig/dreambig-sg/internal/server/ratelimit"
	"github.com/dreambig/dreambig-sg/internal/vertex"
)

// Login attempts allowed per client per minute.
const loginLimit = 10

// anonymousClient keys requests that carry no X-Forwarded-For header.
const anonymousClient = "anonymous"

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	config       *config.Config
	imagen       *imagen.Service
	authHandler  *AuthHandler
	jwtService   *JWTService
	rateLimiter  ratelimit.Limiter
	loginLimiter ratelimit.Limiter
	closers      []func()
}

// Options holds the server configuration and its collaborators.
type Options struct {
	Port   int
	Config *config.Config

	// Limiter guards POST /api/imagen; LoginLimiter guards POST /api/login.
	// Either may be nil to disable limiting.
	Limiter      ratelimit.Limiter
	LoginLimiter ratelimit.Limiter

	// Describer is the vision model. Nil skips the vision step.
	Describer imagen.SubjectDescriber
	Predictor imagen.Predictor

	Credentials *config.Credentials
	JWT         *JWTService
}

// New creates a server from fully built collaborators.
func New(opts Options) *Server {
	s := &Server{
		config:       opts.Config,
		imagen:       imagen.NewService(opts.Config, opts.Limiter, opts.Describer, opts.Predictor),
		jwtService:   opts.JWT,
		rateLimiter:  opts.Limiter,
		loginLimiter: opts.LoginLimiter,
	}
	s.authHandler = NewAuthHandler(opts.Credentials, opts.JWT, opts.LoginLimiter)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: vertex.DefaultTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// NewFromConfig builds the production collaborators for cfg: the rate
// limiters, the Gemini vision client (when a key is configured), the
// Vertex AI client and the login credential.
func NewFromConfig(ctx context.Context, port int, cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if missing := cfg.ValidateEnvironment(); len(missing) > 0 {
		// Not fatal: /api/imagen answers 500 until the settings exist.
		log.Printf("[server] missing settings: %s", strings.Join(missing, ", "))
	}

	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	limitConfig := ratelimit.LoadConfig()
	limiter, err := ratelimit.New(ctx, limitConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	closers = append(closers, limiter.Stop)

	loginLimiter, err := ratelimit.New(ctx, limitConfig.Derive("login", loginLimit, time.Minute))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create login rate limiter: %w", err)
	}
	closers = append(closers, loginLimiter.Stop)

	var describer imagen.SubjectDescriber
	if cfg.GeminiAPIKey != "" {
		llmConfig := llm.DefaultGeminiConfig().WithModel(llm.TierVision, cfg.VisionModel)
		client, err := llm.NewClient(ctx, llmConfig, cfg.GeminiAPIKey)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create vision client: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		describer = client
	} else {
		log.Printf("[server] GEMINI_API_KEY not set, photo analysis disabled")
	}

	predictor := vertex.NewClient(vertex.Options{
		ProjectID:       cfg.ProjectID,
		Region:          cfg.Region,
		CredentialsJSON: cfg.CredentialsJSON,
		CredentialsFile: cfg.CredentialsFile,
	})

	passwords, err := config.NewPasswordConfig()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	credentials, err := config.NewCredentials(passwords)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create login credentials: %w", err)
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s := New(Options{
		Port:         port,
		Config:       cfg,
		Limiter:      limiter,
		LoginLimiter: loginLimiter,
		Describer:    describer,
		Predictor:    predictor,
		Credentials:  credentials,
		JWT:          NewJWTService(jwtConfig),
	})
	s.closers = closers
	return s, nil
}

// Handler returns the routed handler with logging and CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var imagenHandler http.Handler = http.HandlerFunc(s.handleImagen)
	if s.config != nil && s.config.RequireAuth && s.jwtService != nil {
		imagenHandler = middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(imagenHandler)
	}
	mux.Handle("POST /api/imagen", imagenHandler)
	mux.HandleFunc("GET /api/imagen", s.handleImagenMethodNotAllowed)

	mux.HandleFunc("POST /api/login", s.authHandler.Login)

	mux.HandleFunc("GET /api/locations", s.handleLocations)
	mux.HandleFunc("GET /api/careers", s.handleCareers)
	mux.HandleFunc("GET /api/missions", s.handleMissions)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withLogging(s.withCORS(mux))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("[server] starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("[server] shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.Close()
	log.Println("[server] stopped")
	return err
}

// Close releases the limiters and upstream clients.
func (s *Server) Close() {
	for _, c := range s.closers {
		c()
	}
	s.closers = nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to its status and client-facing body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[server] request failed: %v", err)
	}
	s.jsonResponse(w, status, errorBody(err))
}

// clientID is the first X-Forwarded-For entry, or "anonymous".
func clientID(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return anonymousClient
	}
	first, _, _ := strings.Cut(forwarded, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return anonymousClient
}
