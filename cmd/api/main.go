// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/dangerclosesec/studygroups"
	"github.com/dangerclosesec/studygroups/internal/audit"
	"github.com/dangerclosesec/studygroups/internal/auth"
	"github.com/dangerclosesec/studygroups/internal/config"
	"github.com/dangerclosesec/studygroups/internal/db"
	"github.com/dangerclosesec/studygroups/internal/email"
	"github.com/dangerclosesec/studygroups/internal/handler"
	"github.com/dangerclosesec/studygroups/internal/middleware"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/dangerclosesec/studygroups/internal/repository/memory"
	"github.com/dangerclosesec/studygroups/internal/serializer"
	"github.com/dangerclosesec/studygroups/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
}

// backend is the storage wiring selected by STORAGE_DRIVER
type backend struct {
	groups      repository.GroupRepositoryIface
	courses     repository.CourseRepositoryIface
	users       repository.UserRepositoryIface
	profiles    repository.ProfileRepositoryIface
	enrollments repository.EnrollmentRepositoryIface
	audit       audit.Logger
	close       func() error
}

func run() error {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     parseLevel(cfg.LogLevel),
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := setupBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setting up storage: %w", err)
	}
	defer store.close()

	// Initialize auth services
	passwordHasher := auth.NewPasswordHasher()
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod)

	// Initialize email service
	emailService, err := email.NewEmailService(cfg, email.Provider(cfg.Email.Provider), logger)
	if err != nil {
		return fmt.Errorf("initializing email service: %w", err)
	}

	// Signup codes live in the cache for the OTP TTL
	cacheService := service.NewCacheService(service.CacheConfig{
		TTL:         cfg.OTP.TTL,
		CleanupFreq: cfg.OTP.CleanupFreq,
	})
	defer cacheService.Close()

	userService := service.NewUserService(
		store.users,
		store.profiles,
		passwordHasher,
		tokenManager,
		emailService,
		cacheService,
		cfg,
	)
	directory := service.NewRepositoryDirectory(store.courses, store.users)
	membershipService := service.NewMembershipService(
		store.groups,
		directory,
		store.audit,
		logger,
	)
	enrollmentService := service.NewEnrollmentService(directory, store.enrollments)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService)
	groupHandler := handler.NewGroupHandler(membershipService, serializer.NewPresenter(store.users, store.profiles))
	courseHandler := handler.NewCourseHandler(store.courses, enrollmentService)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	limiter.StartPruning(ctx, time.Minute)

	// Create router
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.ClientIP)
	r.Use(loggingMiddleware(logger))
	r.Use(recoveryMiddleware(logger))
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Handler)

		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(chimw.AllowContentType("application/json"))

				r.Post("/signup/otp", authHandler.RequestOTPHandler)
				r.Post("/signup", authHandler.SignupHandler)
				r.Post("/login", authHandler.LoginHandler)
				r.Post("/password/reset/otp", authHandler.RequestPasswordResetHandler)
				r.Post("/password/reset", authHandler.ResetPasswordHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthMiddleware(tokenManager))

				r.Get("/me", authHandler.MeHandler)
				r.With(chimw.AllowContentType("application/json")).Put("/profile", authHandler.UpdateProfileHandler)
				r.With(chimw.AllowContentType("application/json")).Post("/password/verify", authHandler.VerifyPasswordHandler)
				r.With(chimw.AllowContentType("application/json")).Put("/password", authHandler.ChangePasswordHandler)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokenManager))

			r.Route("/groups", groupHandler.Routes)
			r.Route("/courses", courseHandler.Routes)
		})
	})

	// Create server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server error channel
	serverErrors := make(chan error, 1)

	// Start server
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "storage", cfg.Storage)
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for shutdown or error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("shutdown started")

		// Give outstanding requests a deadline for completion
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// If shutdown times out, forcefully close
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func setupBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		courses := memory.NewCourses()
		seed, err := studygroups.SeedCourses()
		if err != nil {
			return nil, err
		}
		if err := courses.Upsert(ctx, seed); err != nil {
			return nil, fmt.Errorf("seeding courses: %w", err)
		}

		groups := memory.NewStore()
		log.Warn("using in-memory storage, state is lost on restart")
		return &backend{
			groups:      groups,
			courses:     courses,
			users:       memory.NewUsers(),
			profiles:    memory.NewProfiles(),
			enrollments: memory.NewEnrollments(),
			audit:       audit.NewSlogLogger(log),
			close: func() error {
				groups.Close()
				return nil
			},
		}, nil

	case config.StoragePostgres:
		gdb, err := db.Open(ctx, cfg, gormlogger.Warn)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("getting database instance: %w", err)
		}
		return &backend{
			groups:      repository.NewGroupRepository(gdb),
			courses:     repository.NewCourseRepository(gdb),
			users:       repository.NewUserRepository(gdb),
			profiles:    repository.NewProfileRepository(gdb),
			enrollments: repository.NewEnrollmentRepository(gdb),
			audit:       service.NewGroupEventService(repository.NewGroupEventRepository(gdb)),
			close:       sqlDB.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Storage)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"duration", time.Since(start),
					"status", ww.Status(),
					"size", ww.BytesWritten(),
					"requestID", chimw.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func recoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						"error", errors.New("panic recovered"),
						"panic", rvr,
						"stack", string(debug.Stack()),
						"requestID", chimw.GetReqID(r.Context()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("{\"error\":\"error encountered\"}"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
