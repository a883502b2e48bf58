package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/auth"
	"hrpay/internal/domain/compensation"
	"hrpay/internal/domain/currency"
	"hrpay/internal/domain/payrun"
	"hrpay/internal/domain/statutory"
	"hrpay/internal/platform/config"
	"hrpay/internal/platform/db"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/platform/metrics"
	"hrpay/internal/transport/http/api"
	attendancehandler "hrpay/internal/transport/http/handlers/attendance"
	compensationhandler "hrpay/internal/transport/http/handlers/compensation"
	payrollhandler "hrpay/internal/transport/http/handlers/payroll"
	"hrpay/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Metrics *metrics.Collector
	Jobs    *jobs.Service
}

// New builds the application. The database is optional: without
// DATABASE_URL only inline calculations and runs are served.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Metrics: metrics.New()}
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL, int32(max(cfg.PayrollWorkers*2, 4)))
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		app.DB = pool
	}

	var (
		store    payrun.StoreAPI
		auditor  payrun.Auditor
		recorder jobs.Recorder
	)
	if app.DB != nil {
		store = payrun.NewStore(app.DB)
		auditor = audit.New(app.DB)
		recorder = jobs.NewStore(app.DB)
	}
	app.Jobs = jobs.New(recorder, cfg.JobTimeout)

	calc := compensation.NewCalculator(statutory.DefaultRegistry(uaeRules(cfg)))
	policy := compensation.AttendancePolicy{
		StandardHoursPerDay: cfg.StandardHoursPerDay,
		WorkingDaysPerMonth: cfg.WorkingDaysPerMonth,
		OvertimeMultiplier:  cfg.OvertimeMultiplier,
	}
	payruns := payrun.NewService(store, payrun.NewRunner(calc, policy, cfg.PayrollWorkers), auditor, app.Metrics)
	currencies := currency.DefaultConfig()
	perms := auth.StaticPermissions{}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(app.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Production()))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if app.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := app.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, app.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		compensationHandler := compensationhandler.NewHandler(calc, currencies, perms, app.Metrics)
		compensationHandler.RegisterRoutes(r)

		attendanceHandler := attendancehandler.NewHandler(perms)
		attendanceHandler.RegisterRoutes(r)

		payrollHandler := payrollhandler.NewHandler(payruns, app.Jobs, currencies, perms, cfg.RateLimitPerMinute)
		payrollHandler.RegisterRoutes(r)
	})

	app.Router = router
	return app, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func Run() {
	cfg := config.Load()
	level := slog.LevelInfo
	if !cfg.Production() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("payroll server listening", "addr", cfg.Addr, "database", app.DB != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown failed", "err", err)
	}
	stop()
	app.Jobs.Wait()
	slog.Info("payroll server stopped")
}

func uaeRules(cfg config.Config) statutory.UAERules {
	rules := statutory.DefaultUAERules()
	rules.FirstYearsDays = decimal.NewFromInt(int64(cfg.UAEGratuityFirstDays))
	rules.LaterDays = decimal.NewFromInt(int64(cfg.UAEGratuityLaterDays))
	rules.FirstYearsSpan = cfg.UAEGratuityFirstYears
	rules.AirTicketAnnualFare = cfg.UAEAirTicketAnnualFare
	return rules
}
