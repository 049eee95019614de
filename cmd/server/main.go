package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/slot-booking/internal/cache"
	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/database"
	"github.com/iliyamo/slot-booking/internal/email"
	"github.com/iliyamo/slot-booking/internal/handler"
	"github.com/iliyamo/slot-booking/internal/logger"
	"github.com/iliyamo/slot-booking/internal/metrics"
	"github.com/iliyamo/slot-booking/internal/middleware"
	"github.com/iliyamo/slot-booking/internal/notify"
	"github.com/iliyamo/slot-booking/internal/queue"
	"github.com/iliyamo/slot-booking/internal/repository"
	"github.com/iliyamo/slot-booking/internal/router"
	"github.com/iliyamo/slot-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, closer, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closer.Close()
	slog.SetDefault(lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		lg.Error("open database", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		lg.Error("migrate", "err", err)
		os.Exit(1)
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
		lg.Info("redis connected", "addr", cfg.Redis.Addr)
	} else if cfg.Redis.Addr != "" {
		lg.Warn("redis unreachable; rate limiting and cache disabled", "addr", cfg.Redis.Addr)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	dispatcher := notify.NewDispatcher(notificationSink(cfg, lg), cfg.Notify.QueueSize, cfg.Notify.Timeout, lg.With("component", "notify"), m)
	go dispatcher.Run()

	opts := []service.Option{
		service.WithNotifier(dispatcher, cfg.Email.Owner),
		service.WithRecorder(m),
		service.WithLogger(lg.With("component", "service")),
	}
	if c := cache.NewAvailability(cfg.Cache, rdb); c != nil {
		opts = append(opts, service.WithCache(c))
	}
	svc := service.NewBookingService(repository.NewBookingRepo(db), cfg.Catalog(), opts...)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "ip", v.RemoteIP}
			if v.Error != nil {
				lg.Error("request", append(attrs, "err", v.Error)...)
			} else {
				lg.Info("request", attrs...)
			}
			return nil
		},
	}))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db}, m.Handler())
	router.RegisterPublic(e, handler.NewBookingHandler(svc, lg.With("component", "http")), middleware.NewTokenBucket(cfg.RateLimit, rdb, lg.With("component", "ratelimit")))
	router.RegisterAdmin(e, handler.NewAdminHandler(svc, cfg.Admin, lg.With("component", "http")), cfg.Admin)

	addr := ":" + cfg.Port
	go func() {
		lg.Info("listening", "addr", addr, "env", cfg.Env, "db", cfg.DBDriver, "notify", cfg.Notify.Transport)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", "err", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		lg.Warn("notification queue not drained", "err", err)
	}
}

func loadConfig() (config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// notificationSink picks where notifications go.  It returns nil, which
// disables notifications, when the chosen transport is not configured.
func notificationSink(cfg config.Config, lg *slog.Logger) notify.Sink {
	switch cfg.Notify.Transport {
	case config.TransportRabbitMQ:
		lg.Info("notifications published to rabbitmq", "queue", cfg.Notify.Queue)
		return queue.NewPublisher(cfg.Notify.RabbitURL, cfg.Notify.Queue)
	default:
		s := email.NewSender(cfg.Email, cfg.Notify.Timeout)
		if s == nil {
			lg.Info("email not configured; notifications disabled")
			return nil
		}
		return s
	}
}
