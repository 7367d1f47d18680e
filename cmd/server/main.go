package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-openapi/strfmt"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"subtracka/internal/auth"
	"subtracka/internal/config"
	httpGateway "subtracka/internal/gateways/http"
	"subtracka/internal/gateways/http/mw"
	"subtracka/internal/mailer"
	"subtracka/internal/repository/postgres"
	"subtracka/internal/usecase"
	"subtracka/internal/workflow/local"
	"subtracka/internal/workflow/qstash"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	log := setupLogger(cfg.Env)

	log.Info("starting subtracka", slog.String("env", cfg.Env))

	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		cfg.Pg.User,
		cfg.Pg.Password,
		cfg.Pg.Host,
		cfg.Pg.Port,
		cfg.Pg.Db)

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Error("failed to init storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	ur := postgres.NewUserRepository(pool)
	sr := postgres.NewSubRepository(pool)
	tm := auth.NewTokenManager(cfg.JWT)
	mail := mailer.NewSMTP(cfg.SMTP)
	clock := usecase.SystemClock{}

	// without a configured queue service the in-process scheduler stands in
	var wf usecase.WorkflowClient
	var sched *local.Scheduler
	if cfg.Workflow.URL != "" {
		wf = qstash.NewClient(cfg.Workflow)
	} else {
		sched = local.NewScheduler(log)
		wf = sched
	}

	rem := usecase.NewReminder(sr, wf, mail, clock, cfg.Reminders.DayOffsets, log)
	if sched != nil {
		sched.SetEvaluator(func(ctx context.Context, subID strfmt.UUID) error {
			_, err := rem.Evaluate(ctx, subID)
			return err
		})
		sched.SetEmailFunc(func(ctx context.Context, job usecase.EmailJob) error {
			return httpGateway.DispatchEmail(ctx, mail, job)
		})
		sched.Start()
		defer sched.Stop()
	}

	var limiter mw.Limiter
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
		})
		defer rdb.Close()
		limiter = mw.NewRedisLimiter(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	} else {
		limiter = mw.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	useCases := httpGateway.UseCases{
		Auth: usecase.NewAuth(ur, tm, wf, clock, cfg.Workflow.CallbackBase, log),
		User: usecase.NewUser(ur),
		Sub:  usecase.NewSubscription(sr, wf, rem, clock, log),
		Rem:  rem,
		Mail: mail,
	}

	server := httpGateway.New(useCases,
		*cfg,
		tm,
		limiter,
		log,
		httpGateway.WithHost(cfg.Server.Host),
		httpGateway.WithPort(uint16(cfg.Server.Port)),
		httpGateway.WithLogger(log),
		httpGateway.WithTimeout(cfg.Server.Timeout),
	)

	if err := server.Run(ctx); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func setupLogger(env string) *slog.Logger {
	switch strings.ToLower(env) {
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
