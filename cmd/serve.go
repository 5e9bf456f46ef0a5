package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	"jobboard/lifecycle-service/internal/config"
	"jobboard/lifecycle-service/internal/db"
	"jobboard/lifecycle-service/internal/grpcserver"
	"jobboard/lifecycle-service/internal/httpapi"
	"jobboard/lifecycle-service/internal/notify"
	"jobboard/lifecycle-service/internal/scheduler"
	"jobboard/lifecycle-service/internal/status"
	"jobboard/lifecycle-service/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC APIs and the deadline sweep",
	RunE:  func(cmd *cobra.Command, args []string) error { return runServe(cmd) },
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Info("connecting to PostgreSQL")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, log)
	if err != nil {
		return errors.Wrap(err, "postgres")
	}
	defer pool.Close()
	log.Info("PostgreSQL connected")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		return errors.Wrap(err, "redis")
	}
	defer rdb.Close()
	log.Info("Redis connected")

	// ── Services ─────────────────────────────────────────────────────────────
	mailer, err := buildMailer(cfg, rdb, log)
	if err != nil {
		return err
	}
	async := notify.NewAsync(mailer, cfg.NotifyTimeout, log)
	events := async.Publisher(notify.NewEventPublisher(rdb))

	jobs := status.NewJobService(store.NewJobStore(pool), events, log)
	apps := status.NewApplicationService(store.NewApplicationStore(pool), async, events, log)

	// ── Deadline sweep ───────────────────────────────────────────────────────
	sweep := scheduler.New(jobs, cfg.DeadlineSweepSpec, log)
	if err := sweep.Start(ctx); err != nil {
		return err
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpapi.NewHandler(jobs, apps, log, limiter).Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return errors.Wrapf(err, "listen on gRPC port %s", cfg.GRPCPort)
	}
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.UnaryLogger(log)))
	grpcserver.Register(grpcSrv, grpcserver.NewServer(jobs, apps, log))

	errc := make(chan error, 2)
	go func() {
		log.Infow("HTTP listening", "port", cfg.HTTPPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- errors.Wrap(err, "HTTP server")
		}
	}()
	go func() {
		log.Infow("gRPC listening", "port", cfg.GRPCPort)
		if err := grpcSrv.Serve(lis); err != nil {
			errc <- errors.Wrap(err, "gRPC server")
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
		log.Errorw("server failed", "err", runErr)
	}

	log.Info("shutting down")
	shutdown(srv, grpcSrv, sweep, async, log)
	log.Info("stopped")
	return runErr
}

func shutdown(srv *http.Server, grpcSrv *grpc.Server, sweep *scheduler.Scheduler, async *notify.Async, log *zap.SugaredLogger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP shutdown error", "err", err)
	}

	done := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		grpcSrv.Stop()
	}

	sweep.Stop()
	async.Wait()
}

func buildMailer(cfg *config.Config, rdb *redis.Client, log *zap.SugaredLogger) (notify.Mailer, error) {
	switch cfg.MailTransport {
	case config.MailSMTP:
		return notify.NewSMTPMailer(smtpConfig(cfg))
	case config.MailLog:
		return notify.NewLogMailer(log), nil
	default:
		return notify.NewRedisMailer(rdb, cfg.MailQueue, log), nil
	}
}

func smtpConfig(cfg *config.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		From:     cfg.MailFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	}
}
