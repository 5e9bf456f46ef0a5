package main

import (
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jobboard/lifecycle-service/internal/db"
	"jobboard/lifecycle-service/internal/notify"
)

var dispatchCmd = &cobra.Command{
	Use:   "mail-dispatcher",
	Short: "Drain the Redis mail queue through SMTP",
	Long: `Consumes messages queued by the API (MAIL_TRANSPORT=redis) and delivers
them through the relay in SMTP_ADDR. Without SMTP_ADDR messages are logged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return errors.Wrap(err, "redis")
		}
		defer rdb.Close()

		var sink notify.Mailer
		if cfg.SMTPAddr != "" {
			if sink, err = notify.NewSMTPMailer(smtpConfig(cfg)); err != nil {
				return err
			}
		} else {
			log.Warn("SMTP_ADDR not set; queued mail will only be logged")
			sink = notify.NewLogMailer(log)
		}

		notify.NewDispatcher(rdb, cfg.MailQueue, sink, log).Run(ctx)
		return nil
	},
}
