// lifecycle-service
//
// Status lifecycle engine for job postings and job applications.
// Exposes a REST API used by the Gateway and a gRPC StatusService for
// internal callers:
//   - update job status:         PUBLISH, CLOSE_FOR_APPLICATION, ... on a job
//   - update application status: SHORTLIST, REJECT, ... on an application
//   - available actions:         read-only helper for UIs
//
// Every application change queues an email to the applicant.
// Publishes EVENT_JOB_STATUS_CHANGED / EVENT_APPLICATION_STATUS_CHANGED to Redis.
// A cron sweep closes applications on published jobs past their deadline.
package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobboard/lifecycle-service/internal/config"
	"jobboard/lifecycle-service/internal/logging"
)

const (
	serviceName = "lifecycle-service"
	version     = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:     serviceName,
	Short:   "Job and application status lifecycle service",
	Version: version,
	// Running without a subcommand starts the API servers.
	RunE: func(cmd *cobra.Command, args []string) error { return runServe(cmd) },
}

func init() {
	rootCmd.AddCommand(serveCmd, dispatchCmd)
	rootCmd.SilenceUsage = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads config and builds the logger shared by every subcommand.
func bootstrap() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "config error")
	}
	log, err := logging.New(cfg.Env, serviceName)
	if err != nil {
		return nil, nil, errors.Wrap(err, "logger")
	}
	return cfg, log, nil
}
