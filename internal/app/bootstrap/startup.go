// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/curelo/landingcms/internal/app/system/tasks"
	"github.com/curelo/landingcms/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It reports what the server will be serving (the users file and the
// currently published revision) and starts the background task runner.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Probe:   appCfg.TimeoutProbe,
		Read:    appCfg.TimeoutRead,
		Publish: appCfg.TimeoutPublish,
	})

	checkUsersFile(deps, appCfg, logger)

	ptr, err := deps.Content.Current(ctx)
	if err != nil {
		logger.Error("failed to read current site content", zap.Error(err))
		return err
	}
	if ptr == nil {
		logger.Info("no site content published yet; GET /api/cms serves an empty document")
	} else {
		logger.Info("serving published site content",
			zap.String("revision_id", ptr.RevisionID),
			zap.Int64("size_bytes", ptr.SizeBytes),
			zap.Time("updated_at", ptr.UpdatedAt),
			zap.String("updated_by", ptr.UpdatedBy))
	}

	startTaskRunner(deps, appCfg, logger)
	return nil
}

// checkUsersFile logs the state of the users file. A missing or broken
// file is not fatal: the public endpoints keep working and logins fail
// until it is fixed, since the file is re-read on every login.
func checkUsersFile(deps DBDeps, appCfg AppConfig, logger *zap.Logger) {
	users, err := deps.Users.All()
	if err != nil {
		logger.Warn("users file unavailable; admin login disabled until it is readable",
			zap.String("path", appCfg.UsersFile), zap.Error(err))
		return
	}
	admins := 0
	for _, u := range users {
		if u.Role == "admin" {
			admins++
		}
	}
	if admins == 0 {
		logger.Warn("users file has no admin; nobody can publish from the browser",
			zap.String("path", appCfg.UsersFile))
	}
	logger.Info("loaded users file",
		zap.String("path", appCfg.UsersFile),
		zap.Int("users", len(users)),
		zap.Int("admins", admins))
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(deps DBDeps, appCfg AppConfig, logger *zap.Logger) {
	taskRunner = tasks.New(logger)
	taskRunner.Register(tasks.ContentPruneJob(deps.Content, appCfg.ContentKeepRevisions, logger))
	taskRunner.Start()
}
