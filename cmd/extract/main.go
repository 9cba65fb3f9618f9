// cmd/extract/main.go
package main

import (
	"context"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/josefarias3108/projeto-jus/pkg/audit"
	"github.com/josefarias3108/projeto-jus/pkg/cleaner"
	"github.com/josefarias3108/projeto-jus/pkg/config"
	"github.com/josefarias3108/projeto-jus/pkg/connector"
	"github.com/josefarias3108/projeto-jus/pkg/extractor"
	"github.com/josefarias3108/projeto-jus/pkg/runner"
	"github.com/josefarias3108/projeto-jus/pkg/snapshot"
)

// The process exits 0 on any completion, including partial per-table
// failures; outcomes are reported through the logs and the audit table,
// not exit codes.
func main() {
	// .env is optional; deployments may set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Error("Failed to load configuration", zap.Error(err))
		return
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Error("Failed to initialize logger", zap.Error(err))
		return
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Validated extraction failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	conn, err := connector.NewPostgresConnector(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer conn.Close()

	return runWith(ctx, conn, cfg, logger)
}

func runWith(ctx context.Context, conn connector.DatabaseConnector, cfg *config.Config, logger *zap.Logger) error {
	if err := conn.Validate(); err != nil {
		return err
	}

	store, err := audit.NewStore(conn.DB(), logger.Named("audit"))
	if err != nil {
		return err
	}
	if err := store.EnsureTable(ctx); err != nil {
		return err
	}

	// From here on failures can be recorded at system scope.
	fail := func(cause error) error {
		if logErr := runner.RecordSystemError(ctx, store, cause); logErr != nil {
			logger.Error("Failed to record system error", zap.Error(logErr))
		}
		return cause
	}

	dataCleaner, err := cleaner.NewDataCleaner(store, logger.Named("cleaner"))
	if err != nil {
		return fail(err)
	}

	fetcher, err := extractor.NewExtractor(conn.DB(), cfg.QueryTimeout, logger.Named("extractor"))
	if err != nil {
		return fail(err)
	}

	writer, err := snapshot.NewWriter(cfg.OutputDir, logger.Named("snapshot"))
	if err != nil {
		return fail(err)
	}

	driver, err := runner.NewRunner(fetcher, dataCleaner, writer, store, logger.Named("runner"))
	if err != nil {
		return fail(err)
	}

	summary, err := driver.Run(ctx)
	if err != nil {
		return fail(err)
	}

	logger.Info("Snapshot files available",
		zap.String("directory", cfg.OutputDir),
		zap.String("report", summary.ReportFile),
		zap.Int("tables_succeeded", summary.TablesSucceeded),
		zap.Int("tables_total", summary.TablesTotal))
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
