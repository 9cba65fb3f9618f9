// pkg/runner/runner.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/josefarias3108/projeto-jus/pkg/audit"
	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// TableFetcher reads tables from the relational store.
type TableFetcher interface {
	FetchTable(ctx context.Context, name string) (*model.Dataset, error)
	CountRows(ctx context.Context, name string) (int64, error)
}

// DatasetCleaner validates and cleans one dataset.
type DatasetCleaner interface {
	ValidateAndClean(ctx context.Context, ds *model.Dataset, spec model.TableSpec) (model.CleaningStats, error)
	VerifyClean(ds *model.Dataset, spec model.TableSpec) (int, int)
}

// SnapshotWriter persists cleaned datasets and the audit report.
type SnapshotWriter interface {
	WriteDataset(ds *model.Dataset) (string, int64, error)
	WriteAuditReport(entries []audit.Entry) (string, error)
}

// AuditStore is the audit log contract the driver needs.
type AuditStore interface {
	Append(ctx context.Context, entry audit.Entry) error
	EntriesSince(ctx context.Context, since time.Time) ([]audit.Entry, error)
	Now(ctx context.Context) (time.Time, error)
}

// Runner drives the validated extraction over the table catalog, one table
// at a time. Failures are isolated at table granularity: a failing table is
// logged as an ERRO audit entry and the run continues with the next one.
type Runner struct {
	catalog  []model.TableSpec
	fetcher  TableFetcher
	cleaner  DatasetCleaner
	writer   SnapshotWriter
	auditLog AuditStore
	logger   *zap.Logger
}

// NewRunner creates a runner over the default catalog.
func NewRunner(
	fetcher TableFetcher,
	cleaner DatasetCleaner,
	writer SnapshotWriter,
	auditLog AuditStore,
	logger *zap.Logger,
) (*Runner, error) {
	return NewRunnerWithCatalog(model.DefaultCatalog(), fetcher, cleaner, writer, auditLog, logger)
}

// NewRunnerWithCatalog creates a runner over a custom catalog.
func NewRunnerWithCatalog(
	catalog []model.TableSpec,
	fetcher TableFetcher,
	cleaner DatasetCleaner,
	writer SnapshotWriter,
	auditLog AuditStore,
	logger *zap.Logger,
) (*Runner, error) {
	if fetcher == nil {
		return nil, errors.New("table fetcher cannot be nil")
	}
	if cleaner == nil {
		return nil, errors.New("dataset cleaner cannot be nil")
	}
	if writer == nil {
		return nil, errors.New("snapshot writer cannot be nil")
	}
	if auditLog == nil {
		return nil, errors.New("audit log cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Runner{
		catalog:  catalog,
		fetcher:  fetcher,
		cleaner:  cleaner,
		writer:   writer,
		auditLog: auditLog,
		logger:   logger,
	}, nil
}

// Run processes the whole catalog sequentially and returns the run summary.
// Per-table failures do not fail the run; an error is returned only when the
// run could not start at all.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	// The report window is bounded by the store's clock, which stamps
	// data_execucao; the local clock is only a fallback.
	start, err := r.auditLog.Now(ctx)
	if err != nil {
		r.logger.Warn("Failed to read audit store clock, using local time", zap.Error(err))
		start = time.Now()
	}
	runID := uuid.New().String()
	logger := r.logger.With(zap.String("run_id", runID))
	summary := &Summary{RunID: runID, TablesTotal: len(r.catalog)}

	logger.Info("Starting validated extraction", zap.Int("tables", len(r.catalog)))

	err = r.auditLog.Append(ctx, audit.Entry{
		Table:   audit.SystemScope,
		Action:  audit.ActionStart,
		Status:  audit.StatusSuccess,
		Details: fmt.Sprintf("Iniciando processo de extração validada (execução %s)", runID),
	})
	if err != nil {
		return summary, fmt.Errorf("failed to record run start: %w", err)
	}

	for _, spec := range r.catalog {
		result := r.processTable(ctx, spec, logger)
		summary.Tables = append(summary.Tables, result)

		if result.Err != nil {
			logger.Error("Table processing failed",
				zap.String("table", result.Err.Table),
				zap.String("stage", string(result.Err.Stage)),
				zap.Error(result.Err.Err))
			r.recordTableError(ctx, result.Err, logger)
			continue
		}

		summary.TablesSucceeded++
		summary.RowsInitial += result.Stats.RowsInitial
		summary.RowsFinal += result.Stats.RowsFinal
		summary.DuplicatesRemoved += result.Stats.DuplicatesRemoved
		summary.NullsTreated += result.Stats.NullsTreated
	}

	r.logDatabaseCounts(ctx, logger)

	reportFile, err := r.writeLogReport(ctx, start)
	if err != nil {
		logger.Error("Failed to write audit log report", zap.Error(err))
	}
	summary.ReportFile = reportFile

	rate := summary.SuccessRate()
	endStatus := audit.StatusSuccess
	if rate < 100 {
		endStatus = audit.StatusWarning
	}
	err = r.auditLog.Append(ctx, audit.Entry{
		Table:             audit.SystemScope,
		Action:            audit.ActionEnd,
		RowsProcessed:     summary.RowsFinal,
		DuplicatesRemoved: summary.DuplicatesRemoved,
		NullsTreated:      summary.NullsTreated,
		Status:            endStatus,
		Details:           fmt.Sprintf("Extração concluída: %.1f%% de sucesso", rate),
	})
	if err != nil {
		logger.Error("Failed to record run end", zap.Error(err))
	}

	logger.Info("Validated extraction complete",
		zap.Int("tables_succeeded", summary.TablesSucceeded),
		zap.Int("tables_total", summary.TablesTotal),
		zap.Int("rows_initial", summary.RowsInitial),
		zap.Int("rows_final", summary.RowsFinal),
		zap.Int("duplicates_removed", summary.DuplicatesRemoved),
		zap.Int("nulls_treated", summary.NullsTreated),
		zap.Float64("success_rate", rate))

	return summary, nil
}

// processTable runs the per-table pipeline: extract, clean, verify, write,
// record the extraction audit entry.
func (r *Runner) processTable(ctx context.Context, spec model.TableSpec, logger *zap.Logger) TableResult {
	result := TableResult{Table: spec.Name}
	logger.Info("Processing table", zap.String("table", spec.Name))

	ds, err := r.fetcher.FetchTable(ctx, spec.Name)
	if err != nil {
		result.Err = &TableError{Table: spec.Name, Stage: StageExtract, Err: err}
		return result
	}

	stats, err := r.cleaner.ValidateAndClean(ctx, ds, spec)
	if err != nil {
		result.Err = &TableError{Table: spec.Name, Stage: StageClean, Err: err}
		return result
	}
	result.Stats = stats

	// Final integrity re-check before the snapshot is written.
	if dups, nulls := r.cleaner.VerifyClean(ds, spec); dups > 0 || nulls > 0 {
		logger.Warn("Residual quality issues after cleaning",
			zap.String("table", spec.Name),
			zap.Int("duplicates", dups),
			zap.Int("nulls", nulls))
	}

	path, size, err := r.writer.WriteDataset(ds)
	if err != nil {
		result.Err = &TableError{Table: spec.Name, Stage: StageWrite, Err: err}
		return result
	}
	result.OutputFile = filepath.Base(path)
	result.SizeBytes = size

	err = r.auditLog.Append(ctx, audit.Entry{
		Table:             spec.Name,
		Action:            audit.ActionExtraction,
		RowsProcessed:     stats.RowsFinal,
		DuplicatesFound:   stats.DuplicatesFound,
		NullsFound:        stats.NullsFound,
		DuplicatesRemoved: stats.DuplicatesRemoved,
		NullsTreated:      stats.NullsTreated,
		Status:            audit.StatusSuccess,
		Details:           fmt.Sprintf("Arquivo CSV gerado com %d registros válidos", stats.RowsFinal),
		OutputFile:        result.OutputFile,
	})
	if err != nil {
		result.Err = &TableError{Table: spec.Name, Stage: StageAudit, Err: err}
		return result
	}

	return result
}

// recordTableError writes the ERRO audit entry for a failed table. Audit
// failures here are logged and swallowed so the loop keeps going.
func (r *Runner) recordTableError(ctx context.Context, tErr *TableError, logger *zap.Logger) {
	err := r.auditLog.Append(ctx, audit.Entry{
		Table:   tErr.Table,
		Action:  audit.ActionError,
		Status:  audit.StatusError,
		Details: fmt.Sprintf("Erro na etapa %s: %v", tErr.Stage, tErr.Err),
	})
	if err != nil {
		logger.Error("Failed to record table error",
			zap.String("table", tErr.Table),
			zap.Error(err))
	}
}

// logDatabaseCounts logs the current row counts of every catalog table.
func (r *Runner) logDatabaseCounts(ctx context.Context, logger *zap.Logger) {
	for _, spec := range r.catalog {
		count, err := r.fetcher.CountRows(ctx, spec.Name)
		if err != nil {
			logger.Warn("Failed to count table rows",
				zap.String("table", spec.Name),
				zap.Error(err))
			continue
		}
		logger.Info("Database table size",
			zap.String("table", spec.Name),
			zap.Int64("rows", count))
	}
}

// writeLogReport snapshots the audit entries recorded during this run.
func (r *Runner) writeLogReport(ctx context.Context, since time.Time) (string, error) {
	entries, err := r.auditLog.EntriesSince(ctx, since)
	if err != nil {
		return "", err
	}
	path, err := r.writer.WriteAuditReport(entries)
	if err != nil {
		return "", err
	}
	return filepath.Base(path), nil
}

// RecordSystemError writes a run-level ERRO entry for failures that happen
// before or outside the per-table loop.
func RecordSystemError(ctx context.Context, auditLog AuditStore, cause error) error {
	return auditLog.Append(ctx, audit.Entry{
		Table:   audit.SystemScope,
		Action:  audit.ActionError,
		Status:  audit.StatusError,
		Details: fmt.Sprintf("Erro crítico: %v", cause),
	})
}
