// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/josefarias3108/projeto-jus/pkg/audit"
	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// DataCleaner is the data-quality normalization engine. It validates one
// dataset at a time: duplicates are removed, missing values are imputed by
// column semantics, fact rows with missing referential keys are dropped,
// and every cell is normalized to its canonical scalar.
type DataCleaner struct {
	audit  audit.Appender
	logger *zap.Logger
	policy Policy
}

// NewDataCleaner creates a cleaner using the default imputation policy.
func NewDataCleaner(auditLog audit.Appender, logger *zap.Logger) (*DataCleaner, error) {
	return NewDataCleanerWithPolicy(auditLog, logger, DefaultPolicy())
}

// NewDataCleanerWithPolicy creates a cleaner with a custom imputation policy.
// The policy is validated up front so unmatched column names can never fall
// into a silent gap at cleaning time.
func NewDataCleanerWithPolicy(auditLog audit.Appender, logger *zap.Logger, policy Policy) (*DataCleaner, error) {
	if auditLog == nil {
		return nil, errors.New("audit log cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid imputation policy: %w", err)
	}

	return &DataCleaner{
		audit:  auditLog,
		logger: logger,
		policy: policy,
	}, nil
}

// ValidateAndClean runs the full validation sequence over one dataset:
// deduplicate, impute nulls, check referential integrity (fact tables only),
// normalize types. The dataset is transformed in place; the returned
// statistics summarize the pass. An empty dataset is valid input and yields
// all-zero statistics.
func (c *DataCleaner) ValidateAndClean(
	ctx context.Context,
	ds *model.Dataset,
	spec model.TableSpec,
) (model.CleaningStats, error) {
	stats := model.CleaningStats{RowsInitial: ds.RowCount()}
	logger := c.logger.With(zap.String("table", ds.Table))

	logger.Info("Validating dataset", zap.Int("rows", stats.RowsInitial))

	found, removed, err := c.deduplicate(ctx, ds)
	if err != nil {
		return stats, err
	}
	stats.DuplicatesFound = found
	stats.DuplicatesRemoved = removed

	nullsFound, nullsTreated, err := c.imputeNulls(ctx, ds, spec)
	if err != nil {
		return stats, err
	}
	stats.NullsFound = nullsFound
	stats.NullsTreated = nullsTreated

	if spec.Fact {
		dropped, err := c.checkReferential(ctx, ds, spec)
		if err != nil {
			return stats, err
		}
		stats.ReferentialDropped = dropped
	}

	NormalizeTypes(ds)

	stats.RowsFinal = ds.RowCount()
	logger.Info("Dataset validated",
		zap.Int("rows_initial", stats.RowsInitial),
		zap.Int("rows_final", stats.RowsFinal),
		zap.Int("duplicates_removed", stats.DuplicatesRemoved),
		zap.Int("nulls_treated", stats.NullsTreated),
		zap.Int("referential_dropped", stats.ReferentialDropped))

	return stats, nil
}

// VerifyClean re-checks a cleaned dataset and returns the residual duplicate
// row count and the residual null count in eligible columns. Both are zero
// after a successful cleaning pass.
func (c *DataCleaner) VerifyClean(ds *model.Dataset, spec model.TableSpec) (int, int) {
	_, duplicates := markDuplicateRows(ds)

	nulls := 0
	for _, col := range ds.Columns {
		if !eligibleForImputation(col.Name, spec) {
			continue
		}
		for _, cell := range col.Cells {
			if cell.Null {
				nulls++
			}
		}
	}

	return duplicates, nulls
}
