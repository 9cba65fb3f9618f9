// pkg/cleaner/referential.go
package cleaner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/josefarias3108/projeto-jus/pkg/audit"
	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// checkReferential drops every fact row whose referential key columns are
// still null after imputation (those columns are exempt from imputation, so
// a null here means the source row never referenced a dimension). Dropped
// rows are not recoverable. Returns the number of rows dropped.
func (c *DataCleaner) checkReferential(
	ctx context.Context,
	ds *model.Dataset,
	spec model.TableSpec,
) (int, error) {
	if len(spec.ReferentialKeys) == 0 {
		return 0, nil
	}

	keyIdx := make([]int, 0, len(spec.ReferentialKeys))
	for _, key := range spec.ReferentialKeys {
		idx := ds.ColumnIndex(key)
		if idx < 0 {
			return 0, fmt.Errorf("referential key column %q missing from table %s", key, ds.Table)
		}
		keyIdx = append(keyIdx, idx)
	}

	rowsBefore := ds.RowCount()
	dropped := ds.FilterRows(func(row int) bool {
		for _, idx := range keyIdx {
			if ds.Columns[idx].Cells[row].Null {
				return false
			}
		}
		return true
	})

	if dropped > 0 {
		c.logger.Warn("Dropped rows with missing referential keys",
			zap.String("table", ds.Table),
			zap.Strings("keys", spec.ReferentialKeys),
			zap.Int("dropped", dropped))
	}

	status := audit.StatusSuccess
	if dropped > 0 {
		status = audit.StatusWarning
	}
	entry := audit.Entry{
		Table:         ds.Table,
		Action:        audit.ActionValidation,
		RowsProcessed: rowsBefore,
		Status:        status,
		Details:       fmt.Sprintf("Registros sem pessoa, juiz ou advogado removidos: %d", dropped),
	}
	if err := c.audit.Append(ctx, entry); err != nil {
		return dropped, fmt.Errorf("failed to record referential check: %w", err)
	}

	return dropped, nil
}
