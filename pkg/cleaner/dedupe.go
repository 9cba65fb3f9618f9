// pkg/cleaner/dedupe.go
package cleaner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/josefarias3108/projeto-jus/pkg/audit"
	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// deduplicate removes rows that are value-identical across all columns to an
// earlier row, keeping the first occurrence. It records one validation audit
// entry and returns the duplicate counts.
func (c *DataCleaner) deduplicate(ctx context.Context, ds *model.Dataset) (int, int, error) {
	rowsBefore := ds.RowCount()

	duplicate, found := markDuplicateRows(ds)

	removed := 0
	if found > 0 {
		removed = ds.FilterRows(func(row int) bool { return !duplicate[row] })
		c.logger.Warn("Removed duplicate rows",
			zap.String("table", ds.Table),
			zap.Int("duplicates", removed))
	}

	status := audit.StatusSuccess
	if found > 0 {
		status = audit.StatusWarning
	}
	entry := audit.Entry{
		Table:             ds.Table,
		Action:            audit.ActionValidation,
		RowsProcessed:     rowsBefore,
		DuplicatesFound:   found,
		DuplicatesRemoved: removed,
		Status:            status,
		Details:           fmt.Sprintf("Duplicatas encontradas e removidas: %d", removed),
	}
	if err := c.audit.Append(ctx, entry); err != nil {
		return found, removed, fmt.Errorf("failed to record deduplication: %w", err)
	}

	return found, removed, nil
}

// markDuplicateRows fingerprints every row and flags the ones that repeat an
// earlier row. Each cell rendering is length-prefixed so cell text can never
// alias a field boundary; nulls use a marker no length digit can produce,
// keeping them distinct from empty strings.
func markDuplicateRows(ds *model.Dataset) ([]bool, int) {
	rows := ds.RowCount()
	duplicate := make([]bool, rows)
	if rows == 0 {
		return duplicate, 0
	}

	seen := make(map[xxh3.Uint128]struct{}, rows)
	found := 0
	var sb strings.Builder

	for i := 0; i < rows; i++ {
		sb.Reset()
		for _, col := range ds.Columns {
			cell := col.Cells[i]
			if cell.Null {
				sb.WriteString("-;")
				continue
			}
			text := cell.Render()
			sb.WriteString(strconv.Itoa(len(text)))
			sb.WriteByte(';')
			sb.WriteString(text)
		}

		key := xxh3.HashString128(sb.String())
		if _, ok := seen[key]; ok {
			duplicate[i] = true
			found++
			continue
		}
		seen[key] = struct{}{}
	}

	return duplicate, found
}
