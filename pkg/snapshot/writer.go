// pkg/snapshot/writer.go
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/josefarias3108/projeto-jus/pkg/audit"
	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// LogReportFile is the name of the per-run audit report snapshot.
const LogReportFile = "relatorio_logs.csv"

// Writer serializes cleaned datasets and audit reports to UTF-8 CSV files,
// one file per table, full overwrite on every run.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates a snapshot writer rooted at dir, creating it if needed.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if dir == "" {
		return nil, errors.New("output directory cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Writer{dir: dir, logger: logger}, nil
}

// WriteDataset writes one dataset to <dir>/<table>.csv with a header row of
// column names. Returns the file path and its size in bytes.
func (w *Writer) WriteDataset(ds *model.Dataset) (string, int64, error) {
	path := filepath.Join(w.dir, ds.Table+".csv")

	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(ds.ColumnNames()); err != nil {
		return "", 0, fmt.Errorf("failed to write snapshot header: %w", err)
	}

	rows := ds.RowCount()
	record := make([]string, len(ds.Columns))
	for i := 0; i < rows; i++ {
		for c, col := range ds.Columns {
			record[c] = col.Cells[i].Render()
		}
		if err := cw.Write(record); err != nil {
			return "", 0, fmt.Errorf("failed to write snapshot row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", 0, fmt.Errorf("failed to flush snapshot %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat snapshot %s: %w", path, err)
	}

	w.logger.Info("Wrote snapshot",
		zap.String("file", path),
		zap.Int("rows", rows),
		zap.Int64("bytes", info.Size()))
	return path, info.Size(), nil
}

// WriteAuditReport writes the current run's audit entries to
// <dir>/relatorio_logs.csv, mirroring the log_extractions schema.
func (w *Writer) WriteAuditReport(entries []audit.Entry) (string, error) {
	path := filepath.Join(w.dir, LogReportFile)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create log report %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	header := []string{
		"id", "data_execucao", "tabela", "acao", "registros_processados",
		"duplicatas_encontradas", "nulos_encontrados", "duplicatas_removidas",
		"nulos_tratados", "status", "detalhes", "arquivo_gerado",
	}
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("failed to write log report header: %w", err)
	}

	for _, e := range entries {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.ExecutedAt.Format("2006-01-02 15:04:05"),
			e.Table,
			string(e.Action),
			strconv.Itoa(e.RowsProcessed),
			strconv.Itoa(e.DuplicatesFound),
			strconv.Itoa(e.NullsFound),
			strconv.Itoa(e.DuplicatesRemoved),
			strconv.Itoa(e.NullsTreated),
			string(e.Status),
			e.Details,
			e.OutputFile,
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write log report row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush log report %s: %w", path, err)
	}

	w.logger.Info("Wrote audit log report",
		zap.String("file", path),
		zap.Int("entries", len(entries)))
	return path, nil
}
