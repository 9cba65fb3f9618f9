// pkg/runner/result.go
package runner

import (
	"fmt"

	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// Stage identifies where in the per-table pipeline a failure occurred.
type Stage string

const (
	StageExtract Stage = "extract"
	StageClean   Stage = "clean"
	StageWrite   Stage = "write"
	StageAudit   Stage = "audit"
)

// TableError is a typed per-table failure. The driver aggregates these
// instead of letting one table abort the run.
type TableError struct {
	Table string
	Stage Stage
	Err   error
}

// Error implements the error interface
func (e *TableError) Error() string {
	return fmt.Sprintf("table %s failed at stage %s: %v", e.Table, e.Stage, e.Err)
}

// Unwrap returns the underlying error
func (e *TableError) Unwrap() error {
	return e.Err
}

// TableResult is the outcome of processing one catalog table. Either Err is
// set or the statistics and output file are.
type TableResult struct {
	Table      string
	Stats      model.CleaningStats
	OutputFile string
	SizeBytes  int64
	Err        *TableError
}

// Summary aggregates one full catalog run.
type Summary struct {
	RunID             string
	TablesTotal       int
	TablesSucceeded   int
	RowsInitial       int
	RowsFinal         int
	DuplicatesRemoved int
	NullsTreated      int
	ReportFile        string
	Tables            []TableResult
}

// SuccessRate returns the percentage of catalog tables processed without error.
func (s *Summary) SuccessRate() float64 {
	if s.TablesTotal == 0 {
		return 100
	}
	return float64(s.TablesSucceeded) / float64(s.TablesTotal) * 100
}
