// pkg/runner/runner_test.go
package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/josefarias3108/projeto-jus/pkg/audit"
	"github.com/josefarias3108/projeto-jus/pkg/model"
)

type fakeFetcher struct {
	datasets map[string]*model.Dataset
	failing  map[string]error
	counts   map[string]int64
}

func (f *fakeFetcher) FetchTable(_ context.Context, name string) (*model.Dataset, error) {
	if err, ok := f.failing[name]; ok {
		return nil, err
	}
	if ds, ok := f.datasets[name]; ok {
		return ds, nil
	}
	return model.NewDataset(name, nil)
}

func (f *fakeFetcher) CountRows(_ context.Context, name string) (int64, error) {
	return f.counts[name], nil
}

type fakeCleaner struct {
	stats    map[string]model.CleaningStats
	failing  map[string]error
	residual bool
}

func (f *fakeCleaner) ValidateAndClean(_ context.Context, ds *model.Dataset, _ model.TableSpec) (model.CleaningStats, error) {
	if err, ok := f.failing[ds.Table]; ok {
		return model.CleaningStats{}, err
	}
	return f.stats[ds.Table], nil
}

func (f *fakeCleaner) VerifyClean(*model.Dataset, model.TableSpec) (int, int) {
	if f.residual {
		return 1, 1
	}
	return 0, 0
}

type fakeWriter struct {
	written []string
	failing map[string]error
}

func (f *fakeWriter) WriteDataset(ds *model.Dataset) (string, int64, error) {
	if err, ok := f.failing[ds.Table]; ok {
		return "", 0, err
	}
	f.written = append(f.written, ds.Table)
	return "csvs/" + ds.Table + ".csv", 128, nil
}

func (f *fakeWriter) WriteAuditReport(entries []audit.Entry) (string, error) {
	f.written = append(f.written, "relatorio_logs.csv")
	return "csvs/relatorio_logs.csv", nil
}

type fakeAudit struct {
	entries   []audit.Entry
	appendErr error
	now       time.Time
	nowErr    error
	since     time.Time
}

func (f *fakeAudit) Append(_ context.Context, entry audit.Entry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	entry.ExecutedAt = time.Now()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) EntriesSince(_ context.Context, since time.Time) ([]audit.Entry, error) {
	f.since = since
	return f.entries, nil
}

func (f *fakeAudit) Now(context.Context) (time.Time, error) {
	if f.nowErr != nil {
		return time.Time{}, f.nowErr
	}
	if f.now.IsZero() {
		return time.Now(), nil
	}
	return f.now, nil
}

func (f *fakeAudit) actions() []audit.Action {
	out := make([]audit.Action, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Action
	}
	return out
}

func newTestRunner(t *testing.T, catalog []model.TableSpec, fetcher *fakeFetcher, cleaner *fakeCleaner, writer *fakeWriter, auditLog *fakeAudit) *Runner {
	t.Helper()
	r, err := NewRunnerWithCatalog(catalog, fetcher, cleaner, writer, auditLog, zap.NewNop())
	require.NoError(t, err)
	return r
}

func twoTableCatalog() []model.TableSpec {
	return []model.TableSpec{
		{Name: "dim_pessoa"},
		{Name: "fato_processos", Fact: true, ReferentialKeys: []string{"id_pessoa", "id_juiz", "id_advogado"}},
	}
}

func TestNewRunner(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	cleaner := &fakeCleaner{}
	writer := &fakeWriter{}
	auditLog := &fakeAudit{}

	_, err := NewRunner(nil, cleaner, writer, auditLog, zap.NewNop())
	require.Error(t, err)
	_, err = NewRunner(fetcher, nil, writer, auditLog, zap.NewNop())
	require.Error(t, err)
	_, err = NewRunner(fetcher, cleaner, nil, auditLog, zap.NewNop())
	require.Error(t, err)
	_, err = NewRunner(fetcher, cleaner, writer, nil, zap.NewNop())
	require.Error(t, err)
	_, err = NewRunner(fetcher, cleaner, writer, auditLog, nil)
	require.Error(t, err)

	r, err := NewRunner(fetcher, cleaner, writer, auditLog, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, r.catalog, 4)
}

func TestRun_AllTablesSucceed(t *testing.T) {
	t.Parallel()

	auditLog := &fakeAudit{}
	writer := &fakeWriter{}
	cleaner := &fakeCleaner{stats: map[string]model.CleaningStats{
		"dim_pessoa":     {RowsInitial: 3, RowsFinal: 2, DuplicatesFound: 1, DuplicatesRemoved: 1, NullsFound: 2, NullsTreated: 2},
		"fato_processos": {RowsInitial: 5, RowsFinal: 5},
	}}
	r := newTestRunner(t, twoTableCatalog(), &fakeFetcher{}, cleaner, writer, auditLog)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, summary.RunID)
	require.Equal(t, 2, summary.TablesTotal)
	require.Equal(t, 2, summary.TablesSucceeded)
	require.Equal(t, 8, summary.RowsInitial)
	require.Equal(t, 7, summary.RowsFinal)
	require.Equal(t, 1, summary.DuplicatesRemoved)
	require.Equal(t, 2, summary.NullsTreated)
	require.Equal(t, float64(100), summary.SuccessRate())
	require.Equal(t, "relatorio_logs.csv", summary.ReportFile)

	// INICIO, one EXTRACAO per table, FIM; snapshots plus the log report.
	require.Equal(t, []audit.Action{
		audit.ActionStart, audit.ActionExtraction, audit.ActionExtraction, audit.ActionEnd,
	}, auditLog.actions())
	require.Equal(t, []string{"dim_pessoa", "fato_processos", "relatorio_logs.csv"}, writer.written)

	last := auditLog.entries[len(auditLog.entries)-1]
	require.Equal(t, audit.StatusSuccess, last.Status)
	require.Contains(t, last.Details, "100.0% de sucesso")
}

func TestRun_TableFailureIsIsolated(t *testing.T) {
	t.Parallel()

	auditLog := &fakeAudit{}
	writer := &fakeWriter{}
	fetcher := &fakeFetcher{failing: map[string]error{"dim_pessoa": errors.New("relation does not exist")}}
	cleaner := &fakeCleaner{stats: map[string]model.CleaningStats{"fato_processos": {RowsInitial: 4, RowsFinal: 4}}}
	r := newTestRunner(t, twoTableCatalog(), fetcher, cleaner, writer, auditLog)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, summary.TablesSucceeded)
	require.Equal(t, float64(50), summary.SuccessRate())

	failed := summary.Tables[0]
	require.NotNil(t, failed.Err)
	require.Equal(t, StageExtract, failed.Err.Stage)
	require.ErrorContains(t, failed.Err, "relation does not exist")

	// The failed table records ERRO and the run still processes the rest.
	require.Equal(t, []audit.Action{
		audit.ActionStart, audit.ActionError, audit.ActionExtraction, audit.ActionEnd,
	}, auditLog.actions())
	require.Equal(t, audit.StatusError, auditLog.entries[1].Status)
	require.Contains(t, auditLog.entries[1].Details, "extract")

	last := auditLog.entries[len(auditLog.entries)-1]
	require.Equal(t, audit.StatusWarning, last.Status)
	require.Contains(t, last.Details, "50.0% de sucesso")
}

func TestRun_CleanAndWriteFailures(t *testing.T) {
	t.Parallel()

	t.Run("clean stage", func(t *testing.T) {
		t.Parallel()
		auditLog := &fakeAudit{}
		cleaner := &fakeCleaner{failing: map[string]error{"dim_pessoa": errors.New("bad policy")}}
		r := newTestRunner(t, []model.TableSpec{{Name: "dim_pessoa"}}, &fakeFetcher{}, cleaner, &fakeWriter{}, auditLog)

		summary, err := r.Run(context.Background())
		require.NoError(t, err)
		require.Zero(t, summary.TablesSucceeded)
		require.Equal(t, StageClean, summary.Tables[0].Err.Stage)
	})

	t.Run("write stage", func(t *testing.T) {
		t.Parallel()
		auditLog := &fakeAudit{}
		writer := &fakeWriter{failing: map[string]error{"dim_pessoa": errors.New("disk full")}}
		r := newTestRunner(t, []model.TableSpec{{Name: "dim_pessoa"}}, &fakeFetcher{}, &fakeCleaner{}, writer, auditLog)

		summary, err := r.Run(context.Background())
		require.NoError(t, err)
		require.Zero(t, summary.TablesSucceeded)
		require.Equal(t, StageWrite, summary.Tables[0].Err.Stage)
	})
}

func TestRun_StartEntryFailureAbortsRun(t *testing.T) {
	t.Parallel()

	auditLog := &fakeAudit{appendErr: errors.New("audit table missing")}
	r := newTestRunner(t, twoTableCatalog(), &fakeFetcher{}, &fakeCleaner{}, &fakeWriter{}, auditLog)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to record run start")
}

func TestRun_EmptyCatalog(t *testing.T) {
	t.Parallel()

	auditLog := &fakeAudit{}
	r := newTestRunner(t, nil, &fakeFetcher{}, &fakeCleaner{}, &fakeWriter{}, auditLog)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, summary.TablesTotal)
	require.Equal(t, float64(100), summary.SuccessRate())
	require.Equal(t, []audit.Action{audit.ActionStart, audit.ActionEnd}, auditLog.actions())
}

func TestRun_LogReportUsesStoreClock(t *testing.T) {
	t.Parallel()

	// The store clock is skewed well behind the local clock; the report
	// window must follow the store, not the host.
	storeNow := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	auditLog := &fakeAudit{now: storeNow}
	r := newTestRunner(t, nil, &fakeFetcher{}, &fakeCleaner{}, &fakeWriter{}, auditLog)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, storeNow, auditLog.since)
}

func TestRun_StoreClockFailureFallsBackToLocal(t *testing.T) {
	t.Parallel()

	auditLog := &fakeAudit{nowErr: errors.New("database unreachable")}
	before := time.Now()
	r := newTestRunner(t, nil, &fakeFetcher{}, &fakeCleaner{}, &fakeWriter{}, auditLog)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	require.False(t, auditLog.since.Before(before))
}

func TestRecordSystemError(t *testing.T) {
	t.Parallel()

	auditLog := &fakeAudit{}
	err := RecordSystemError(context.Background(), auditLog, errors.New("connection refused"))
	require.NoError(t, err)

	require.Len(t, auditLog.entries, 1)
	entry := auditLog.entries[0]
	require.Equal(t, audit.SystemScope, entry.Table)
	require.Equal(t, audit.ActionError, entry.Action)
	require.Equal(t, audit.StatusError, entry.Status)
	require.Contains(t, entry.Details, "Erro crítico: connection refused")
}

func TestTableError(t *testing.T) {
	t.Parallel()

	cause := errors.New("timeout")
	tErr := &TableError{Table: "dim_juiz", Stage: StageExtract, Err: cause}
	require.Equal(t, "table dim_juiz failed at stage extract: timeout", tErr.Error())
	require.ErrorIs(t, tErr, cause)
}
