// pkg/extractor/extractor.go
package extractor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// Extractor reads full tables from the relational store into datasets.
// Reads are unconditional: no filtering, pagination, or incremental logic.
type Extractor struct {
	db           *sqlx.DB
	logger       *zap.Logger
	queryTimeout time.Duration
}

// NewExtractor creates an extractor over an open database connection.
func NewExtractor(db *sql.DB, queryTimeout time.Duration, logger *zap.Logger) (*Extractor, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Minute
	}

	return &Extractor{
		db:           sqlx.NewDb(db, "pgx"),
		logger:       logger,
		queryTimeout: queryTimeout,
	}, nil
}

// FetchTable reads one named table in full and returns it as a dataset with
// column kinds inferred from the database column types.
func (e *Extractor) FetchTable(ctx context.Context, name string) (*model.Dataset, error) {
	query := fmt.Sprintf("SELECT * FROM %s", pq.QuoteIdentifier(name))

	queryCtx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	rows, err := e.db.QueryxContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types of %s: %w", name, err)
	}

	columns := make([]model.Column, len(colNames))
	for i, colName := range colNames {
		kind := KindForDatabaseType(colTypes[i].DatabaseTypeName())
		columns[i] = model.Column{Name: colName, Kind: kind}
	}

	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		for i, value := range values {
			// Byte slices are only valid until the next scan; copy them out.
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			columns[i].Cells = append(columns[i].Cells, model.RawCell(columns[i].Kind, value))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}

	ds, err := model.NewDataset(name, columns)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Extracted table",
		zap.String("table", name),
		zap.Int("rows", ds.RowCount()),
		zap.Int("columns", len(ds.Columns)))
	return ds, nil
}

// CountRows returns the current row count of one named table.
func (e *Extractor) CountRows(ctx context.Context, name string) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pq.QuoteIdentifier(name))
	if err := e.db.QueryRowxContext(queryCtx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", name, err)
	}
	return count, nil
}
