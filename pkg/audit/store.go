// pkg/audit/store.go
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Store persists audit entries in the log_extractions table. The table is
// append-only with an auto-numbered key and an execution timestamp assigned
// by the database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore creates a new audit log store.
func NewStore(db *sql.DB, logger *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Store{db: db, logger: logger}, nil
}

// EnsureTable creates the log_extractions table if it does not exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS log_extractions (
			id SERIAL PRIMARY KEY,
			data_execucao TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			tabela VARCHAR(50),
			acao VARCHAR(20),
			registros_processados INT DEFAULT 0,
			duplicatas_encontradas INT DEFAULT 0,
			nulos_encontrados INT DEFAULT 0,
			duplicatas_removidas INT DEFAULT 0,
			nulos_tratados INT DEFAULT 0,
			status VARCHAR(10),
			detalhes TEXT,
			arquivo_gerado VARCHAR(255)
		)
	`
	_, err := s.db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create audit log table: %w", err)
	}

	s.logger.Info("Ensured log_extractions table exists")
	return nil
}

// Append inserts a single audit entry.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO log_extractions
		(tabela, acao, registros_processados, duplicatas_encontradas, nulos_encontrados,
		 duplicatas_removidas, nulos_tratados, status, detalhes, arquivo_gerado)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		entry.Table,
		string(entry.Action),
		entry.RowsProcessed,
		entry.DuplicatesFound,
		entry.NullsFound,
		entry.DuplicatesRemoved,
		entry.NullsTreated,
		string(entry.Status),
		entry.Details,
		entry.OutputFile,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	s.logger.Debug("Appended audit entry",
		zap.String("table", entry.Table),
		zap.String("action", string(entry.Action)),
		zap.String("status", string(entry.Status)))
	return nil
}

// Now returns the database clock. Report windows compare against the same
// clock that stamps data_execucao, so host clock skew cannot shift them.
func (s *Store) Now(ctx context.Context) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var now time.Time
	if err := s.db.QueryRowContext(ctx, "SELECT now()").Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("failed to read database clock: %w", err)
	}
	return now, nil
}

// EntriesSince returns the audit entries recorded at or after the given
// instant, newest first. Used to build the per-run log report.
func (s *Store) EntriesSince(ctx context.Context, since time.Time) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data_execucao, tabela, acao, registros_processados,
		       duplicatas_encontradas, nulos_encontrados, duplicatas_removidas,
		       nulos_tratados, status, detalhes, arquivo_gerado
		FROM log_extractions
		WHERE data_execucao >= $1
		ORDER BY data_execucao DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			action     string
			status     string
			details    sql.NullString
			outputFile sql.NullString
		)
		err := rows.Scan(
			&e.ID,
			&e.ExecutedAt,
			&e.Table,
			&action,
			&e.RowsProcessed,
			&e.DuplicatesFound,
			&e.NullsFound,
			&e.DuplicatesRemoved,
			&e.NullsTreated,
			&status,
			&details,
			&outputFile,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = Action(action)
		e.Status = Status(status)
		e.Details = details.String
		e.OutputFile = outputFile.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit entries: %w", err)
	}

	return entries, nil
}
