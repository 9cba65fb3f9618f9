// pkg/audit/entry.go
package audit

import (
	"context"
	"time"
)

// Action identifies the checkpoint that produced an audit entry. The string
// values are part of the persisted log_extractions contract and must not be
// translated.
type Action string

const (
	ActionValidation Action = "VALIDACAO"
	ActionExtraction Action = "EXTRACAO"
	ActionError      Action = "ERRO"
	ActionStart      Action = "INICIO"
	ActionEnd        Action = "FIM"
)

// Status is the outcome recorded with an audit entry.
type Status string

const (
	StatusSuccess Status = "SUCESSO"
	StatusError   Status = "ERRO"
	StatusWarning Status = "AVISO"
)

// Entry is a single audit log record. Entries are append-only: the store
// never mutates or deletes them.
type Entry struct {
	ID                int64
	ExecutedAt        time.Time
	Table             string
	Action            Action
	RowsProcessed     int
	DuplicatesFound   int
	NullsFound        int
	DuplicatesRemoved int
	NullsTreated      int
	Status            Status
	Details           string
	OutputFile        string
}

// SystemScope is the table name used for run-level entries that are not tied
// to a single catalog table.
const SystemScope = "SISTEMA"

// Appender is the append-only write contract the cleaning engine needs.
type Appender interface {
	Append(ctx context.Context, entry Entry) error
}
