// pkg/extractor/kinds.go
package extractor

import (
	"strings"

	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// KindForDatabaseType maps a driver-reported database type name to the
// declared column kind used by the cleaning engine. Unknown types fall back
// to text, which every value can render into.
func KindForDatabaseType(dbType string) model.ColumnKind {
	switch strings.ToUpper(dbType) {
	case "INT2", "INT4", "INT8", "SMALLINT", "INTEGER", "BIGINT",
		"SMALLSERIAL", "SERIAL", "BIGSERIAL", "OID":
		return model.KindInteger
	case "FLOAT4", "FLOAT8", "REAL", "DOUBLE PRECISION", "NUMERIC", "DECIMAL":
		return model.KindReal
	case "BOOL", "BOOLEAN":
		return model.KindBoolean
	case "DATE", "TIMESTAMP", "TIMESTAMPTZ", "TIMETZ", "TIME",
		"TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITHOUT TIME ZONE":
		return model.KindTemporal
	default:
		return model.KindText
	}
}
