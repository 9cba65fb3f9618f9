// pkg/cleaner/normalize.go
package cleaner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// NormalizeTypes walks every cell of a cleaned dataset and coerces the value
// into the canonical scalar for its declared kind: int64, float64, bool,
// time.Time or string. Null cells stay explicit nulls. Values that cannot be
// coerced pass through unchanged; normalization is best effort and never
// fails.
func NormalizeTypes(ds *model.Dataset) {
	for ci := range ds.Columns {
		cells := ds.Columns[ci].Cells
		for ri := range cells {
			cells[ri] = normalizeCell(cells[ri])
		}
	}
}

// normalizeCell dispatches on the kind tag, not the dynamic type of the
// value: the declared kind decides the target scalar, the coercions only
// bridge the driver's wrapper widths.
func normalizeCell(c model.Cell) model.Cell {
	if c.Null || c.Value == nil {
		return model.NullCell(c.Kind)
	}

	switch c.Kind {
	case model.KindInteger:
		if v, ok := toInt64(c.Value); ok {
			return model.IntCell(v)
		}
	case model.KindReal:
		if v, ok := toFloat64(c.Value); ok {
			return model.RealCell(v)
		}
	case model.KindBoolean:
		if v, ok := toBool(c.Value); ok {
			return model.BoolCell(v)
		}
	case model.KindTemporal:
		if v, ok := toTime(c.Value); ok {
			return model.TimeCell(v)
		}
	case model.KindText:
		if v, ok := toText(c.Value); ok {
			return model.TextCell(v)
		}
	}

	// Unrecognized scalar kind: pass through unchanged.
	return c
}

// toInt64 coerces a driver value to int64
func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case uint:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > uint64(math.MaxInt64) {
			return 0, false
		}
		return int64(val), true
	case float32:
		return int64(val), true
	case float64:
		return int64(val), true
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, false
		}
		parsed, err := strconv.ParseInt(cleaned, 10, 64)
		return parsed, err == nil
	case []byte:
		return toInt64(string(val))
	default:
		return 0, false
	}
}

// toFloat64 coerces a driver value to float64
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		i, _ := toInt64(val)
		return float64(i), true
	case uint64:
		return float64(val), true
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		return parsed, err == nil
	case []byte:
		return toFloat64(string(val))
	default:
		return 0, false
	}
}

// toBool coerces a driver value to bool
func toBool(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, _ := toInt64(val)
		return i != 0, true
	case string:
		switch strings.TrimSpace(strings.ToLower(val)) {
		case "true", "t", "yes", "y", "1":
			return true, true
		case "false", "f", "no", "n", "0":
			return false, true
		default:
			return false, false
		}
	case []byte:
		return toBool(string(val))
	default:
		return false, false
	}
}

// timeLayouts are tried in order when parsing temporal strings. Slash dates
// are day-first, the Brazilian convention of the source data.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
}

// toTime coerces a driver value to time.Time
func toTime(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case []byte:
		return toTime(string(val))
	case int64:
		// Unix seconds
		return time.Unix(val, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// toText coerces a driver value to string
func toText(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return fmt.Sprintf("%v", val), true
	case time.Time:
		return val.Format(time.RFC3339), true
	default:
		return "", false
	}
}
