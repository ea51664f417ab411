package database

import (
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb/v2"
)

// Record is one result row keyed by column name.
type Record map[string]any

// Result holds a fully materialized query result.
type Result struct {
	Columns []string
	Records []Record
}

// Count returns the number of records.
func (r Result) Count() int {
	return len(r.Records)
}

const (
	dateTimeLayout = "2006-01-02 15:04:05.999999"
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05.999999"
)

func collectRows(rows *sql.Rows) (Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return Result{}, err
	}
	typeNames := make([]string, len(types))
	for i, ct := range types {
		typeNames[i] = strings.ToUpper(ct.DatabaseTypeName())
	}

	result := Result{Columns: columns, Records: []Record{}}
	for rows.Next() {
		values, err := scanRow(rows, len(columns))
		if err != nil {
			return Result{}, err
		}
		record := make(Record, len(columns))
		for i, v := range values {
			record[columns[i]] = normalizeValue(v, typeNames[i])
		}
		result.Records = append(result.Records, record)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return result, nil
}

func scanRow(rows *sql.Rows, numCols int) ([]any, error) {
	values := make([]any, numCols)
	ptrs := make([]any, numCols)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

// normalizeValue converts driver values into JSON-encodable values. Temporal
// values become strings; text-protocol numbers become numbers. DECIMAL stays
// text as MySQL and Postgres return it, HUGEINT is text once it leaves the
// int64 range, and non-finite floats use their Postgres spelling.
func normalizeValue(v any, dbType string) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return bytesValue(val, dbType)
	case time.Time:
		switch dbType {
		case "DATE":
			return val.Format(dateLayout)
		case "TIME":
			return val.Format(timeLayout)
		}
		return val.Format(dateTimeLayout)
	case float64:
		return floatValue(val)
	case float32:
		return floatValue(float64(val))
	case duckdb.Decimal:
		if val.Value == nil {
			return nil
		}
		return decimalString(val)
	case *big.Int:
		if val == nil {
			return nil
		}
		if val.IsInt64() {
			return val.Int64()
		}
		return val.String()
	case duckdb.Interval:
		return intervalString(val)
	case duckdb.UUID:
		return uuid.UUID(val).String()
	case *duckdb.UUID:
		if val == nil {
			return nil
		}
		return uuid.UUID(*val).String()
	case duckdb.Union:
		return normalizeValue(val.Value, "")
	case duckdb.Map:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(normalizeValue(k, ""))] = normalizeValue(item, "")
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = normalizeValue(item, "")
		}
		return m
	case []any:
		list := make([]any, len(val))
		for i, item := range val {
			list[i] = normalizeValue(item, "")
		}
		return list
	default:
		return val
	}
}

// decimalString keeps every scale digit, e.g. 50000 at scale 2 is "500.00".
func decimalString(d duckdb.Decimal) string {
	digits := new(big.Int).Abs(d.Value).String()
	scale := int(d.Scale)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	if scale > 0 {
		digits = digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	}
	if d.Value.Sign() < 0 {
		return "-" + digits
	}
	return digits
}

func floatValue(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return f
}

// intervalString renders an interval the way Postgres prints one,
// e.g. "1 year 2 mons 3 days 04:05:06.5".
func intervalString(iv duckdb.Interval) string {
	var parts []string
	plural := func(n int64, unit string) {
		if n == 0 {
			return
		}
		if n == 1 || n == -1 {
			parts = append(parts, fmt.Sprintf("%d %s", n, unit))
			return
		}
		parts = append(parts, fmt.Sprintf("%d %ss", n, unit))
	}
	plural(int64(iv.Months/12), "year")
	plural(int64(iv.Months%12), "mon")
	plural(int64(iv.Days), "day")

	if iv.Micros != 0 || len(parts) == 0 {
		micros := iv.Micros
		sign := ""
		if micros < 0 {
			sign = "-"
			micros = -micros
		}
		clock := fmt.Sprintf("%s%02d:%02d:%02d", sign, micros/3_600_000_000, micros/60_000_000%60, micros/1_000_000%60)
		if frac := micros % 1_000_000; frac != 0 {
			clock += strings.TrimRight(fmt.Sprintf(".%06d", frac), "0")
		}
		parts = append(parts, clock)
	}
	return strings.Join(parts, " ")
}

func bytesValue(b []byte, dbType string) any {
	if dbType == "UUID" && len(b) == 16 {
		if id, err := uuid.FromBytes(b); err == nil {
			return id.String()
		}
	}
	s := string(b)
	switch {
	case strings.Contains(dbType, "INT"):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n
		}
	case strings.Contains(dbType, "FLOAT"), strings.Contains(dbType, "DOUBLE"), dbType == "REAL":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}
