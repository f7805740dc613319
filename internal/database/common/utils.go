package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

var (
	commentRegex    = regexp.MustCompile(`(?m)^\s*--.*$`)
	stringRegex     = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`")
	validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// QueryResult is the tabular shape every store returns for ad hoc queries.
type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// ValidateIdentifier rejects table/column/index names that are not plain
// SQL identifiers, so generated statements never need quoting or escaping.
func ValidateIdentifier(name string) error {
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier: %q", name)
	}
	return nil
}

// SplitStatements splits a multi-statement SQL blob on semicolons, ignoring
// semicolons inside string and quoted-identifier literals.
func SplitStatements(sql string) []string {
	sql = commentRegex.ReplaceAllString(sql, "")

	stringPositions := make(map[int]bool)
	for _, match := range stringRegex.FindAllStringIndex(sql, -1) {
		for i := match[0]; i < match[1]; i++ {
			stringPositions[i] = true
		}
	}

	statements := make([]string, 0, strings.Count(sql, ";")+1)
	var current strings.Builder

	for i, char := range sql {
		if char == ';' && !stringPositions[i] {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		} else {
			current.WriteRune(char)
		}
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// ToInt64 normalizes the numeric types different drivers hand back for
// counts and ids.
func ToInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		var out int64
		if _, err := fmt.Sscanf(string(n), "%d", &out); err != nil {
			return 0, fmt.Errorf("cannot parse %q as int64", n)
		}
		return out, nil
	case string:
		var out int64
		if _, err := fmt.Sscanf(n, "%d", &out); err != nil {
			return 0, fmt.Errorf("cannot parse %q as int64", n)
		}
		return out, nil
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil {
			return 0, err
		}
		return int64(f.Float64), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}

// ToFloat64 normalizes the types drivers hand back for NUMERIC/DECIMAL
// aggregate columns.
func ToFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case []byte:
		var out float64
		if _, err := fmt.Sscanf(string(n), "%g", &out); err != nil {
			return 0, fmt.Errorf("cannot parse %q as float64", n)
		}
		return out, nil
	case string:
		var out float64
		if _, err := fmt.Sscanf(n, "%g", &out); err != nil {
			return 0, fmt.Errorf("cannot parse %q as float64", n)
		}
		return out, nil
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil {
			return 0, err
		}
		return f.Float64, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}
