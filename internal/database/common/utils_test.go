package common

import (
	"testing"
)

func TestSplitStatements(t *testing.T) {
	sql := `
-- leading comment
CREATE TABLE a (id INTEGER, note TEXT DEFAULT 'x;y');
CREATE TABLE b (id INTEGER);
`
	stmts := SplitStatements(sql)
	if len(stmts) != 2 {
		t.Fatalf("Expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (id INTEGER, note TEXT DEFAULT 'x;y')" {
		t.Errorf("Semicolon inside string literal was split: %q", stmts[0])
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"orders", "order_details", "_tmp", "agg_category_revenue"}
	for _, name := range valid {
		if err := ValidateIdentifier(name); err != nil {
			t.Errorf("Expected %q to be valid: %v", name, err)
		}
	}

	invalid := []string{"", "1orders", "drop table; --", "a-b", `x"y`}
	for _, name := range invalid {
		if err := ValidateIdentifier(name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int64
	}{
		{int64(7), 7},
		{int32(7), 7},
		{7, 7},
		{float64(7), 7},
		{[]byte("7"), 7},
		{"7", 7},
		{nil, 0},
	}
	for _, c := range cases {
		got, err := ToInt64(c.in)
		if err != nil {
			t.Errorf("ToInt64(%v): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ToInt64(%v) = %d, want %d", c.in, got, c.want)
		}
	}

	if _, err := ToInt64(struct{}{}); err == nil {
		t.Error("Expected error for unsupported type")
	}
}

func TestToFloat64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
	}{
		{float64(2.5), 2.5},
		{int64(4), 4},
		{[]byte("2000.00"), 2000},
		{"1000.50", 1000.5},
		{nil, 0},
	}
	for _, c := range cases {
		got, err := ToFloat64(c.in)
		if err != nil {
			t.Errorf("ToFloat64(%v): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ToFloat64(%v) = %g, want %g", c.in, got, c.want)
		}
	}
}
