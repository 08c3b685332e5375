package warehouse

import (
	"errors"
	"testing"
)

func TestParseIdentifier_Valid(t *testing.T) {
	tests := []struct {
		in, name, schema string
	}{
		{"QUERY_HISTORY", "QUERY_HISTORY", ""},
		{"  orders  ", "orders", ""},
		{"ACCOUNT_USAGE.QUERY_HISTORY", "QUERY_HISTORY", "ACCOUNT_USAGE"},
		{"SNOWFLAKE.ACCOUNT_USAGE.QUERY_HISTORY", "QUERY_HISTORY", "ACCOUNT_USAGE"},
		{`"My Table"`, `"My Table"`, ""},
		{`db."we.ird"."a""b"`, `"a""b"`, `"we.ird"`},
		{"t$1", "t$1", ""},
	}
	for _, tt := range tests {
		id, err := ParseIdentifier(tt.in)
		if err != nil {
			t.Errorf("ParseIdentifier(%q): unexpected error %v", tt.in, err)
			continue
		}
		if id.Name() != tt.name {
			t.Errorf("ParseIdentifier(%q).Name() = %q, want %q", tt.in, id.Name(), tt.name)
		}
		if id.Schema() != tt.schema {
			t.Errorf("ParseIdentifier(%q).Schema() = %q, want %q", tt.in, id.Schema(), tt.schema)
		}
	}
}

func TestParseIdentifier_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"1abc",
		"a b",
		"a;DROP TABLE x",
		"a.b.c.d",
		"a--",
		"a/*x*/",
		`"unterminated`,
		"a.",
	} {
		if _, err := ParseIdentifier(in); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("ParseIdentifier(%q) = %v, want ErrInvalidIdentifier", in, err)
		}
	}
}
