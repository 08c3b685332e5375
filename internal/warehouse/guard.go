package warehouse

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"
)

var readOnlyKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
}

// Keywords that never appear in a read-only statement outside literals.
var writeKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true,
	"CREATE": true, "DROP": true, "ALTER": true, "TRUNCATE": true,
	"GRANT": true, "REVOKE": true, "COPY": true, "PUT": true,
	"REMOVE": true, "CALL": true, "EXECUTE": true, "UNDROP": true,
}

// Guard rejects statements that could modify the warehouse. A zero Guard is
// disabled and lets everything through.
type Guard struct {
	Enabled bool
}

// Check returns ErrNotReadOnly unless query is exactly one statement of an
// allowed kind.
func (g Guard) Check(query string) error {
	if !g.Enabled {
		return nil
	}

	stmts := splitStatements(query)
	switch len(stmts) {
	case 0:
		return fmt.Errorf("%w: empty statement", ErrNotReadOnly)
	case 1:
	default:
		return fmt.Errorf("%w: %d statements, only one is allowed", ErrNotReadOnly, len(stmts))
	}
	stmt := stmts[0]

	parsed, err := sqlparser.Parse(stmt.text)
	if err == nil {
		switch parsed.(type) {
		case *sqlparser.Select, *sqlparser.Union, *sqlparser.ParenSelect, *sqlparser.Show, *sqlparser.OtherRead:
			return nil
		default:
			return fmt.Errorf("%w: %s", ErrNotReadOnly, leadingKeyword(stmt.scrubbed))
		}
	}

	// The parser speaks MySQL; Snowflake syntax (QUALIFY, ILIKE, ::casts, ...)
	// falls through to a keyword check on the literal-free text.
	kw := leadingKeyword(stmt.scrubbed)
	if !readOnlyKeywords[kw] {
		return fmt.Errorf("%w: %s", ErrNotReadOnly, kw)
	}
	for _, word := range strings.Fields(stmt.scrubbed) {
		word = strings.ToUpper(strings.Trim(word, "(),"))
		if writeKeywords[word] {
			return fmt.Errorf("%w: contains %s", ErrNotReadOnly, word)
		}
	}
	return nil
}

type statement struct {
	text     string // original text
	scrubbed string // literals and comments blanked out
}

func leadingKeyword(s string) string {
	s = strings.TrimLeft(s, " \t\r\n(")
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z')
	})
	if end >= 0 {
		s = s[:end]
	}
	return strings.ToUpper(s)
}

// splitStatements splits query on top-level semicolons, ignoring those
// inside string literals, quoted identifiers, $$ blocks and comments.
// Empty statements are dropped.
func splitStatements(query string) []statement {
	var (
		out      []statement
		text     strings.Builder
		scrubbed strings.Builder
	)
	flush := func() {
		if strings.TrimSpace(scrubbed.String()) != "" {
			out = append(out, statement{
				text:     strings.TrimSpace(text.String()),
				scrubbed: strings.TrimSpace(scrubbed.String()),
			})
		}
		text.Reset()
		scrubbed.Reset()
	}
	blank := func(s string) {
		text.WriteString(s)
		scrubbed.WriteString(strings.Repeat(" ", len(s)))
	}

	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case c == ';':
			flush()
			i++
		case c == '\'' || c == '"' || c == '`':
			j := closingQuote(query, i+1, c)
			text.WriteString(query[i:j])
			// keep the quotes so the scrubbed text still tokenizes
			scrubbed.WriteByte(c)
			scrubbed.WriteString(strings.Repeat(" ", max(j-i-2, 0)))
			if j-i >= 2 {
				scrubbed.WriteByte(c)
			}
			i = j
		case strings.HasPrefix(query[i:], "$$"):
			end := strings.Index(query[i+2:], "$$")
			j := len(query)
			if end >= 0 {
				j = i + 2 + end + 2
			}
			blank(query[i:j])
			i = j
		case strings.HasPrefix(query[i:], "--") || strings.HasPrefix(query[i:], "//"):
			end := strings.IndexByte(query[i:], '\n')
			j := len(query)
			if end >= 0 {
				j = i + end
			}
			blank(query[i:j])
			i = j
		case strings.HasPrefix(query[i:], "/*"):
			end := strings.Index(query[i+2:], "*/")
			j := len(query)
			if end >= 0 {
				j = i + 2 + end + 2
			}
			blank(query[i:j])
			i = j
		default:
			text.WriteByte(c)
			scrubbed.WriteByte(c)
			i++
		}
	}
	flush()
	return out
}

// closingQuote returns the index just past the quote that closes a literal
// opened before start. A doubled quote stays inside. Backslash escapes only
// exist in single-quoted strings; in "identifiers" and `identifiers` a
// backslash is an ordinary character.
func closingQuote(s string, start int, q byte) int {
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if q == '\'' {
				i++
			}
		case q:
			if i+1 < len(s) && s[i+1] == q {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(s)
}
