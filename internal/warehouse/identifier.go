package warehouse

import (
	"fmt"
	"regexp"
	"strings"
)

// identPart matches one unquoted or double-quoted identifier segment.
const identPart = `(?:[A-Za-z_][A-Za-z0-9_$]*|"(?:[^"]|"")+")`

var (
	reIdentifier = regexp.MustCompile(`^` + identPart + `(?:\.` + identPart + `){0,2}$`)
	reIdentPart  = regexp.MustCompile(identPart)
)

// Identifier is a validated table name with up to three dot-separated parts
// (database.schema.table).
type Identifier struct {
	parts []string
}

// ParseIdentifier validates name. Anything else, including embedded
// whitespace, semicolons and comments, yields ErrInvalidIdentifier.
func ParseIdentifier(name string) (Identifier, error) {
	name = strings.TrimSpace(name)
	if !reIdentifier.MatchString(name) {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return Identifier{parts: reIdentPart.FindAllString(name, -1)}, nil
}

// Name returns the last segment.
func (i Identifier) Name() string {
	if len(i.parts) == 0 {
		return ""
	}
	return i.parts[len(i.parts)-1]
}

// Schema returns the qualifier preceding the name, or "".
func (i Identifier) Schema() string {
	if len(i.parts) < 2 {
		return ""
	}
	return i.parts[len(i.parts)-2]
}

func (i Identifier) String() string {
	return strings.Join(i.parts, ".")
}
