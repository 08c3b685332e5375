package cmdutils

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for one value. Secret values are not echoed when
// the input is a terminal.
type Prompter func(label string, secret bool) (string, error)

// NewPrompter reads answers line by line from in. fd is the file descriptor
// behind in, used for hidden input; pass -1 when in is not a file.
func NewPrompter(in *bufio.Reader, out io.Writer, fd int) Prompter {
	return func(label string, secret bool) (string, error) {
		fmt.Fprintf(out, "%s: ", label)
		if secret && fd >= 0 && term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return "", fmt.Errorf("read %s: %w", label, err)
			}
			return strings.TrimSpace(string(b)), nil
		}
		line, err := in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("read %s: %w", label, err)
		}
		return strings.TrimSpace(line), nil
	}
}
