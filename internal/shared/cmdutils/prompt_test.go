package cmdutils

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_ReadsLines(t *testing.T) {
	var out bytes.Buffer
	ask := NewPrompter(bufio.NewReader(strings.NewReader("xy12345\n  hunter2 \nlast")), &out, -1)

	account, err := ask("Account", false)
	require.NoError(t, err)
	assert.Equal(t, "xy12345", account)

	password, err := ask("Password", true)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)

	last, err := ask("Role", false)
	require.NoError(t, err)
	assert.Equal(t, "last", last)

	assert.Equal(t, "Account: Password: Role: ", out.String())

	_, err = ask("Warehouse", false)
	assert.ErrorIs(t, err, io.EOF)
}
