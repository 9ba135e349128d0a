package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText_TrimsAndPrompts(t *testing.T) {
	out := &bytes.Buffer{}
	r := bufio.NewReader(strings.NewReader("  hello world  \n"))

	got, err := GetSimpleText(r, "Say something", out)

	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Contains(t, out.String(), "Say something")
	assert.Contains(t, out.String(), "> ")
}

func TestGetSimpleText_PartialLineAtEOF(t *testing.T) {
	out := &bytes.Buffer{}
	r := bufio.NewReader(strings.NewReader("no-newline"))

	got, err := GetSimpleText(r, "Prompt", out)

	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)
}

func TestGetSimpleText_EmptyInputErrors(t *testing.T) {
	out := &bytes.Buffer{}
	r := bufio.NewReader(strings.NewReader(""))

	_, err := GetSimpleText(r, "Prompt", out)

	require.Error(t, err)
}

func TestGetPassword_UsesTerminalReader(t *testing.T) {
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte("s3cret"), nil }
	t.Cleanup(func() { readPassword = orig })

	out := &bytes.Buffer{}
	got, err := GetPassword(out, "Password")

	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Contains(t, out.String(), "Password: ")
}
