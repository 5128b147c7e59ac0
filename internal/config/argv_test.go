package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgvSplitsWords(t *testing.T) {
	argv, err := parseArgv("wl-copy --trim-newline")
	require.NoError(t, err)
	require.Equal(t, []string{"wl-copy", "--trim-newline"}, argv)
}

func TestParseArgvHonorsQuotes(t *testing.T) {
	argv, err := parseArgv(`notify "hello world" 'single quoted'`)
	require.NoError(t, err)
	require.Equal(t, []string{"notify", "hello world", "single quoted"}, argv)
}

func TestParseArgvHonorsEscapes(t *testing.T) {
	argv, err := parseArgv(`echo a\ b`)
	require.NoError(t, err)
	require.Equal(t, []string{"echo", "a b"}, argv)
}

func TestParseArgvEmptyAndComment(t *testing.T) {
	argv, err := parseArgv("   ")
	require.NoError(t, err)
	require.Nil(t, argv)

	argv, err = parseArgv("# commented out")
	require.NoError(t, err)
	require.Nil(t, argv)
}

func TestParseArgvErrors(t *testing.T) {
	_, err := parseArgv(`broken "quote`)
	require.Error(t, err)

	_, err = parseArgv(`trailing\`)
	require.Error(t, err)
}
