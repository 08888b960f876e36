package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-analyzer/internal/models"
)

func TestModesCmd_ListsModes(t *testing.T) {
	out, _, err := execute(t, &fakeStreamer{}, "modes")
	require.NoError(t, err)

	for _, name := range []string{"Code Generation", "Code Explanation", "Code Review"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "  You are a senior code reviewer with Python expertise.")
}

func TestModesCmd_JSON(t *testing.T) {
	out, _, err := execute(t, &fakeStreamer{}, "modes", "--json")
	require.NoError(t, err)

	var modes []models.Mode
	require.NoError(t, json.Unmarshal([]byte(out), &modes))
	assert.Equal(t, models.DefaultModes(), modes)
}

func TestServeCmd_HasAddrFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n  b", indent("a\nb\n"))
}
