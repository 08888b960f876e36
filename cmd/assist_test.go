package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-analyzer/internal/models"
)

func TestAssistCmd_Flags(t *testing.T) {
	flag := assistCmd.Flags().Lookup("mode")
	require.NotNil(t, flag)
	assert.Equal(t, "m", flag.Shorthand)
	assert.Equal(t, "Code Generation", flag.DefValue)
	assert.NotNil(t, assistCmd.Flags().Lookup("prompt"))
	assert.NotNil(t, assistCmd.Flags().Lookup("file"))
	assert.NotNil(t, assistCmd.Flags().Lookup("example"))
}

func TestAssistCmd_PrintsAnswer(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"Hi", " there"}}

	out, _, err := execute(t, streamer, "assist", "--prompt", "Say hi")
	require.NoError(t, err)
	assert.Equal(t, "Hi there\n", out)

	gen, _ := models.FindMode(models.DefaultModes(), "Code Generation")
	require.Len(t, streamer.reqs, 1)
	assert.Equal(t, models.InferenceRequest{SystemPrompt: gen.SystemPrompt, UserPrompt: "Say hi", Model: "deepseek-r1:1.5b"}, streamer.reqs[0])
}

func TestAssistCmd_ModeAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.py")
	require.NoError(t, os.WriteFile(path, []byte("def add(a, b):\n    return a + b\n"), 0o644))
	streamer := &fakeStreamer{fragments: []string{"Looks fine."}}

	_, _, err := execute(t, streamer, "assist", "-m", "code review", "-p", "Review this:", "-f", path)
	require.NoError(t, err)

	review, _ := models.FindMode(models.DefaultModes(), "Code Review")
	require.Len(t, streamer.reqs, 1)
	assert.Equal(t, review.SystemPrompt, streamer.reqs[0].SystemPrompt)
	assert.Equal(t, "Review this:\n\ndef add(a, b):\n    return a + b", streamer.reqs[0].UserPrompt)
}

func TestAssistCmd_Example(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"def fibonacci..."}}

	_, _, err := execute(t, streamer, "assist", "--mode", "Code Explanation", "--example")
	require.NoError(t, err)

	explain, _ := models.FindMode(models.DefaultModes(), "Code Explanation")
	assert.Equal(t, explain.Example, streamer.reqs[0].UserPrompt)
}

func TestAssistCmd_Rejects(t *testing.T) {
	streamer := &fakeStreamer{}

	_, _, err := execute(t, streamer, "assist", "--prompt", "   ")
	assert.ErrorIs(t, err, models.ErrEmptyPrompt)

	_, _, err = execute(t, streamer, "assist", "--mode", "Poetry", "--prompt", "hi")
	assert.ErrorIs(t, err, models.ErrUnknownMode)

	_, _, err = execute(t, streamer, "assist", "--file", filepath.Join(t.TempDir(), "missing.py"))
	assert.Error(t, err)

	assert.Empty(t, streamer.reqs)
}

func TestAssistCmd_StreamFailureKeepsPartialText(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"ab", "cd"}, err: errors.New("connection reset by peer")}

	out, _, err := execute(t, streamer, "assist", "--prompt", "go")

	assert.Equal(t, "abcd\n", out)
	var transportErr *models.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "Error: connection reset by peer", err.Error())
}
