package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-analyzer/internal/config"
	"document-analyzer/internal/excerpt"
	"document-analyzer/internal/models"
	"document-analyzer/internal/report"
	"document-analyzer/internal/session"
)

type fakeRunner struct {
	systems []string
	users   []string
	result  func(user string) session.Result
}

func (f *fakeRunner) Run(_ context.Context, systemPrompt, userPrompt string, onPartial session.PartialFunc) session.Result {
	f.systems = append(f.systems, systemPrompt)
	f.users = append(f.users, userPrompt)
	res := session.Result{Text: "Hi there"}
	if f.result != nil {
		res = f.result(userPrompt)
	}
	if onPartial != nil && len(res.Text) > 2 {
		onPartial(res.Text[:2])
		onPartial(res.Text)
	}
	return res
}

type event struct {
	name string
	data string
}

func parseEvents(t *testing.T, body string) []event {
	t.Helper()
	var events []event
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		var e event
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event:"):
				e.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				e.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
		if e.name != "" {
			events = append(events, e)
		}
	}
	return events
}

func names(events []event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.name
	}
	return out
}

func newTestServer(runner *fakeRunner) *Server {
	gin.SetMode(gin.TestMode)
	return NewServer(config.Default(), runner)
}

func TestHealthAndModes(t *testing.T) {
	s := newTestServer(&fakeRunner{})

	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/modes", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var modes []models.Mode
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &modes))
	require.Len(t, modes, 3)
	assert.Equal(t, "Code Generation", modes[0].Name)
}

func postJSON(s *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)
	return resp
}

func TestAssist_StreamsPartials(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(runner)

	resp := postJSON(s, "/v1/assist", `{"mode":"code review","prompt":"Say hi"}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/event-stream")

	events := parseEvents(t, resp.Body.String())
	assert.Equal(t, []string{"partial", "partial", "done"}, names(events))
	assert.JSONEq(t, `{"text":"Hi"}`, events[0].data)
	assert.JSONEq(t, `{"text":"Hi there"}`, events[2].data)

	review, _ := models.FindMode(models.DefaultModes(), "Code Review")
	assert.Equal(t, []string{review.SystemPrompt}, runner.systems)
	assert.Equal(t, []string{"Say hi"}, runner.users)
}

func TestAssist_StreamFailure(t *testing.T) {
	runner := &fakeRunner{result: func(string) session.Result {
		return session.Result{Text: "abcd", Err: &models.TransportError{Err: errors.New("connection reset by peer")}}
	}}
	s := newTestServer(runner)

	resp := postJSON(s, "/v1/assist", `{"prompt":"explain"}`)

	events := parseEvents(t, resp.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "error", last.name)
	assert.JSONEq(t, `{"text":"abcd","error":"Error: connection reset by peer"}`, last.data)
}

func TestAssist_RejectsBadInput(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(runner)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty prompt", `{"mode":"Code Generation","prompt":"   "}`, "prompt is empty"},
		{"unknown mode", `{"mode":"Poetry","prompt":"hi"}`, "unknown mode"},
		{"malformed json", `{"prompt":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(s, "/v1/assist", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.want)
		})
	}
	assert.Empty(t, runner.users, "rejected requests never reach the model")
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestAnalyze_StreamsRun(t *testing.T) {
	runner := &fakeRunner{result: func(user string) session.Result {
		return session.Result{Text: "<think>x</think>answer"}
	}}
	s := newTestServer(runner)

	body, contentType := multipartBody(t,
		map[string]string{"query": "What is it about?", "hide_thinking": "true"},
		map[string]string{"a.txt": "alpha text", "b.pdf": "not really a pdf"})
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	events := parseEvents(t, resp.Body.String())
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Equal(t, "done", last.name)
	var run report.RunView
	require.NoError(t, json.Unmarshal([]byte(last.data), &run))

	var got []string
	for _, r := range run.Results {
		got = append(got, r.Document+"/"+r.Pass)
	}
	// multipart file order follows map iteration, so compare per document
	assert.Len(t, run.Results, 4)
	assert.Contains(t, got, "a.txt/Main Analysis")
	assert.Contains(t, got, "a.txt/Key Points")
	assert.Contains(t, got, "a.txt/Summary")
	assert.Contains(t, got, "b.pdf/")
	assert.Nil(t, run.Synthesis)
	assert.Equal(t, 1, run.Failures)

	for _, r := range run.Results {
		if r.OK {
			assert.Equal(t, "answer", r.Text)
		}
	}

	var results, partials int
	for _, e := range events {
		switch e.name {
		case "result":
			results++
		case "partial":
			partials++
		}
	}
	assert.Equal(t, 4, results)
	assert.Equal(t, 6, partials)
	assert.Contains(t, runner.users[0], "Query: What is it about?")
}

func TestAnalyze_Synthesis(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(runner)

	body, contentType := multipartBody(t, nil, map[string]string{"x.txt": "x", "y.md": "# y"})
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)

	events := parseEvents(t, resp.Body.String())
	n := names(events)
	require.GreaterOrEqual(t, len(n), 3)
	assert.Equal(t, []string{"synthesis", "done"}, n[len(n)-2:])
	assert.Contains(t, n, "synthesis_started")
	assert.Contains(t, n, "synthesis_partial")

	var synthesis report.SynthesisView
	require.NoError(t, json.Unmarshal([]byte(events[len(events)-2].data), &synthesis))
	assert.ElementsMatch(t, []string{"x.txt", "y.md"}, synthesis.Documents)
	assert.Len(t, runner.users, 5, "two default passes per document plus the synthesis")
}

func TestAnalyze_RequiresFiles(t *testing.T) {
	s := newTestServer(&fakeRunner{})

	body, contentType := multipartBody(t, map[string]string{"query": "q"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	resp = httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAnalyze_SelectorFactoryFailure(t *testing.T) {
	s := newTestServer(&fakeRunner{}).WithSelectorFactory(func() (excerpt.Selector, error) {
		return nil, errors.New("embedding endpoint unreachable")
	})

	body, contentType := multipartBody(t, nil, map[string]string{"x.txt": "x"})
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, req)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "embedding endpoint unreachable")
}
