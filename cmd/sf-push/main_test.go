package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdambrin/sf-push/domain"
	"github.com/tdambrin/sf-push/errors"
	"github.com/tdambrin/sf-push/worksheet"
)

// newRepo commits two worksheets under worksheets/ in a fresh repository.
func newRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	raw, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := raw.Worktree()
	require.NoError(t, err)

	files := map[string]string{
		"worksheets/Sheet1_metadata.json": `{"_id":"w1","name":"Sheet1","folder_id":"f1","folder_name":"Finance"}`,
		"worksheets/Sheet1.sql":           "select 1",
		"worksheets/Model_metadata.json":  `{"_id":"","name":"Model","folder_id":"f2","folder_name":"Science","content_type":"python"}`,
		"worksheets/Model.py":             "print(1)",
	}
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}

	_, err = wt.Commit("add worksheets", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// fakeService accepts logins for every account except "locked".
type fakeService struct {
	mu       sync.Mutex
	requests []string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/locked/login"):
		http.Error(w, `{"error":"bad credentials"}`, http.StatusUnauthorized)
	case strings.HasSuffix(r.URL.Path, "/login"):
		_, _ = w.Write([]byte(`{"token":"t"}`))
	default:
		_, _ = w.Write([]byte(`{"_id":"new"}`))
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "sf-push dev\n", out)
}

func TestList(t *testing.T) {
	dir := newRepo(t)

	out, err := run(t, "list", "--git-root", dir, "--worksheets-path", "worksheets")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "FOLDER")
	assert.Contains(t, out, "Science")
	assert.Contains(t, out, "Sheet1")
}

func TestList_JSONWithFolderFilter(t *testing.T) {
	dir := newRepo(t)
	t.Setenv("ACTION_GIT_ROOT", dir)
	t.Setenv("ACTION_WORKSHEETS_PATH", "worksheets")

	out, err := run(t, "list", "--json", "--only-folder", "Finance")
	require.NoError(t, err)

	var worksheets []domain.Worksheet
	require.NoError(t, json.Unmarshal([]byte(out), &worksheets))
	require.Len(t, worksheets, 1)
	assert.Equal(t, "Sheet1", worksheets[0].Name)
	assert.Equal(t, "select 1", worksheets[0].Content)
}

func TestList_SourceMissing(t *testing.T) {
	dir := newRepo(t)

	_, err := run(t, "list", "--git-root", dir, "--worksheets-path", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, worksheet.ErrSourceMissing)
}

func TestPush(t *testing.T) {
	dir := newRepo(t)
	svc := &fakeService{}
	server := httptest.NewServer(svc)
	defer server.Close()

	output := filepath.Join(t.TempDir(), "github_output")
	t.Setenv("GITHUB_OUTPUT", output)
	t.Setenv("ACTION_SF_PASSWORDS", "pw1, pw2")

	out, err := run(t, "push",
		"--git-root", dir,
		"--worksheets-path", "worksheets",
		"--accounts", "ab123,locked",
		"--usernames", "ci,ci",
		"--snowsight-url", server.URL,
	)
	require.NoError(t, err)

	assert.Contains(t, out, "account_0: ab123 SUCCESS uploaded=2")
	assert.Contains(t, out, "account_1: locked FAILED")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "upload_report="))
	assert.True(t, strings.HasSuffix(string(data), "\n"))

	var rep domain.UploadReport
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(string(data), "upload_report="))), &rep))
	assert.Equal(t, []string{"account_0", "account_1"}, rep.Keys())
	assert.Equal(t, []string{"Model"}, rep["account_0"].Summary.Created)
	assert.Equal(t, []string{"Sheet1"}, rep["account_0"].Summary.Updated)

	assert.Contains(t, svc.requests, "PUT /v1/accounts/ab123/worksheets/w1")
	assert.Contains(t, svc.requests, "POST /v1/accounts/ab123/worksheets")
}

func TestPush_FailFast(t *testing.T) {
	dir := newRepo(t)
	server := httptest.NewServer(&fakeService{})
	defer server.Close()

	t.Setenv("GITHUB_OUTPUT", filepath.Join(t.TempDir(), "out"))
	t.Setenv("ACTION_SF_PASSWORDS", "pw")

	_, err := run(t, "push",
		"--git-root", dir,
		"--worksheets-path", "worksheets",
		"--accounts", "locked",
		"--usernames", "ci",
		"--fail-fast",
		"--snowsight-url", server.URL,
	)
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))
}

func TestPush_InvalidConfig(t *testing.T) {
	dir := newRepo(t)

	_, err := run(t, "push", "--git-root", dir, "--worksheets-path", "worksheets", "--accounts", "a,b", "--usernames", "u")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
	assert.Contains(t, err.Error(), "same length")
}

func TestPush_UnknownSecretProvider(t *testing.T) {
	dir := newRepo(t)
	t.Setenv("ACTION_SF_PASSWORDS", "secret://vault/sf/prod")

	_, err := run(t, "push", "--git-root", dir, "--worksheets-path", "worksheets", "--accounts", "a", "--usernames", "u")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}
