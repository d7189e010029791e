package worksheet

import (
	"context"
	"errors"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tdambrin/sf-push/domain"
	ferrors "github.com/tdambrin/sf-push/errors"
	"github.com/tdambrin/sf-push/git"
)

// fakeSource serves an in-memory set of tracked files.
type fakeSource struct {
	exists   bool
	files    []git.TrackedFile
	contents map[string]string
	listErr  error
	readErr  error

	readCalls [][]git.TrackedFile
}

func newFakeSource(files map[string]string, order ...string) *fakeSource {
	s := &fakeSource{exists: true, contents: map[string]string{}}
	for _, p := range order {
		s.files = append(s.files, git.TrackedFile{Name: path.Base(p), Path: p, Hash: p})
		s.contents[p] = files[p]
	}
	return s
}

func (s *fakeSource) Exists(string) (bool, error) { return s.exists, nil }

func (s *fakeSource) ListTracked(context.Context, string, string) ([]git.TrackedFile, error) {
	return s.files, s.listErr
}

func (s *fakeSource) ReadBlobs(_ context.Context, files []git.TrackedFile) (map[string][]byte, error) {
	s.readCalls = append(s.readCalls, files)
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make(map[string][]byte, len(files))
	for _, f := range files {
		out[f.Path] = []byte(s.contents[f.Path])
	}
	return out, nil
}

func TestContentFilename(t *testing.T) {
	tests := []struct {
		name        string
		contentType domain.ContentType
		expected    string
	}{
		{"Q1 Report: v2/final", domain.ContentTypeSQL, "Q1_Report__v2_final.sql"},
		{"Sheet1", domain.ContentTypeSQL, "Sheet1.sql"},
		{"etl job", domain.ContentTypePython, "etl_job.py"},
		{"odd", domain.ContentType("scala"), "odd.sql"},
		{"a:b/c d", domain.ContentTypePython, "a_b_c_d.py"},
		{"", domain.ContentTypeSQL, ".sql"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContentFilename(tt.name, tt.contentType))
		})
	}
}

func TestReconcile_EndToEnd(t *testing.T) {
	src := newFakeSource(map[string]string{
		"Sheet1_metadata.json": `{"_id":"1","name":"Sheet1","folder_id":"f1","folder_name":"F"}`,
		"Sheet1.sql":           "select 1",
	}, "Sheet1.sql", "Sheet1_metadata.json")

	sheets, err := New(src).Load(context.Background(), LoadOptions{Path: "worksheets"})
	require.NoError(t, err)

	assert.Equal(t, []domain.Worksheet{{
		ID:          "1",
		Name:        "Sheet1",
		FolderID:    "f1",
		FolderName:  "F",
		ContentType: domain.ContentTypeSQL,
		Content:     "select 1",
	}}, sheets)

	// one batch for metadata, one read per content file
	require.Len(t, src.readCalls, 2)
	assert.Len(t, src.readCalls[0], 1)
	assert.Equal(t, "Sheet1_metadata.json", src.readCalls[0][0].Path)
	assert.Equal(t, "Sheet1.sql", src.readCalls[1][0].Path)
}

func TestReconcile_NoMetadata(t *testing.T) {
	src := newFakeSource(map[string]string{"a.sql": "select 1"}, "a.sql")

	sheets, err := New(src).Reconcile(context.Background(), src.files, "")
	require.NoError(t, err)
	assert.NotNil(t, sheets)
	assert.Empty(t, sheets)
	assert.Empty(t, src.readCalls)

	sheets, err = New(src).Reconcile(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, sheets)
}

func TestReconcile_ContentTypes(t *testing.T) {
	src := newFakeSource(map[string]string{
		"a_metadata.json": `{"_id":"a","name":"job a","folder_id":"f","folder_name":"F","content_type":"python"}`,
		"b_metadata.json": `{"_id":"b","name":"b","folder_id":"f","folder_name":"F","content_type":null}`,
		"c_metadata.json": `{"_id":null,"name":"c","folder_id":"f","folder_name":"F"}`,
		"job_a.py":        "print(1)",
		"b.sql":           "select b",
		"c.sql":           "select c",
	}, "a_metadata.json", "b.sql", "b_metadata.json", "c.sql", "c_metadata.json", "job_a.py")

	sheets, err := New(src).Reconcile(context.Background(), src.files, "")
	require.NoError(t, err)
	require.Len(t, sheets, 3)

	assert.Equal(t, domain.ContentTypePython, sheets[0].ContentType)
	assert.Equal(t, "print(1)", sheets[0].Content)
	assert.Equal(t, domain.ContentTypeSQL, sheets[1].ContentType)
	assert.Equal(t, "select b", sheets[1].Content)
	assert.Equal(t, "", sheets[2].ID)
	assert.Equal(t, domain.ContentTypeSQL, sheets[2].ContentType)
}

func TestReconcile_OnlyFolder(t *testing.T) {
	src := newFakeSource(map[string]string{
		"1_metadata.json": `{"_id":"1","name":"one","folder_id":"a","folder_name":"A"}`,
		"2_metadata.json": `{"_id":"2","name":"two","folder_id":"b","folder_name":"B"}`,
		"3_metadata.json": `{"_id":"3","name":"three","folder_id":"a","folder_name":"A"}`,
		"4_metadata.json": `{"_id":"4","name":"four","folder_id":"a","folder_name":"a"}`,
		"one.sql":         "1",
		"two.sql":         "2",
		"three.sql":       "3",
		"four.sql":        "4",
	}, "1_metadata.json", "2_metadata.json", "3_metadata.json", "4_metadata.json",
		"four.sql", "one.sql", "three.sql", "two.sql")

	sheets, err := New(src).Reconcile(context.Background(), src.files, "A")
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "one", sheets[0].Name)
	assert.Equal(t, "three", sheets[1].Name)

	sheets, err = New(src).Reconcile(context.Background(), src.files, "C")
	require.NoError(t, err)
	assert.Empty(t, sheets)

	sheets, err = New(src).Reconcile(context.Background(), src.files, "")
	require.NoError(t, err)
	assert.Len(t, sheets, 4)
}

func TestReconcile_MissingContent(t *testing.T) {
	files := map[string]string{
		"a_metadata.json": `{"_id":"a","name":"a","folder_id":"f","folder_name":"F"}`,
		"b_metadata.json": `{"_id":"b","name":"b","folder_id":"f","folder_name":"F"}`,
		"c_metadata.json": `{"_id":"c","name":"c","folder_id":"f","folder_name":"F"}`,
		"a.sql":           "select a",
		"c.sql":           "select c",
	}
	order := []string{"a.sql", "a_metadata.json", "b_metadata.json", "c.sql", "c_metadata.json"}

	t.Run("strict discards everything", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		src := newFakeSource(files, order...)

		sheets, err := New(src, WithLogger(zap.New(core))).Reconcile(context.Background(), src.files, "")
		require.NoError(t, err)
		assert.NotNil(t, sheets)
		assert.Empty(t, sheets)

		entries := logs.FilterMessage("content file not found, discarding all worksheets").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "b.sql", fields["filename"])
		assert.ElementsMatch(t, []interface{}{
			"a.sql", "a_metadata.json", "b_metadata.json", "c.sql", "c_metadata.json",
		}, fields["candidates"])
	})

	t.Run("skip keeps the others", func(t *testing.T) {
		src := newFakeSource(files, order...)

		sheets, err := New(src, WithMissingContentPolicy(PolicySkip)).
			Reconcile(context.Background(), src.files, "")
		require.NoError(t, err)
		require.Len(t, sheets, 2)
		assert.Equal(t, "a", sheets[0].Name)
		assert.Equal(t, "c", sheets[1].Name)
	})

	t.Run("filtered out descriptors are not paired", func(t *testing.T) {
		src := newFakeSource(map[string]string{
			"a_metadata.json": `{"_id":"a","name":"a","folder_id":"f","folder_name":"F"}`,
			"b_metadata.json": `{"_id":"b","name":"b","folder_id":"g","folder_name":"G"}`,
			"a.sql":           "select a",
		}, "a.sql", "a_metadata.json", "b_metadata.json")

		sheets, err := New(src).Reconcile(context.Background(), src.files, "F")
		require.NoError(t, err)
		require.Len(t, sheets, 1)
		assert.Equal(t, "a", sheets[0].Name)
	})
}

func TestReconcile_FirstMatchWins(t *testing.T) {
	src := newFakeSource(map[string]string{
		"A/dup_metadata.json": `{"_id":"1","name":"dup","folder_id":"a","folder_name":"A"}`,
		"A/dup.sql":           "from A",
		"B/dup.sql":           "from B",
	}, "A/dup.sql", "A/dup_metadata.json", "B/dup.sql")

	sheets, err := New(src).Reconcile(context.Background(), src.files, "")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "from A", sheets[0].Content)
}

func TestReconcile_MetadataErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"_id":`},
		{"not an object", `[1,2]`},
		{"missing name", `{"_id":"1","folder_id":"f","folder_name":"F"}`},
		{"missing id", `{"name":"n","folder_id":"f","folder_name":"F"}`},
		{"missing folder id", `{"_id":"1","name":"n","folder_name":"F"}`},
		{"null folder name", `{"_id":"1","name":"n","folder_id":"f","folder_name":null}`},
		{"numeric name", `{"_id":"1","name":3,"folder_id":"f","folder_name":"F"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource(map[string]string{"x_metadata.json": tt.body}, "x_metadata.json")

			sheets, err := New(src).Reconcile(context.Background(), src.files, "")
			require.Error(t, err)
			assert.Nil(t, sheets)
			assert.ErrorIs(t, err, ErrMetadataParse)
			assert.Equal(t, ferrors.CodeInvalidInput, ferrors.GetCode(err))
			assert.Contains(t, err.Error(), "x_metadata.json")
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("source missing", func(t *testing.T) {
		src := newFakeSource(nil)
		src.exists = false

		_, err := New(src).Load(context.Background(), LoadOptions{Path: "nope"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceMissing)
		assert.Equal(t, ferrors.CodeInvalidConfig, ferrors.GetCode(err))
	})

	t.Run("listing error propagates", func(t *testing.T) {
		src := newFakeSource(nil)
		src.listErr = git.ErrRepositoryAccess

		_, err := New(src).Load(context.Background(), LoadOptions{Path: "ws", Branch: "x"})
		assert.ErrorIs(t, err, git.ErrRepositoryAccess)
	})

	t.Run("blob error propagates", func(t *testing.T) {
		src := newFakeSource(map[string]string{"a_metadata.json": "{}"}, "a_metadata.json")
		src.readErr = errors.Join(git.ErrBlobRead, errors.New("corrupt"))

		_, err := New(src).Load(context.Background(), LoadOptions{Path: "ws"})
		assert.ErrorIs(t, err, git.ErrBlobRead)
	})
}

func TestMissingContentPolicy_String(t *testing.T) {
	assert.Equal(t, "strict", PolicyStrict.String())
	assert.Equal(t, "skip", PolicySkip.String())
	assert.Equal(t, "unknown", MissingContentPolicy(7).String())
}
