package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	ferrors "github.com/tdambrin/sf-push/errors"
)

const (
	// OutputEnv names the file GitHub Actions reads step outputs from.
	OutputEnv = "GITHUB_OUTPUT"

	// OutputName is the output the report string is published under.
	OutputName = "upload_report"

	multilineDelimiter = "SF_PUSH_EOF"
)

// GitHubOutput sets step outputs for later workflow steps.
type GitHubOutput struct {
	fs     billy.Filesystem
	path   string
	stdout io.Writer
}

// OutputOption configures a GitHubOutput.
type OutputOption func(*GitHubOutput)

// WithFilesystem sets the filesystem the output file lives on.
// Defaults to the OS filesystem.
func WithFilesystem(fs billy.Filesystem) OutputOption {
	return func(o *GitHubOutput) {
		o.fs = fs
	}
}

// WithStdout sets where ::set-output commands are written. Defaults to os.Stdout.
func WithStdout(w io.Writer) OutputOption {
	return func(o *GitHubOutput) {
		o.stdout = w
	}
}

// NewGitHubOutput returns an output writing to path. An empty path selects
// the ::set-output command form. On the OS filesystem a relative path is
// taken from the working directory.
func NewGitHubOutput(path string, opts ...OutputOption) *GitHubOutput {
	o := &GitHubOutput{
		path:   path,
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = osfs.New("/")
		if path != "" && !filepath.IsAbs(path) {
			if abs, err := filepath.Abs(path); err == nil {
				o.path = abs
			}
		}
	}
	return o
}

// FromEnv returns an output targeting the file named by GITHUB_OUTPUT.
func FromEnv(opts ...OutputOption) *GitHubOutput {
	return NewGitHubOutput(os.Getenv(OutputEnv), opts...)
}

// Set publishes value under name. Values spanning several lines use the
// heredoc form of the output file.
func (o *GitHubOutput) Set(name, value string) error {
	if o.path == "" {
		_, err := fmt.Fprintf(o.stdout, "::set-output name=%s::%s\n", name, value)
		return err
	}

	line := name + "=" + value + "\n"
	if strings.Contains(value, "\n") {
		line = fmt.Sprintf("%s<<%s\n%s\n%s\n", name, multilineDelimiter, value, multilineDelimiter)
	}

	f, err := o.fs.OpenFile(o.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return ferrors.WrapWithContext(err, ferrors.CodePublishFailed,
			"failed to open output file", map[string]interface{}{"path": o.path})
	}

	if _, err := f.Write([]byte(line)); err != nil {
		_ = f.Close()
		return ferrors.WrapWithContext(err, ferrors.CodePublishFailed,
			"failed to write output", map[string]interface{}{"path": o.path, "name": name})
	}
	return f.Close()
}
