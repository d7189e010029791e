package config

import (
	"fmt"
	"strings"

	"github.com/tdambrin/sf-push/errors"
)

// ValidateSource checks the settings needed to reconcile worksheets.
func (c *Config) ValidateSource() error {
	return joinProblems(c.sourceProblems())
}

// Validate checks everything a push needs: the worksheet source, at least
// one account, and account, username and password lists of equal length.
func (c *Config) Validate() error {
	problems := c.sourceProblems()

	if len(c.Accounts) == 0 {
		problems = append(problems, "at least one account is required ("+envName(KeyAccounts)+")")
	}
	if len(c.Usernames) != len(c.Accounts) || len(c.Passwords) != len(c.Accounts) {
		problems = append(problems, fmt.Sprintf(
			"accounts, usernames and passwords must have the same length (got %d, %d and %d)",
			len(c.Accounts), len(c.Usernames), len(c.Passwords)))
	}
	for i, acc := range c.Accounts {
		if acc == "" {
			problems = append(problems, fmt.Sprintf("account at position %d is empty", i))
		}
	}
	if c.AuthMode == "" {
		problems = append(problems, "auth mode cannot be empty")
	}
	if c.ReportBucket != "" {
		switch c.ReportBackend {
		case BackendS3:
		case BackendMinio:
			if c.MinioEndpoint == "" {
				problems = append(problems, "minio report backend requires "+envName(KeyMinioEndpoint))
			}
		default:
			problems = append(problems, fmt.Sprintf("unknown report backend %q", c.ReportBackend))
		}
	}

	return joinProblems(problems)
}

func (c *Config) sourceProblems() []string {
	var problems []string
	if c.GitRoot == "" {
		problems = append(problems, "git root is required ("+envName(KeyGitRoot)+")")
	}
	if c.WorksheetsPath == "" {
		problems = append(problems, "worksheets path is required ("+envName(KeyWorksheetsPath)+")")
	}
	if c.Concurrency < 1 {
		problems = append(problems, fmt.Sprintf("concurrency must be at least 1 (got %d)", c.Concurrency))
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return errors.New(
		errors.CodeInvalidConfig,
		fmt.Sprintf("configuration validation failed: %s", strings.Join(problems, "; ")),
	)
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}
