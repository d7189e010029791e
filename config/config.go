// Package config loads sf-push settings from the environment and CLI flags.
//
// Every key is read from an ACTION_ prefixed environment variable (the names
// a CI action exports), and a flag bound to the same key overrides it:
//
//	v := config.NewViper()
//	_ = v.BindPFlag(config.KeyGitRoot, cmd.Flags().Lookup("git-root"))
//
//	cfg := config.Load(v)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Account, username and password lists are comma separated and matched by
// position. Passwords may be secret:// references; ResolvePasswords swaps
// them for their values right before the sync runs.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/tdambrin/sf-push/domain"
)

// EnvPrefix prefixes every environment variable read by NewViper.
const EnvPrefix = "ACTION"

// Keys, one per setting. The environment variable of a key is
// ACTION_<KEY> in upper case.
const (
	KeyGitRoot        = "git_root"
	KeyWorksheetsPath = "worksheets_path"
	KeyAccounts       = "sf_accounts"
	KeyUsernames      = "sf_usernames"
	KeyPasswords      = "sf_passwords"
	KeyOnlyFolder     = "only_folder"
	KeyBranch         = "branch_name"
	KeyAuthMode       = "auth_mode"
	KeyConcurrency    = "concurrency"
	KeyFailFast       = "fail_fast"
	KeySkipUnmatched  = "skip_unmatched"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyReportBucket   = "report_bucket"
	KeyReportPrefix   = "report_prefix"
	KeyReportBackend  = "report_backend"
	KeyMinioEndpoint  = "minio_endpoint"
	KeyMinioAccessKey = "minio_access_key"
	KeyMinioSecretKey = "minio_secret_key"
	KeyMinioInsecure  = "minio_insecure"
	KeyAWSRegion      = "aws_region"
	KeyAWSEndpoint    = "aws_endpoint"
	KeySnowsightURL   = "snowsight_url"
)

const (
	// DefaultConcurrency runs accounts one after another.
	DefaultConcurrency = 1

	// DefaultLogLevel is used when ACTION_LOG_LEVEL is unset.
	DefaultLogLevel = "info"

	// DefaultLogFormat is used when ACTION_LOG_FORMAT is unset.
	DefaultLogFormat = "json"
)

// Report archive backends.
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// Config is the resolved configuration of one run.
type Config struct {
	GitRoot        string
	WorksheetsPath string
	Branch         string
	OnlyFolder     string

	Accounts  []string
	Usernames []string
	Passwords []string

	AuthMode      domain.AuthMode
	Concurrency   int
	FailFast      bool
	SkipUnmatched bool

	LogLevel  string
	LogFormat string

	ReportBucket  string
	ReportPrefix  string
	ReportBackend string
	AWSRegion     string
	AWSEndpoint   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioInsecure  bool

	SnowsightURL string
}

// NewViper returns a viper instance reading ACTION_* variables with the
// defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyAuthMode, string(domain.AuthModePassword))
	v.SetDefault(KeyConcurrency, DefaultConcurrency)
	v.SetDefault(KeyFailFast, false)
	v.SetDefault(KeySkipUnmatched, false)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyReportBackend, BackendS3)

	return v
}

// Load reads every key from v. It does not validate; see Validate and
// ValidateSource.
func Load(v *viper.Viper) *Config {
	return &Config{
		GitRoot:        strings.TrimSpace(v.GetString(KeyGitRoot)),
		WorksheetsPath: strings.TrimSpace(v.GetString(KeyWorksheetsPath)),
		Branch:         strings.TrimSpace(v.GetString(KeyBranch)),
		OnlyFolder:     v.GetString(KeyOnlyFolder),
		Accounts:       ParseList(v.GetString(KeyAccounts)),
		Usernames:      ParseList(v.GetString(KeyUsernames)),
		Passwords:      ParseList(v.GetString(KeyPasswords)),
		AuthMode:       domain.AuthMode(strings.ToUpper(strings.TrimSpace(v.GetString(KeyAuthMode)))),
		Concurrency:    v.GetInt(KeyConcurrency),
		FailFast:       v.GetBool(KeyFailFast),
		SkipUnmatched:  v.GetBool(KeySkipUnmatched),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
		ReportBucket:   v.GetString(KeyReportBucket),
		ReportPrefix:   v.GetString(KeyReportPrefix),
		ReportBackend:  strings.ToLower(strings.TrimSpace(v.GetString(KeyReportBackend))),
		MinioEndpoint:  v.GetString(KeyMinioEndpoint),
		MinioAccessKey: v.GetString(KeyMinioAccessKey),
		MinioSecretKey: v.GetString(KeyMinioSecretKey),
		MinioInsecure:  v.GetBool(KeyMinioInsecure),
		AWSRegion:      v.GetString(KeyAWSRegion),
		AWSEndpoint:    v.GetString(KeyAWSEndpoint),
		SnowsightURL:   v.GetString(KeySnowsightURL),
	}
}

// ParseList splits a comma separated value and trims every item.
// An empty or blank value yields nil.
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// SyncAccounts pairs accounts, usernames and passwords by position.
// Call Validate first; extra usernames or passwords are ignored.
func (c *Config) SyncAccounts() []domain.SyncAccount {
	accounts := make([]domain.SyncAccount, 0, len(c.Accounts))
	for i, acc := range c.Accounts {
		sa := domain.SyncAccount{Account: acc}
		if i < len(c.Usernames) {
			sa.Username = c.Usernames[i]
		}
		if i < len(c.Passwords) {
			sa.Password = c.Passwords[i]
		}
		accounts = append(accounts, sa)
	}
	return accounts
}
