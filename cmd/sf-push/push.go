package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tdambrin/sf-push/config"
	"github.com/tdambrin/sf-push/domain"
	"github.com/tdambrin/sf-push/logging"
	"github.com/tdambrin/sf-push/report"
	"github.com/tdambrin/sf-push/secrets"
	awssecrets "github.com/tdambrin/sf-push/secrets/aws"
	"github.com/tdambrin/sf-push/snowsight"
	"github.com/tdambrin/sf-push/syncer"
)

// secretCacheTTL bounds how long a resolved credential is reused within a run.
const secretCacheTTL = 5 * time.Minute

func (a *app) pushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Reconcile worksheets and upload them to every account",
		Long: `push reconciles the worksheets, then authenticates against each account
and uploads the full set. Accounts, usernames and passwords are comma
separated lists matched by position; passwords are only read from
ACTION_SF_PASSWORDS and may be secret://<provider>/<path>[@version]
references.

The report is printed, published as the upload_report step output and,
when a bucket is configured, archived to S3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.push(cmd.Context(), config.Load(a.v))
		},
	}

	flags := cmd.Flags()
	flags.String("accounts", "", "comma separated account locators (ACTION_SF_ACCOUNTS)")
	flags.String("usernames", "", "comma separated usernames (ACTION_SF_USERNAMES)")
	flags.String("auth-mode", "", "authentication mode (ACTION_AUTH_MODE)")
	flags.Int("concurrency", 0, "accounts synced in parallel (ACTION_CONCURRENCY)")
	flags.Bool("fail-fast", false, "stop at the first authentication failure (ACTION_FAIL_FAST)")
	flags.String("snowsight-url", "", "service root URL (ACTION_SNOWSIGHT_URL)")
	flags.String("report-bucket", "", "S3 bucket reports are archived to (ACTION_REPORT_BUCKET)")
	flags.String("report-prefix", "", "key prefix of archived reports (ACTION_REPORT_PREFIX)")
	flags.String("aws-region", "", "AWS region for S3 and Secrets Manager (ACTION_AWS_REGION)")
	flags.String("aws-endpoint", "", "S3 and Secrets Manager compatible endpoint (ACTION_AWS_ENDPOINT)")
	flags.String("report-backend", "", "s3 or minio (ACTION_REPORT_BACKEND)")
	flags.String("minio-endpoint", "", "MinIO host[:port] (ACTION_MINIO_ENDPOINT)")
	flags.Bool("minio-insecure", false, "talk to MinIO over plain HTTP (ACTION_MINIO_INSECURE)")

	for key, name := range map[string]string{
		config.KeyAccounts:      "accounts",
		config.KeyUsernames:     "usernames",
		config.KeyAuthMode:      "auth-mode",
		config.KeyConcurrency:   "concurrency",
		config.KeyFailFast:      "fail-fast",
		config.KeySnowsightURL:  "snowsight-url",
		config.KeyReportBucket:  "report-bucket",
		config.KeyReportPrefix:  "report-prefix",
		config.KeyAWSRegion:     "aws-region",
		config.KeyAWSEndpoint:   "aws-endpoint",
		config.KeyReportBackend: "report-backend",
		config.KeyMinioEndpoint: "minio-endpoint",
		config.KeyMinioInsecure: "minio-insecure",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}

func (a *app) push(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	worksheets, err := a.loadWorksheets(ctx, cfg)
	if err != nil {
		return err
	}
	logging.Worksheets(a.logger, worksheets)
	if len(worksheets) == 0 {
		a.logger.Warn("no worksheets to upload", zap.String("path", cfg.WorksheetsPath))
	}

	accounts, err := a.resolveAccounts(ctx, cfg)
	if err != nil {
		return err
	}

	client := snowsight.NewClient(
		snowsight.WithBaseURL(cfg.SnowsightURL),
		snowsight.WithLogger(a.logger),
	)
	driver := syncer.New(client, client,
		syncer.WithConcurrency(cfg.Concurrency),
		syncer.WithFailFast(cfg.FailFast),
		syncer.WithAuthMode(cfg.AuthMode),
		syncer.WithLogger(a.logger),
	)

	rep, err := driver.Sync(ctx, accounts, worksheets)
	if err != nil {
		fmt.Fprint(a.out, rep.String())
		return err
	}

	return a.publish(ctx, cfg, rep)
}

// resolveAccounts builds the accounts and swaps secret references for their
// values. Providers are registered only when a reference names them.
func (a *app) resolveAccounts(ctx context.Context, cfg *config.Config) ([]domain.SyncAccount, error) {
	manager := secrets.NewManager(&secrets.Config{Logger: a.logger})
	defer func() { _ = manager.Close() }()

	accounts := cfg.SyncAccounts()
	registered := map[string]bool{}
	for _, acc := range accounts {
		if !secrets.IsRef(acc.Password) {
			continue
		}
		ref, err := secrets.ParseRef(acc.Password)
		if err != nil || registered[ref.Provider] || ref.Provider != "aws" {
			continue
		}

		provider, err := awssecrets.New(ctx,
			awssecrets.WithRegion(cfg.AWSRegion),
			awssecrets.WithEndpoint(cfg.AWSEndpoint),
			awssecrets.WithCacheTTL(secretCacheTTL),
		)
		if err != nil {
			return nil, err
		}
		if err := manager.RegisterProvider(ref.Provider, provider); err != nil {
			return nil, err
		}
		registered[ref.Provider] = true
	}

	return config.ResolvePasswords(ctx, manager, accounts)
}

func (a *app) publish(ctx context.Context, cfg *config.Config, rep domain.UploadReport) error {
	fmt.Fprint(a.out, rep.String())

	data, err := report.Format(rep)
	if err != nil {
		return err
	}
	if err := report.FromEnv(report.WithStdout(a.out)).Set(report.OutputName, string(data)); err != nil {
		return err
	}

	if failed := rep.Failed(); failed > 0 {
		a.logger.Warn("some accounts failed", zap.Int("failed", failed), zap.Int("accounts", len(rep)))
	}

	if cfg.ReportBucket == "" {
		return nil
	}

	archiver, err := a.archiver(ctx, cfg)
	if err != nil {
		return err
	}
	_, err = archiver.Archive(ctx, rep)
	return err
}

func (a *app) archiver(ctx context.Context, cfg *config.Config) (report.Archiver, error) {
	if cfg.ReportBackend == config.BackendMinio {
		return report.NewMinioArchiver(report.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Insecure:  cfg.MinioInsecure,
		}, cfg.ReportBucket,
			report.WithMinioPrefix(cfg.ReportPrefix),
			report.WithMinioLogger(a.logger),
		)
	}

	return report.NewS3Archiver(ctx, cfg.ReportBucket,
		report.WithPrefix(cfg.ReportPrefix),
		report.WithRegion(cfg.AWSRegion),
		report.WithEndpoint(cfg.AWSEndpoint),
		report.WithArchiverLogger(a.logger),
	)
}
