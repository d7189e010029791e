package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tdambrin/sf-push/config"
	"github.com/tdambrin/sf-push/domain"
	fsb "github.com/tdambrin/sf-push/fs/billy"
	"github.com/tdambrin/sf-push/git"
	"github.com/tdambrin/sf-push/logging"
	"github.com/tdambrin/sf-push/worksheet"
)

// app carries what every subcommand shares.
type app struct {
	v      *viper.Viper
	out    io.Writer
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{
		v:      config.NewViper(),
		out:    out,
		logger: zap.NewNop(),
	}

	rootCmd := &cobra.Command{
		Use:   "sf-push",
		Short: "Replay git-tracked worksheets onto remote accounts",
		Long: `sf-push reads the worksheets tracked under a repository path (one
<name>_metadata.json descriptor plus one content file per worksheet) and
uploads them to every configured account.

Every flag can also be set through its ACTION_ environment variable, for
example --git-root and ACTION_GIT_ROOT.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(a.v)
			logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("git-root", "", "repository root (ACTION_GIT_ROOT)")
	flags.String("worksheets-path", "", "worksheets directory inside the repository (ACTION_WORKSHEETS_PATH)")
	flags.String("branch", "", "branch, tag or commit to read instead of the index (ACTION_BRANCH_NAME)")
	flags.String("only-folder", "", "keep only worksheets of this folder (ACTION_ONLY_FOLDER)")
	flags.Bool("skip-unmatched", false, "skip worksheets without content instead of discarding all (ACTION_SKIP_UNMATCHED)")
	flags.String("log-level", "", "debug, info, warn or error (ACTION_LOG_LEVEL)")
	flags.String("log-format", "", "json or console (ACTION_LOG_FORMAT)")

	for key, name := range map[string]string{
		config.KeyGitRoot:        "git-root",
		config.KeyWorksheetsPath: "worksheets-path",
		config.KeyBranch:         "branch",
		config.KeyOnlyFolder:     "only-folder",
		config.KeySkipUnmatched:  "skip-unmatched",
		config.KeyLogLevel:       "log-level",
		config.KeyLogFormat:      "log-format",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(a.pushCmd())
	rootCmd.AddCommand(a.listCmd())
	rootCmd.AddCommand(a.versionCmd())
	rootCmd.Version = version

	return rootCmd
}

// loadWorksheets reconciles the worksheets cfg points at.
func (a *app) loadWorksheets(ctx context.Context, cfg *config.Config) ([]domain.Worksheet, error) {
	repo, err := git.Open(ctx, &git.Options{FS: fsb.NewOSFS(cfg.GitRoot)})
	if err != nil {
		return nil, err
	}

	policy := worksheet.PolicyStrict
	if cfg.SkipUnmatched {
		policy = worksheet.PolicySkip
	}

	r := worksheet.New(repo,
		worksheet.WithLogger(a.logger),
		worksheet.WithMissingContentPolicy(policy),
	)
	return r.Load(ctx, worksheet.LoadOptions{
		Path:       cfg.WorksheetsPath,
		Branch:     cfg.Branch,
		OnlyFolder: cfg.OnlyFolder,
	})
}
