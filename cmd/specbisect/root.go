package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"specbisect/internal/bisect"
	"specbisect/internal/config"
	"specbisect/internal/logging"
	"specbisect/internal/report"
	"specbisect/internal/runner"
	"specbisect/internal/signature"
)

var logger = zap.NewNop()

type rootFlags struct {
	bisect         bool
	configPath     string
	runnerCmd      string
	verbose        bool
	verifyBaseline bool
	trialTimeout   string
	signature      string
	color          string
	debug          bool
	writeConfig    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "specbisect [flags] [--] [runner args...]",
		Short: "Find the minimal set of examples that reproduces an order-dependent failure",
		Long: `specbisect runs your rspec suite, records which examples fail, then
repeatedly reruns it with chunks of the passing examples removed until only
the examples needed to reproduce the failure are left.

Runner arguments are passed through to every run. Put them after "--" if the
first one starts with a dash.

Examples:
  specbisect --bisect spec/models --order rand --seed 1234
  specbisect --bisect -- --order defined spec/
  DEBUG_RSPEC_BISECT=1 specbisect --bisect spec/features`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zapConfig := zap.NewProductionConfig()
			zapConfig.Encoding = "console"
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if flags.debug {
				zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := zapConfig.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd.Context(), cmd, flags, args, stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().SetInterspersed(false)

	f := cmd.Flags()
	f.BoolVar(&flags.bisect, "bisect", false, "Bisect the failure instead of running the suite once")
	f.StringVar(&flags.configPath, "config", config.DefaultPath, "Config file")
	f.StringVar(&flags.runnerCmd, "runner", "", "Runner command (default \"rspec\")")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Print every trial and the ids kept and dropped per round")
	f.BoolVar(&flags.verifyBaseline, "verify-baseline", false, "Run the full suite twice and abort if the runs disagree")
	f.StringVar(&flags.trialTimeout, "trial-timeout", "", "Kill a run after this long, e.g. 5m (default none)")
	f.StringVar(&flags.signature, "signature", "", "Failure comparison: full or ids")
	f.StringVar(&flags.color, "color", "", "Colour output: auto, always or never")
	f.BoolVar(&flags.debug, "debug", false, "Write the diagnostic log")
	f.BoolVar(&flags.writeConfig, "write-config", false, "Write the effective config to --config and exit")

	return cmd
}

// loadConfig layers file, .env, environment and flags. It returns the
// sources that contributed, for logging once the diagnostic log is up.
func loadConfig(cmd *cobra.Command, flags rootFlags) (*config.Config, []string, error) {
	cfg, sources, err := config.LoadWithSources(flags.configPath)
	if err != nil {
		return nil, nil, err
	}

	changed := cmd.Flags().Changed
	if changed("runner") {
		cfg.Runner.Command = flags.runnerCmd
	}
	if changed("verify-baseline") {
		cfg.Bisect.VerifyBaseline = flags.verifyBaseline
	}
	if changed("trial-timeout") {
		cfg.Runner.TrialTimeout = flags.trialTimeout
	}
	if changed("signature") {
		cfg.Bisect.Signature = flags.signature
	}
	if changed("color") {
		cfg.Report.Color = flags.color
	}
	if changed("debug") {
		cfg.Logging.DebugMode = flags.debug
		cfg.Logging.Level = "debug"
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		sources = append(sources, "flag --"+f.Name)
	})

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, sources, nil
}

func runRoot(ctx context.Context, cmd *cobra.Command, flags rootFlags, args []string, stdout io.Writer) error {
	cfg, sources, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	if err := logging.Initialize(cfg.Logging.Options()); err != nil {
		logger.Warn("Diagnostic log unavailable", zap.Error(err))
	}
	defer logging.CloseAll()
	logging.Boot("specbisect starting: args=%q", args)
	config.LogSources(sources)

	if flags.writeConfig {
		if err := cfg.Save(flags.configPath); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", flags.configPath)
		return nil
	}

	mode, err := signature.ParseMode(cfg.Bisect.Signature)
	if err != nil {
		return err
	}
	client, err := runner.NewClient(runner.Options{
		Command:             cfg.Runner.Command,
		Args:                args,
		Dir:                 cfg.Runner.WorkingDirectory,
		Env:                 cfg.Runner.Env,
		TrialTimeout:        cfg.GetTrialTimeout(),
		MaxOutputBytes:      cfg.Runner.MaxOutputBytes,
		InconsistencyMarker: cfg.Runner.InconsistencyMarker,
		QuoteIDs:            cfg.Runner.QuoteIDs,
		SignatureMode:       mode,
	}, nil)
	if err != nil {
		return err
	}

	parsed := client.Args()
	if !flags.bisect && !parsed.Bisect {
		return passthrough(ctx, client, stdout)
	}

	verbose := flags.verbose || parsed.BisectVerbose || cfg.VerboseFromEnv()
	var human bisect.Reporter = report.NewTerse(stdout, cfg.Report.Color)
	if verbose {
		human = report.NewVerbose(stdout, cfg.Report.Color)
	}

	logger.Debug("Starting bisect",
		zap.String("runner", cfg.Runner.Command),
		zap.Strings("args", parsed.Raw),
		zap.Bool("verbose", verbose),
		zap.Bool("verify_baseline", cfg.Bisect.VerifyBaseline))

	engine := bisect.New(client, report.Multi{human, report.LogReporter{}}, bisect.Options{
		Description:    parsed.String(),
		VerifyBaseline: cfg.Bisect.VerifyBaseline,
	})
	if _, err := engine.Run(ctx); err != nil {
		// The reporter has already explained the failure.
		logger.Debug("Bisect aborted", zap.Error(err))
		return &exitError{code: 1}
	}
	return nil
}

func passthrough(ctx context.Context, client *runner.Client, stdout io.Writer) error {
	code, err := client.Passthrough(ctx, stdout)
	if err != nil {
		if ctx.Err() != nil {
			return &exitError{code: 1}
		}
		return err
	}
	logging.Runner("Pass-through run exited %d", code)
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}
