package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/igsrindex/internal/config"
	"github.com/kailas-cloud/igsrindex/internal/domain"
	logpkg "github.com/kailas-cloud/igsrindex/internal/logger"
	"github.com/kailas-cloud/igsrindex/internal/metrics"
	"github.com/kailas-cloud/igsrindex/internal/usecase/health"
	"github.com/kailas-cloud/igsrindex/internal/usecase/indexing"
	"github.com/kailas-cloud/igsrindex/internal/version"
)

// kindCommands names one subcommand per kind, with the spellings operators use.
var kindCommands = []struct {
	kind    domain.Kind
	use     string
	aliases []string
	short   string
}{
	{domain.KindPopulation, "population", []string{"population_index"}, "Index populations"},
	{domain.KindSample, "sample", []string{"samples", "sample_index"}, "Index samples"},
	{domain.KindFile, "file", []string{"files", "file_index"}, "Index files"},
	{domain.KindDataCollection, "data-collection",
		[]string{"data_collection", "data_collections", "data_collection_index"}, "Index data collections"},
	{domain.KindSuperpopulation, "superpopulation",
		[]string{"super-population", "super_population_index"}, "Index superpopulations"},
	{domain.KindAnalysisGroup, "analysis-group",
		[]string{"analysis_group", "analysis_group_index"}, "Index analysis groups"},
}

// app holds the command line state and its injectable dependencies.
type app struct {
	connect   connectFunc
	newLogger func(env, level string) (*zap.Logger, error)

	configPath string
	env        string
	endpoints  []string
	mode       string
	index      string
	strict     bool
	prune      bool
}

func newApp(c connectFunc) *app {
	return &app{
		connect: c,
		newLogger: func(env, level string) (*zap.Logger, error) {
			return logpkg.NewLogger(env, level)
		},
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "igsrindex",
		Short:         "Build IGSR search documents and publish them to a document store",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError{fmt.Errorf("unknown command %q", args[0])}
			}
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to a YAML config file (default config/<env>.yaml)")
	pf.StringVar(&a.env, "env", config.GetEnv(), "environment: local, docker or prod")
	pf.StringSliceVar(&a.endpoints, "endpoint", nil, "document store address, overrides store.addrs")

	for _, kc := range kindCommands {
		root.AddCommand(a.kindCmd(kc.kind, kc.use, kc.aliases, kc.short))
	}
	root.AddCommand(a.checkCmd(), a.versionCmd())
	return root
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

func (a *app) kindCmd(kind domain.Kind, use string, aliases []string, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use,
		Aliases: aliases,
		Short:   short,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runKind(cmd, kind)
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.mode, "mode", string(domain.ModeUpdate), "create a new index or update an existing one: create|update")
	f.StringVar(&a.index, "index", "", "destination index, overrides the configured name")
	f.BoolVar(&a.strict, "strict", false, "exit non-zero when any document fails to publish")
	if kind == domain.KindFile {
		f.BoolVar(&a.prune, "prune", false, "delete files that left the current tree (update mode)")
	}
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the row source and the document store are reachable",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			report := health.New(sess.be.source, sess.be.store).Check(sess.ctx)
			out := cmd.OutOrStdout()
			for _, name := range []string{health.Source, health.Store} {
				_, _ = fmt.Fprintf(out, "%s: %s\n", name, report.Checks[name])
			}
			return report.Err()
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func (a *app) runKind(cmd *cobra.Command, kind domain.Kind) error {
	mode, err := domain.ParseMode(a.mode)
	if err != nil {
		return usageError{err}
	}
	if a.prune && mode != domain.ModeUpdate {
		return usageError{fmt.Errorf("--prune requires --mode update")}
	}

	sess, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer sess.close()
	ctx, cfg, be := sess.ctx, sess.cfg, sess.be

	if err := health.New(be.source, be.store).Check(ctx).Err(); err != nil {
		return err
	}

	index := a.index
	if index == "" {
		index = cfg.Index(string(kind)).Name
	}
	svc := indexing.New(be.source, be.store, be.descriptors)
	sum, runErr := svc.Run(ctx, indexing.Options{
		Kind:             kind,
		Mode:             mode,
		Index:            index,
		Prune:            a.prune,
		PreloadBatchSize: cfg.Source.PreloadBatchSize,
		BulkBatchSize:    cfg.Store.BulkBatchSize,
	})
	a.pushMetrics(ctx, cfg.Metrics, kind)
	if runErr != nil {
		return runErr
	}

	printSummary(cmd.OutOrStdout(), sum)
	if a.strict && sum.Outcome.Failed() > 0 {
		return fmt.Errorf("%w: %d of %d", errPartial, sum.Outcome.Failed(), sum.Outcome.Total)
	}
	return nil
}

// session is the state shared by commands that talk to the backend.
type session struct {
	ctx   context.Context
	cfg   config.Config
	be    *backend
	close func()
}

// open loads config, builds the logger and connects the backend.
func (a *app) open(cmd *cobra.Command) (*session, error) {
	var (
		cfg config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load(a.env)
	}
	if err != nil {
		return nil, err
	}
	if len(a.endpoints) > 0 {
		cfg.Store.Addrs = a.endpoints
	}

	log, err := a.newLogger(a.env, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	ctx = logpkg.ContextWithLogger(ctx, log)

	log.Debug("starting",
		zap.String("version", version.Version),
		zap.String("env", a.env),
		zap.String("source_driver", cfg.Source.Driver),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Strings("store_addrs", cfg.Store.Addrs),
	)

	be, err := a.connect(ctx, cfg)
	if err != nil {
		stop()
		_ = log.Sync()
		return nil, err
	}
	return &session{
		ctx: ctx,
		cfg: cfg,
		be:  be,
		close: func() {
			be.close()
			stop()
			_ = log.Sync()
		},
	}, nil
}

func (a *app) pushMetrics(ctx context.Context, cfg config.MetricsConfig, kind domain.Kind) {
	if cfg.PushgatewayURL == "" {
		return
	}
	if err := metrics.Push(ctx, cfg.PushgatewayURL, cfg.Job, string(kind)); err != nil {
		logpkg.FromContext(ctx).Warn("metrics push failed", zap.Error(err))
	}
}

func printSummary(w io.Writer, s indexing.Summary) {
	_, _ = fmt.Fprintf(w, "%s: built %d, skipped %d, published %d, failed %d",
		s.Kind, s.Built, s.Skipped, s.Outcome.Succeeded, s.Outcome.Failed())
	if s.Pruned > 0 {
		_, _ = fmt.Fprintf(w, ", pruned %d", s.Pruned)
	}
	_, _ = fmt.Fprintf(w, " (index %s, run %s, %s)\n", s.Index, s.RunID, s.Duration.Round(time.Millisecond))
	for _, f := range s.Outcome.Failures {
		_, _ = fmt.Fprintf(w, "  failed %s: %v\n", f.ID(), f.Err())
	}
}
