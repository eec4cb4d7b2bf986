package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Harvey-AU/carpenter-bee/internal/crawler"
	"github.com/Harvey-AU/carpenter-bee/internal/scope"
	"github.com/Harvey-AU/carpenter-bee/internal/storage"
	"github.com/Harvey-AU/carpenter-bee/internal/util"
)

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "carpenter-bee",
		Short:         "Crawl a site and harvest its page content",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCrawlCmd(logger))
	return root
}

// crawlFlags holds the CLI surface of the crawl command. Delays are seconds
// to keep the flags readable.
type crawlFlags struct {
	profile       string
	depth         int
	concurrency   int
	delay         float64
	retries       int
	backoffFactor float64
	scopePolicy   string
	robots        bool
	userAgent     string
	outputDir     string
	outputFile    string
	format        string
}

func newCrawlCmd(logger zerolog.Logger) *cobra.Command {
	flags := &crawlFlags{}

	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl every in-scope page reachable from a seed URL",
		Long: `Crawl discovers and visits pages reachable from the seed URL within its
domain scope, up to the configured depth, and saves the cleaned content of
each page. Output is one file per page, or a single consolidated document
when --output-file is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, args, flags, logger)
		},
	}

	cmd.Flags().StringVar(&flags.profile, "config", "", "YAML crawl profile (flags override its values)")
	cmd.Flags().IntVarP(&flags.depth, "depth", "d", 3, "maximum link depth from the seed (1-15)")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "c", 5, "number of concurrent workers (1-20)")
	cmd.Flags().Float64Var(&flags.delay, "delay", 1.0, "delay between requests in seconds (0.1-5.0)")
	cmd.Flags().IntVar(&flags.retries, "retries", 3, "retries after a failed fetch (0 disables retrying)")
	cmd.Flags().Float64Var(&flags.backoffFactor, "backoff-factor", 1.5, "exponential backoff growth factor (1.0-5.0)")
	cmd.Flags().StringVar(&flags.scopePolicy, "scope", string(scope.PolicyRegistrableDomain), "domain scope policy: registrable-domain or exact-host")
	cmd.Flags().BoolVar(&flags.robots, "robots", true, "respect robots.txt rules")
	cmd.Flags().StringVar(&flags.userAgent, "user-agent", "", "override the default user agent")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "output", "directory for per-page files")
	cmd.Flags().StringVar(&flags.outputFile, "output-file", "", "write a single consolidated file instead of per-page files")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "txt", "output format: txt, md or json")

	return cmd
}

func runCrawl(cmd *cobra.Command, args []string, flags *crawlFlags, logger zerolog.Logger) error {
	cfg, err := buildConfig(cmd, args, flags)
	if err != nil {
		return err
	}

	format, err := storage.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	fetcher := crawler.New(cfg, logger)
	engine, err := crawler.NewEngine(cfg, fetcher, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results, err := engine.Run(ctx)
	if err != nil {
		logger.Warn().Err(err).Int("pages", len(results)).Msg("Crawl interrupted, saving partial results")
	}

	logger.Info().
		Int("pages", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("Crawl finished")

	if len(results) == 0 {
		return fmt.Errorf("no pages crawled from %s", cfg.SeedURL)
	}

	if flags.outputFile != "" {
		if err := storage.SaveConsolidated(results, flags.outputFile, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d pages to %s\n", len(results), flags.outputFile)
		return nil
	}

	saved, err := storage.SavePages(results, flags.outputDir, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d pages to %s/\n", len(saved), flags.outputDir)
	return nil
}

// buildConfig layers the crawl configuration: defaults, then the YAML
// profile when given, then any flags the user set explicitly.
func buildConfig(cmd *cobra.Command, args []string, flags *crawlFlags) (*crawler.Config, error) {
	var cfg *crawler.Config
	var err error

	if flags.profile != "" {
		cfg, err = crawler.LoadProfile(flags.profile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = crawler.DefaultConfig()
	}

	if len(args) > 0 {
		cfg.SeedURL = util.EnsureScheme(args[0])
	}
	if cfg.SeedURL == "" {
		return nil, fmt.Errorf("a seed URL is required (argument or profile url)")
	}

	if cmd.Flags().Changed("depth") {
		cfg.Depth = flags.depth
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flags.concurrency
	}
	if cmd.Flags().Changed("delay") {
		cfg.RequestDelay = time.Duration(flags.delay * float64(time.Second))
	}
	if cmd.Flags().Changed("retries") {
		cfg.RetryAttempts = flags.retries
	}
	if cmd.Flags().Changed("backoff-factor") {
		cfg.RetryBackoffFactor = flags.backoffFactor
	}
	if cmd.Flags().Changed("scope") {
		policy, err := scope.ParsePolicy(flags.scopePolicy)
		if err != nil {
			return nil, err
		}
		cfg.ScopePolicy = policy
	}
	if cmd.Flags().Changed("robots") {
		cfg.RespectRobots = flags.robots
	}
	if flags.userAgent != "" {
		cfg.UserAgent = flags.userAgent
	}

	return cfg, nil
}
