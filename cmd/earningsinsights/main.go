// earningsinsights scrapes financial statements from SEC EDGAR filings and
// Yahoo Finance, caches them as JSON and serves them over HTTP.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seenimoa/earningsinsights/api"
	"github.com/seenimoa/earningsinsights/internal/cache"
	"github.com/seenimoa/earningsinsights/internal/config"
	"github.com/seenimoa/earningsinsights/internal/financials"
	"github.com/seenimoa/earningsinsights/internal/logging"
	"github.com/seenimoa/earningsinsights/internal/providers/sec"
	"github.com/seenimoa/earningsinsights/internal/providers/yfinance"
	"github.com/seenimoa/earningsinsights/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg    *config.Config
	logger *zap.Logger
	flush  = func() {}
)

func main() {
	err := rootCmd.Execute()
	flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "earningsinsights",
	Short: "Financial statement scraper for SEC filings and Yahoo Finance",
	Long: `earningsinsights extracts income statements, balance sheets and cash flow
statements from a company's recent 10-K/10-Q filings on SEC EDGAR, scrapes
the same statements from Yahoo Finance, and caches the results as JSON.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return eris.Wrap(err, "failed to load config")
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		l, f, err := logging.Setup(cfg.Logging)
		if err != nil {
			return err
		}
		logger, flush = l, f
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(scrapeYahooCmd)
	rootCmd.AddCommand(cikCmd)
	rootCmd.AddCommand(statusCmd)
}

func newService() (*financials.Service, *sec.Provider) {
	secProvider := sec.New(cfg.SEC,
		sec.WithLogger(logger),
		sec.WithMaxRetries(cfg.HTTP.MaxRetries))
	yahoo := yfinance.New(cfg.Yahoo, yfinance.WithLogger(logger))
	svc := financials.NewService(secProvider, yahoo, cache.New(cfg.Cache.Dir),
		financials.WithLogger(logger.Named("financials")),
		financials.WithConcurrency(cfg.SEC.MaxConcurrency))
	return svc, secProvider
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("earningsinsights %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		api.Version = version
		srv, err := api.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
		return srv.ListenAndServe(cmd.Context(), addr)
	},
}

// --- Scrape Command ---

var scrapeCmd = &cobra.Command{
	Use:   "scrape [symbol]",
	Short: "Extract financial statements from recent SEC filings",
	Long: `Extract financial statements from a company's most recent filings.
Annual reports use the last 4 10-K filings, quarterly the last 3 10-Q filings.

Examples:
  earningsinsights scrape AAPL
  earningsinsights scrape MSFT --report-type quarterly --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reportType, _ := cmd.Flags().GetString("report-type")
		force, _ := cmd.Flags().GetBool("force")

		svc, _ := newService()
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.API.RequestTimeout)
		defer cancel()

		data, err := svc.ScrapeFilings(ctx, args[0], reportType, force)
		if err != nil {
			return err
		}
		return printJSON(data)
	},
}

func init() {
	scrapeCmd.Flags().String("report-type", "annual", "annual (10-K) or quarterly (10-Q)")
	scrapeCmd.Flags().Bool("force", false, "ignore cached results")
}

// --- Scrape Yahoo Command ---

var scrapeYahooCmd = &cobra.Command{
	Use:   "scrape-yf [ticker]",
	Short: "Scrape financial statements from Yahoo Finance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		svc, _ := newService()
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.API.RequestTimeout)
		defer cancel()

		data, cached, err := svc.ScrapeYahoo(ctx, args[0], force)
		if err != nil {
			return err
		}
		logger.Info("yahoo finance statements", zap.Bool("cached", cached))
		return printJSON(data)
	},
}

func init() {
	scrapeYahooCmd.Flags().Bool("force", false, "ignore cached results")
}

// --- CIK Command ---

var cikCmd = &cobra.Command{
	Use:   "cik [symbol]",
	Short: "Resolve a ticker symbol to its SEC CIK",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, secProvider := newService()
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.SEC.Timeout)
		defer cancel()

		company, err := secProvider.LookupCompany(ctx, utils.NormalizeTicker(args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  %s\n", company.CIK, company.Symbol, company.Name)
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and check SEC EDGAR connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  earningsinsights — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (ET):     %s\n", utils.NowET().Format(time.RFC1123))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    API Server:      %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Cache Dir:       %s\n", cfg.Cache.Dir)
		fmt.Printf("    SEC User-Agent:  %s\n", cfg.SEC.UserAgent())
		fmt.Printf("    SEC Rate Limit:  %.0f req/s\n", cfg.SEC.RateLimit)
		fmt.Printf("    Filing List:     %s\n", cfg.SEC.ListFormat)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println()

		_, secProvider := newService()
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.SEC.Timeout)
		defer cancel()
		if err := secProvider.Ping(ctx); err != nil {
			fmt.Printf("  SEC EDGAR:     ❌ %v\n", err)
		} else {
			fmt.Println("  SEC EDGAR:     ✅ reachable")
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
