package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vcavallo/dcf-estimate/alerts"
	"github.com/vcavallo/dcf-estimate/config"
	"github.com/vcavallo/dcf-estimate/logger"
	"github.com/vcavallo/dcf-estimate/ntfy"
	"github.com/vcavallo/dcf-estimate/report"
	"github.com/vcavallo/dcf-estimate/valuation"
	"github.com/vcavallo/dcf-estimate/yahoo"
)

var (
	configPath    string
	verbose       bool
	compare       bool
	notify        bool
	dryRun        bool
	discountRate  float64
	terminalCap   float64
	projectionYrs int
	defaultGrowth float64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := execute(ctx, newRootCmd())
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// reportedError marks an error whose message was already written for the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// execute runs cmd and prints any error nothing else has reported yet, such
// as bad arguments or unknown flags.
func execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	var rerr *reportedError
	if err != nil && !errors.As(err, &rerr) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dcf-estimate [TICKER]",
		Short:         "Discounted cash flow estimate from Yahoo Finance data",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runEstimateCmd,
	}

	defaults := config.Default().Valuation
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "config.yaml", "path to configuration file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print the cash flow statement and projection")
	flags.BoolVar(&compare, "compare", false, "compare the per-share estimate with the market price")
	flags.BoolVar(&notify, "notify", false, "publish the result to ntfy (implies --compare)")
	flags.BoolVar(&dryRun, "dry-run", false, "with --notify, print the notification instead of sending it")
	flags.Float64Var(&discountRate, "discount-rate", defaults.DiscountRate, "discount rate (WACC)")
	flags.Float64Var(&terminalCap, "terminal-cap", defaults.TerminalGrowthCap, "maximum terminal growth rate")
	flags.IntVar(&projectionYrs, "years", defaults.ProjectionYears, "projection horizon in years")
	flags.Float64Var(&defaultGrowth, "default-growth", defaults.DefaultGrowthRate, "growth rate used when none is reported")

	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.Template())
			return err
		},
	}
}

func runEstimateCmd(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	load := config.LoadOrDefault
	if cmd.Flags().Changed("config") {
		load = config.Load
	}
	cfg, err := load(configPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to load config: %v\n", err)
		return reported(err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return reported(err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if err := logger.Init(level); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	ticker, err := resolveTicker(args, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return reported(err)
	}

	client := yahoo.NewClient(yahoo.WithTimeout(cfg.Yahoo.Timeout))
	a := &app{
		cfg:      cfg,
		provider: client,
		quotes:   client,
		out:      cmd.OutOrStdout(),
		verbose:  verbose,
		compare:  compare || notify,
		notify:   notify,
		dryRun:   dryRun,
	}
	if notify && !dryRun {
		if !cfg.Ntfy.Enabled() {
			err := errors.New("--notify requires ntfy.server and ntfy.topic")
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return reported(err)
		}
		a.sender = ntfy.NewSender(cfg.Ntfy)
	}

	return a.run(cmd.Context(), ticker)
}

// applyFlags overrides config values with flags the user set explicitly
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("discount-rate") {
		cfg.Valuation.DiscountRate = discountRate
	}
	if flags.Changed("terminal-cap") {
		cfg.Valuation.TerminalGrowthCap = terminalCap
	}
	if flags.Changed("years") {
		cfg.Valuation.ProjectionYears = projectionYrs
	}
	if flags.Changed("default-growth") {
		cfg.Valuation.DefaultGrowthRate = defaultGrowth
	}
	return cfg.Validate()
}

// resolveTicker takes the ticker from args, or prompts for one on in
func resolveTicker(args []string, in io.Reader, out io.Writer) (string, error) {
	if len(args) > 0 {
		if t := strings.ToUpper(strings.TrimSpace(args[0])); t != "" {
			return t, nil
		}
		return "", errors.New("ticker is required")
	}

	fmt.Fprint(out, "enter your ticker ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading ticker: %w", err)
	}
	ticker := strings.ToUpper(strings.TrimSpace(line))
	if ticker == "" {
		return "", errors.New("ticker is required")
	}
	return ticker, nil
}

type quoteSource interface {
	GetQuote(ctx context.Context, ticker string) (*yahoo.Quote, error)
}

type notifier interface {
	SendValuation(ctx context.Context, est *valuation.Estimate, signal *alerts.Signal) error
}

// app wires one estimate run; collaborators are interfaces so tests can
// swap out the network.
type app struct {
	cfg      *config.Config
	provider valuation.Provider
	quotes   quoteSource
	sender   notifier
	out      io.Writer

	verbose bool
	compare bool
	notify  bool
	dryRun  bool
}

func (a *app) run(ctx context.Context, ticker string) error {
	est, err := valuation.NewEstimator(a.provider, a.cfg.Valuation).Estimate(ctx, ticker)
	switch {
	case errors.Is(err, valuation.ErrDataUnavailable):
		logger.Debug("free cash flow unavailable", zap.Error(err))
		var dataErr *valuation.DataUnavailableError
		if errors.As(err, &dataErr) {
			if rerr := report.RenderStatement(a.out, dataErr.Statement); rerr != nil {
				return rerr
			}
		}
		fmt.Fprintf(a.out, "Unable to fetch Free Cash Flow for %s. Please check the available cash flow data above.\n", ticker)
		return reported(err)
	case err != nil:
		fmt.Fprintln(a.out, "Error:", err)
		return reported(err)
	}

	if a.verbose {
		if err := report.RenderStatement(a.out, est.Statement); err != nil {
			return err
		}
	}

	if err := report.Render(a.out, est); err != nil {
		return err
	}

	if a.verbose {
		fmt.Fprintln(a.out)
		if err := report.RenderBreakdown(a.out, est); err != nil {
			return err
		}
	}

	var sig *alerts.Signal
	if a.compare && est.PerShare != nil {
		sig = a.evaluate(ctx, est)
	}

	if a.notify {
		return a.publish(ctx, est, sig)
	}
	return nil
}

// evaluate fetches the market price and classifies the estimate. Failures
// are logged; the valuation itself already succeeded.
func (a *app) evaluate(ctx context.Context, est *valuation.Estimate) *alerts.Signal {
	quote, err := a.quotes.GetQuote(ctx, est.Ticker)
	if err != nil {
		logger.Warn("market price unavailable", zap.String("ticker", est.Ticker), zap.Error(err))
		return nil
	}

	sig, ok := alerts.NewEvaluator(a.cfg.Alerts.MarginOfSafety).Evaluate(est, quote)
	if !ok {
		return nil
	}
	fmt.Fprintf(a.out, "Market price for %s: $%.2f (%s)\n", est.Ticker, quote.Price, sig.Verdict)
	return sig
}

func (a *app) publish(ctx context.Context, est *valuation.Estimate, sig *alerts.Signal) error {
	if a.dryRun {
		title, message, _ := ntfy.FormatValuation(est, sig)
		fmt.Fprintln(a.out, "Dry run - would send the following notification:")
		fmt.Fprintf(a.out, "  %s\n", title)
		for _, line := range strings.Split(message, "\n") {
			fmt.Fprintf(a.out, "  %s\n", line)
		}
		return nil
	}

	if err := a.sender.SendValuation(ctx, est, sig); err != nil {
		logger.Error("failed to send notification", zap.String("ticker", est.Ticker), zap.Error(err))
		return reported(fmt.Errorf("sending notification: %w", err))
	}
	fmt.Fprintf(a.out, "✓ Notification sent for %s\n", est.Ticker)
	return nil
}
