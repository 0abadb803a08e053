package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"rsi-dashboard-go/internal/client"
	"rsi-dashboard-go/internal/config"
	"rsi-dashboard-go/internal/logger"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := client.New(cfg.Client, log.Named("client"))
	if _, err := c.Health(ctx); err != nil {
		log.Fatal("Dashboard is not reachable", zap.String("base_url", cfg.Client.BaseURL), zap.Error(err))
	}

	if err := printSummary(ctx, os.Stdout, c); err != nil {
		log.Fatal("Failed to print summary", zap.Error(err))
	}
}

// printSummary writes a one-screen overview of the dashboard to w.
func printSummary(ctx context.Context, w io.Writer, c client.DashboardClient) error {
	stats, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	monitor, err := c.Monitor(ctx)
	if err != nil {
		return err
	}
	trend, err := c.Trend(ctx)
	if err != nil {
		return err
	}
	curve, err := c.Sparkline(ctx)
	if err != nil {
		return err
	}
	trades, err := c.Trades(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Trades: %d  P&L: $%.2f  Win rate: %.1f%%  Losses: $%.2f (%d)\n",
		stats.TotalTrades, stats.TotalPnL, stats.WinRate, -stats.TotalLosses, stats.NumLosses)
	fmt.Fprintf(w, "Price: %.2f  RSI: %.2f  Signal: %s  Status: %s\n",
		monitor.CurrentPrice, monitor.CurrentRSI, monitor.Signal, monitor.Status)
	fmt.Fprintf(w, "Trend: %s %s\n", trend.Trend, trend.Change)
	if n := len(curve.Data); n > 0 {
		fmt.Fprintf(w, "Equity: %s %.2f -> %s %.2f\n", curve.Labels[0], curve.Data[0], curve.Labels[n-1], curve.Data[n-1])
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nID\tTIME\tSIGNAL\tRSI\tENTRY\tEXIT\tPNL")
	for _, t := range trades {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.4f\n",
			t.ID, t.Timestamp.Format("2006-01-02 15:04"), t.Signal, t.RSI, t.EntryPrice, t.ExitPrice, t.PnL)
	}
	return tw.Flush()
}
