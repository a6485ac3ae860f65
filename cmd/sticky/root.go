package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configFile string
	adapter    string
	storePath  string
	sheetID    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sticky",
	Short: "A sticky-notes board with undo, backed by files, Redis or Postgres",
	Long: `Sticky keeps a sheet of movable, resizable, colorable notes.
Every change is saved after a short quiet period. The active sheet is
remembered in .sticky/current, the way the web front end remembers it in a cookie.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default sticky.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: fs, memory, redis or postgres")
	rootCmd.PersistentFlags().StringVar(&storePath, "path", "", "Directory of the fs adapter")
	rootCmd.PersistentFlags().StringVarP(&sheetID, "sheet", "s", "", "Sheet id (default: the remembered sheet)")
}
