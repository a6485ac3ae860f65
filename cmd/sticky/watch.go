package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	lifecycleadapter "github.com/aretw0/sticky/pkg/adapters/lifecycle"
	"github.com/aretw0/sticky/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Print store changes as they happen",
	Long: `Print CREATE, MODIFY and DELETE events for sheets whose id matches the
glob pattern (default "*"). Works with the fs and redis adapters.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}

		w, err := openWorkspace(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}
		defer w.close()

		watchable, ok := w.store.(core.Watchable)
		if !ok {
			w.close()
			fatal("Cannot watch", fmt.Errorf("the %s adapter does not support watching", w.cfg.Adapter))
		}
		events, err := watchable.Watch(ctx, pattern)
		if err != nil {
			w.close()
			fatal("Failed to watch", err)
		}

		src := lifecycleadapter.NewSource(events)
		if err := src.Start(ctx); err != nil {
			w.close()
			fatal("Failed to start event source", err)
		}
		for e := range src.Events() {
			fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), e.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
