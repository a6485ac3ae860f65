package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/aretw0/sticky/internal/httpapi"
	lifecycleadapter "github.com/aretw0/sticky/pkg/adapters/lifecycle"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	Long: `Serve the board over HTTP. GET / routes to the remembered sheet (cookie
sheetId) or a fresh one; /sheets/:id exposes notes, gestures, undo and
import/export. Undo history lives in this process only.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		w, err := openWorkspace(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}
		defer w.close()

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		changes := lifecycleadapter.NewSource(w.board.Changes())
		if err := changes.Start(ctx); err != nil {
			w.close()
			fatal("Failed to start change stream", err)
		}
		go func() {
			for e := range changes.Events() {
				slog.Debug("sheet changed", "event", e.String())
			}
		}()

		addr := w.cfg.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		if err := httpapi.New(w.board, slog.Default()).Run(ctx, addr); err != nil {
			w.close()
			fatal("Server failed", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}
