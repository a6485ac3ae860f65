package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/sticky/pkg/board"
	"github.com/aretw0/sticky/pkg/core"
)

var (
	exportOutput string
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a fresh, empty sheet and make it the active one",
	Long: `Start a fresh sheet with a new id. The store only carries the active
sheet, so the previous one is removed from it; export it first to keep it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		w, err := openWorkspace(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}
		defer w.close()

		route := board.ResolveSheet(sheetID, "")
		if err := w.board.Open(ctx, route.ID); err != nil {
			w.close()
			fatal("Failed to open sheet", err)
		}
		if err := w.session.Remember(route.ID); err != nil {
			w.close()
			fatal("Failed to remember sheet", err)
		}
		fmt.Println(route.ID)
	},
}

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List the sheets held by the store",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		w, err := openWorkspace(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}
		defer w.close()

		lister, ok := w.store.(core.Lister)
		if !ok {
			w.close()
			fatal("Cannot list sheets", fmt.Errorf("the %s adapter does not list sheets", w.cfg.Adapter))
		}
		keys, err := lister.Keys(ctx)
		if err != nil {
			w.close()
			fatal("Failed to list sheets", err)
		}

		current, _ := w.session.Current()
		for _, k := range keys {
			marker := " "
			if k == current {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, k)
		}
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the remembered sheet",
	Long:  `Forget the remembered sheet. The next command starts a fresh one unless --sheet is given.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w, err := openWorkspace(cmd.Context())
		if err != nil {
			fatal("Failed to open store", err)
		}
		defer w.close()

		if err := w.session.Forget(); err != nil {
			w.close()
			fatal("Failed to reset", err)
		}
		fmt.Println("Forgot the active sheet.")
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active sheet's save-file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			data, err := w.board.Export()
			if err != nil {
				return "", err
			}
			if exportOutput == "" || exportOutput == "-" {
				_, err = os.Stdout.Write(append(data, '\n'))
				return "", err
			}
			return "", os.WriteFile(exportOutput, data, 0644)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace the notes of the active sheet with a save-file's",
	Long: `Replace every note of the active sheet with the notes of a save-file.
The sheet keeps its id. A file that is not valid JSON changes nothing.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			fatal("Failed to read save-file", err)
		}

		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			if err := w.board.Import(data); err != nil {
				return "", err
			}
			fmt.Printf("Imported %d notes into %s.\n", len(w.board.Notes()), w.board.ID())
			return "import notes", nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")

	rootCmd.AddCommand(newCmd, sheetsCmd, resetCmd, exportCmd, importCmd)
}
