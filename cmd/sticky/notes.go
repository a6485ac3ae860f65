package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/sticky/pkg/core"
)

var (
	addID       string
	addColor    string
	addText     string
	addHidden   bool
	addX, addY  float64
	addW, addH  float64
	listJSON    bool
	colorBG     string
	colorFG     string
	textHide    bool
	textToggle  bool
	imageRemove bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a note on top of the sheet",
	Long: `Add a note. Unset fields take the defaults: blue background, white text,
160x160, placed near (100,100) with a little random jitter.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		data := &core.NoteData{
			ID:              addID,
			BackgroundColor: addColor,
			HideText:        addHidden,
		}
		if cmd.Flags().Changed("text") {
			data.Text = &addText
		}
		if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
			data.Position = &core.Position{X: addX, Y: addY}
		}
		if cmd.Flags().Changed("width") || cmd.Flags().Changed("height") {
			data.Dimensions = &core.Dimensions{Width: addW, Height: addH}
			if data.Dimensions.Width == 0 {
				data.Dimensions.Width = core.DefaultWidth
			}
			if data.Dimensions.Height == 0 {
				data.Dimensions.Height = core.DefaultHeight
			}
		}

		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			note, err := w.board.AddNote(data)
			if err != nil {
				return "", err
			}
			fmt.Println(note.ID)
			return "add note " + note.ID, nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the notes of the active sheet, bottom to top",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			notes := w.board.Notes()
			if listJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return "", enc.Encode(notes)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tX\tY\tWIDTH\tHEIGHT\tBACKGROUND\tTEXT\tIMAGE")
			for _, n := range notes {
				text := "-"
				if n.Text != nil {
					text = strconv.Quote(*n.Text)
				}
				image := ""
				if n.Image != "" {
					image = "yes"
				}
				fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\t%s\t%s\t%s\n",
					n.ID, n.Position.X, n.Position.Y, n.Dimensions.Width, n.Dimensions.Height,
					n.BackgroundColor, text, image)
			}
			return "", tw.Flush()
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <note> <x> <y>",
	Short: "Move a note",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		x, y := parseFloat(args[1]), parseFloat(args[2])
		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			return "move note " + args[0], w.board.Move(args[0], core.Position{X: x, Y: y})
		})
	},
}

var resizeCmd = &cobra.Command{
	Use:   "resize <note> <width> <height>",
	Short: "Resize a note",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		width, height := parseFloat(args[1]), parseFloat(args[2])
		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			return "resize note " + args[0], w.board.Resize(args[0], width, height)
		})
	},
}

var colorCmd = &cobra.Command{
	Use:   "color <note>",
	Short: "Recolor a note's background or text",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if colorBG == "" && colorFG == "" {
			fatal("Nothing to do", errors.New("set --bg and/or --fg"))
		}
		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			if colorBG != "" {
				if err := w.board.SetBackgroundColor(args[0], colorBG); err != nil {
					return "", err
				}
			}
			if colorFG != "" {
				if err := w.board.SetTextColor(args[0], colorFG); err != nil {
					return "", err
				}
			}
			return "recolor note " + args[0], nil
		})
	},
}

var textCmd = &cobra.Command{
	Use:   "text <note> [text]",
	Short: "Set, hide or toggle a note's text",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			switch {
			case textToggle:
				return "toggle text of " + id, w.board.ToggleText(id)
			case textHide:
				return "hide text of " + id, w.board.SetText(id, nil)
			case len(args) == 2:
				return "edit text of " + id, w.board.SetText(id, &args[1])
			default:
				return "", errors.New("give the text, --hide or --toggle")
			}
		})
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <note>",
	Aliases: []string{"rm"},
	Short:   "Remove a note",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			return "remove note " + args[0], w.board.RemoveNote(args[0])
		})
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <note>",
	Short: "Raise a note to the top",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			return "select note " + args[0], w.board.Select(args[0])
		})
	},
}

var imageCmd = &cobra.Command{
	Use:   "image <note> [file]",
	Short: "Paste an image file onto a note, or remove it",
	Long:  `Paste an image onto a note. Files that are not images are ignored.`,
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		withSheet(cmd.Context(), func(w *workspace) (string, error) {
			if imageRemove {
				return "remove image of " + id, w.board.RemoveImage(id)
			}
			if len(args) < 2 {
				return "", errors.New("give an image file or --remove")
			}
			f, err := os.Open(args[1])
			if err != nil {
				return "", err
			}
			defer f.Close()

			if err := w.board.PasteImage(cmd.Context(), id, f); err != nil {
				return "", err
			}
			w.board.Wait()
			if note, ok := w.board.Sheet().Note(id); ok && note.Image == "" {
				fmt.Fprintln(os.Stderr, "not an image, note unchanged")
				return "", nil
			}
			return "paste image on " + id, nil
		})
	},
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fatal("Invalid number", err)
	}
	return v
}

func init() {
	addCmd.Flags().StringVar(&addID, "id", "", "Note id (default: generated)")
	addCmd.Flags().StringVar(&addColor, "color", "", "Background color")
	addCmd.Flags().StringVar(&addText, "text", "", "Text")
	addCmd.Flags().BoolVar(&addHidden, "hide-text", false, "Start with the text layer hidden")
	addCmd.Flags().Float64Var(&addX, "x", 0, "X position")
	addCmd.Flags().Float64Var(&addY, "y", 0, "Y position")
	addCmd.Flags().Float64Var(&addW, "width", 0, "Width")
	addCmd.Flags().Float64Var(&addH, "height", 0, "Height")

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	colorCmd.Flags().StringVar(&colorBG, "bg", "", "Background color")
	colorCmd.Flags().StringVar(&colorFG, "fg", "", "Text color")

	textCmd.Flags().BoolVar(&textHide, "hide", false, "Hide the text layer")
	textCmd.Flags().BoolVar(&textToggle, "toggle", false, "Toggle the text layer")

	imageCmd.Flags().BoolVar(&imageRemove, "remove", false, "Remove the image")

	rootCmd.AddCommand(addCmd, listCmd, moveCmd, resizeCmd, colorCmd, textCmd, removeCmd, selectCmd, imageCmd)
}
