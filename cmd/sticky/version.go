package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/sticky"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sticky",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sticky version %s\n", strings.TrimSpace(sticky.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
