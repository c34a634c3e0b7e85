package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/foreman"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of foreman",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "foreman version %s\n", strings.TrimSpace(foreman.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
