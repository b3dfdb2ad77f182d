// Command list42 is a terminal client for a shared grocery list.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	listFlag   string
)

var rootCmd = &cobra.Command{
	Use:           "list42",
	Short:         "A shared grocery list in your terminal",
	Long:          "list42 opens your grocery list. Run it without a command for the interactive view.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&listFlag, "list", "", "list id to use instead of the selected one")
	rootCmd.AddCommand(
		loginCmd, logoutCmd,
		listsCmd, showCmd, addCmd, doneCmd, undoCmd, rmCmd,
		shareCmd, redeemCmd, useCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
