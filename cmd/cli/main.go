// Command cli bundles the administrative tooling for CivicFlow.
package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/flintspark/civicflow/cmd/cli/db"
	"github.com/flintspark/civicflow/internal/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(db.Group)
	rootCmd.AddCommand(db.Seed)
	rootCmd.AddCommand(db.Stats)
}

var rootCmd = &cobra.Command{
	Use:  "civicflow-cli",
	Long: `Command line utilities for CivicFlow https://github.com/flintspark/civicflow`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
