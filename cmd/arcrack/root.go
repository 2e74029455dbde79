package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/arcrack/internal/config"
)

// NewRootCmd creates the root command for arcrack.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arcrack",
		Short: "Password recovery for encrypted archives",
		Long: `arcrack recovers the password of an encrypted archive you own.

Candidates come from the archive's name and metadata, learned patterns of
earlier successes, dates, keyboard walks, a dictionary and an optional
neural generator. Each candidate is checked by an external test command
(7z by default). Jobs are saved as sessions and can be resumed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(),
		"Directory of the session and pattern database")

	cmd.AddCommand(NewCrackCmd())
	cmd.AddCommand(NewSessionsCmd())
	cmd.AddCommand(NewPatternsCmd())
	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
