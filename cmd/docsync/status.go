package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/econbot/docsync/internal/docsync"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sync state of the tracked document set",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromViper()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			summary, err := docsync.PeekStore(cfg.StatePath())
			if err != nil {
				return err
			}

			indexID := summary.IndexID
			if indexID == "" {
				indexID = gray.Render("(not created yet)")
			} else {
				indexID = cyan.Render(indexID)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Docs dir:      %s\n", cfg.DocsDir)
			fmt.Fprintf(out, "State file:    %s\n", cfg.StatePath())
			fmt.Fprintf(out, "Vector index:  %s\n", indexID)
			fmt.Fprintf(out, "Tracked files: %s\n", green.Render(fmt.Sprintf("%d", summary.Files)))
			return nil
		},
	}
}
