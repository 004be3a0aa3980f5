package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/termin-watch/internal/storage"
)

func newStatusCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether an appointment has been recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}

			marker, err := storage.New(cfg.MarkerFile)
			if err != nil {
				return fmt.Errorf("initializing marker: %w", err)
			}
			return WriteStatus(cmd.OutOrStdout(), marker)
		},
	}
}
