package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"studynotes-dashboard/internal/services"
)

func newExportCommand(app *App) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export <note-id>",
		Short: "Download a note as pdf, markdown or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.signedIn()
			if err != nil {
				return err
			}

			res, err := services.NewExportService(c).Export(cmd.Context(), args[0], format)
			if err != nil {
				return describe(err)
			}

			path := out
			if path == "" {
				path = res.Filename
			}
			if err := os.WriteFile(path, res.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}

			if res.Pages > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d pages)\n", path, res.Pages)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(res.Data))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "pdf", "pdf, markdown or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to the server's file name)")
	return cmd
}
