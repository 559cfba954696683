package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nmsweep/internal/services"
	"nmsweep/internal/worker"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <path>...",
		Short: "Delete the given node_modules directories and report the space freed",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			yes, _ := cmd.Flags().GetBool("yes")
			if asJSON && !yes {
				return newUsageError("--json requires --yes to skip the confirmation prompt")
			}

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := initLogging(settings.cfg); err != nil {
				return err
			}
			defer syncLogging()

			paths, err := absPaths(args)
			if err != nil {
				return err
			}

			if !yes {
				prompt := fmt.Sprintf("Delete %d directories? [y/N] ", len(paths))
				ok, err := confirm(cmd.Context(), prompt, cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "Nothing deleted.") //nolint:errcheck // best-effort output
					return nil
				}
			}

			spawner, err := newSpawner(settings.cfg)
			if err != nil {
				return err
			}
			req := services.DeleteRequest{Paths: paths, SafeMode: settings.cfg.SafeMode}
			result, err := worker.RunDelete(cmd.Context(), spawner, req, nil)
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d directories, freed %d bytes.\n", //nolint:errcheck // best-effort output
					len(result.Deleted), result.BytesReclaimed)
				for index, path := range result.Failed {
					reason := ""
					if index < len(result.Errors) {
						reason = ": " + result.Errors[index]
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not delete %s%s\n", path, reason) //nolint:errcheck // best-effort output
				}
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d of %d paths could not be deleted", len(result.Failed), len(result.Deleted)+len(result.Failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}
