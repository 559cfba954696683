package cli

import (
	"github.com/spf13/cobra"

	"nmsweep/internal/logging"
	"nmsweep/internal/worker"
)

// newWorkerCmd is the subprocess side of the worker protocol. The caller
// writes START to stdin and reads MESSAGE and DONE envelopes from stdout;
// logs go to stderr, which the caller keeps for error reports.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "worker <scan|delete>",
		Short:  "Serve one scan or delete job over stdin and stdout",
		Hidden: true,
		Args:   usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := worker.ParseKind(args[0])
			if err != nil {
				return &UsageError{Err: err}
			}
			handler, err := worker.DefaultHandlers().For(kind)
			if err != nil {
				return err
			}
			if err := logging.Init(logging.Config{Level: "warn", Format: "console", OutputPath: "stderr"}); err != nil {
				return err
			}
			defer syncLogging()

			return worker.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), handler)
		},
	}
}
