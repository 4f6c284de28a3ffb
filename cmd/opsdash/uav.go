package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/nao1215/opsdash/internal/controller"
	"github.com/nao1215/opsdash/internal/report"
)

// NewUAVCmd creates the uav command.
func NewUAVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uav <image>...",
		Short: "Detect objects in UAV imagery",
		Long: `UAV uploads aerial images and prints the detections in each one.

Images above the UAV size warning are logged as a warning; the backend
may reject them. The session is deleted when the command ends,
so use --download to keep the annotated images.

Examples:
  opsdash uav frame_001.jpg frame_002.jpg
  opsdash uav --download -d ./results ./flight/*.png

  # Check that the configured cookie is a logged-in session
  opsdash uav --debug-session`,
		Args: cobra.ArbitraryArgs,
		RunE: runUAVCmd,
	}
	cmd.Flags().Bool("download", false, "Save the annotated images as a zip archive in the output directory")
	cmd.Flags().Bool("debug-session", false, "Print how the backend sees the current session and exit")
	return cmd
}

func runUAVCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	page := controller.NewUAV(a.client, a.controllerOptions()...)
	defer page.Close(context.WithoutCancel(ctx))

	if debug, _ := cmd.Flags().GetBool("debug-session"); debug { //nolint:errcheck // flag is always defined
		d, err := page.CheckSession(ctx)
		if err != nil {
			return a.fail("Session", err)
		}
		return a.write(report.FromSessionDebug(d))
	}
	if len(args) == 0 {
		return errors.New("at least one image is required")
	}

	if err := a.stage(page.AddFiles, args); err != nil {
		return err
	}
	for _, row := range page.FileRows() {
		if row.SizeClass == "size-error" {
			a.logger.Warn("large image may be rejected", "name", row.Name, "size", row.Size)
		}
	}

	if _, err := page.Process(ctx); err != nil {
		return a.fail("UAV Detection", err)
	}
	results := []*report.Result{report.FromUAV(page.Response())}

	if download, _ := cmd.Flags().GetBool("download"); download { //nolint:errcheck // flag is always defined
		dl, err := page.Download(ctx)
		if err != nil {
			return a.fail("UAV Download", err)
		}
		saved, err := a.save(dl)
		if err != nil {
			return err
		}
		results = append(results, saved)
	}
	return a.write(results...)
}
