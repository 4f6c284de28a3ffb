package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nao1215/opsdash/internal/controller"
	"github.com/nao1215/opsdash/internal/report"
)

// NewCamoCmd creates the camo command.
func NewCamoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "camo <image>...",
		Short: "Detect camouflaged objects",
		Long: `Camo uploads images for camouflage detection and prints which ones were
processed. With --download, several results are saved as one zip archive
and a single result as the image itself.

Examples:
  opsdash camo treeline.jpg
  opsdash camo --download -d ./camo ./survey/*.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCamoCmd,
	}
	cmd.Flags().Bool("download", false, "Save the highlighted images in the output directory")
	return cmd
}

func runCamoCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	page := controller.NewCamouflage(a.client, a.controllerOptions()...)
	defer page.Close(context.WithoutCancel(ctx))

	if err := a.stage(page.AddFiles, args); err != nil {
		return err
	}

	gallery, err := page.Process(ctx)
	if err != nil {
		return a.fail("Camouflage Detection", err)
	}
	results := []*report.Result{report.FromCamo(page.Response())}

	download, _ := cmd.Flags().GetBool("download") //nolint:errcheck // flag is always defined
	if download && len(gallery.Items) > 0 {
		var dl *controller.Download
		if gallery.ShowDownloadAll() {
			dl, err = page.DownloadAll(ctx)
		} else {
			dl, err = page.DownloadImage(ctx, gallery.Items[0].Processed)
		}
		if err != nil {
			return a.fail("Camouflage Download", err)
		}
		saved, err := a.save(dl)
		if err != nil {
			return err
		}
		results = append(results, saved)
	}
	return a.write(results...)
}
