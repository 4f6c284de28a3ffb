package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/opsdash/internal/controller"
	"github.com/nao1215/opsdash/internal/report"
	"github.com/nao1215/opsdash/internal/staging"
)

// NewDetectCmd creates the detect command group.
func NewDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run object detection on images or videos",
		Long: `Detect uploads files for object detection and prints the results.

The backend session is deleted when the command ends, so use --download
to keep the annotated files.`,
	}
	cmd.AddCommand(newDetectImagesCmd())
	cmd.AddCommand(newDetectVideosCmd())
	return cmd
}

func addDetectFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("filter", "f", nil,
		"Object classes to keep: all, person, car (repeatable; default all)")
	cmd.Flags().Bool("download", false, "Save the annotated results in the output directory")
}

func newDetectImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images <file>...",
		Short: "Detect objects in images",
		Long: `Images uploads image files, runs detection and prints per-image counts.

Files that are not images are skipped with a warning.

Examples:
  opsdash detect images photo1.jpg photo2.png
  opsdash detect images --filter person --download ./shots/*.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDetectImagesCmd,
	}
	addDetectFlags(cmd)
	return cmd
}

func newDetectVideosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "videos <file>...",
		Short: "Detect objects in videos",
		Long: `Videos uploads video files, waits for the backend to process them and
prints per-video counts. Interrupting the command cancels the job.

Examples:
  opsdash detect videos patrol.mp4
  opsdash detect videos --filter person --filter car --download clip1.mp4 clip2.avi`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDetectVideosCmd,
	}
	addDetectFlags(cmd)
	return cmd
}

// stage adds files through add and logs what the staging filter dropped.
func (a *app) stage(add func(...string) (staging.Result, error), paths []string) error {
	res, err := add(paths...)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		a.logger.Warn(res.Warning)
		for _, s := range res.Skipped {
			a.logger.Debug("skipped file", "path", s.Path, "reason", s.Reason)
		}
	}
	if res.Added == 0 {
		return errors.New("no files to upload")
	}
	return nil
}

func runDetectImagesCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	page := controller.NewDetection(a.client, a.controllerOptions()...)
	defer page.Close(context.WithoutCancel(ctx))

	if err := a.stage(page.AddImages, args); err != nil {
		return err
	}
	filters, err := cmd.Flags().GetStringSlice("filter")
	if err != nil {
		return err
	}
	page.SetImageFilter(filters...)

	job, err := page.ProcessImages(ctx)
	if err != nil {
		return a.fail("Image Detection", err)
	}
	results := []*report.Result{report.FromImages(job.Images)}

	if download, _ := cmd.Flags().GetBool("download"); download { //nolint:errcheck // flag is always defined
		dl, err := page.DownloadAllImages(ctx)
		if err != nil {
			return a.fail("Image Download", err)
		}
		saved, err := a.save(dl)
		if err != nil {
			return err
		}
		results = append(results, saved)
	}
	return a.write(results...)
}

func runDetectVideosCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	page := controller.NewDetection(a.client, a.controllerOptions()...)
	defer page.Close(context.WithoutCancel(ctx))

	if err := a.stage(page.AddVideos, args); err != nil {
		return err
	}
	filters, err := cmd.Flags().GetStringSlice("filter")
	if err != nil {
		return err
	}
	page.SetVideoFilter(filters...)

	job, err := page.ProcessVideos(ctx)
	if errors.Is(err, context.Canceled) {
		if cerr := page.CancelVideo(context.WithoutCancel(ctx)); cerr != nil {
			a.logger.Warn("cancel request failed", "error", cerr)
		}
		return err
	}
	if err != nil {
		return a.fail("Video Detection", err)
	}
	if job.Videos == nil {
		// The session vanished while polling.
		return a.fail("Video Detection", errors.New(job.ErrorMessage))
	}
	results := []*report.Result{report.FromVideos(job.Videos)}

	if download, _ := cmd.Flags().GetBool("download"); download { //nolint:errcheck // flag is always defined
		names := make([]string, len(job.Videos.ProcessedVideos))
		for i, v := range job.Videos.ProcessedVideos {
			names[i] = v.ProcessedName
		}
		saved, err := a.downloadVideos(ctx, page, names)
		if err != nil {
			return a.fail("Video Download", err)
		}
		results = append(results, saved...)
	}
	return a.write(results...)
}

// downloadVideos fetches every processed video, at most Concurrency at a time.
func (a *app) downloadVideos(ctx context.Context, page *controller.Detection, names []string) ([]*report.Result, error) {
	saved := make([]*report.Result, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			dl, err := page.DownloadVideo(ctx, name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			res, err := a.save(dl)
			if err != nil {
				return err
			}
			saved[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return saved, nil
}
