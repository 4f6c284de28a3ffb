package main

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/opsdash/internal/controller"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/report"
)

// NewLiveCmd creates the live command.
func NewLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Follow the live camera detector",
		Long: `Live follows the backend's live detector and prints the detection log
when it ends.

Without --camera the command only watches: it follows detection when it is
started or stopped from another client. With --camera it starts detection
on that source and stops it again on exit unless --keep-running is set.
IP and RTSP sources need --url.

Examples:
  # List the camera sources
  opsdash live --list

  # Run the laptop camera for one minute
  opsdash live --camera 0 --duration 1m

  # Watch an RTSP stream until interrupted
  opsdash live --camera rtsp --url rtsp://10.0.0.8/stream`,
		Args: cobra.NoArgs,
		RunE: runLiveCmd,
	}

	cmd.Flags().BoolP("list", "l", false, "List camera sources and exit")
	cmd.Flags().String("camera", "", "Camera selector value to start detection on")
	cmd.Flags().String("url", "", "Stream URL for ip and rtsp sources")
	cmd.Flags().Duration("duration", 0, "Stop after this long (default: until interrupted)")
	cmd.Flags().Bool("keep-running", false, "Leave detection running on the backend on exit")

	return cmd
}

func runLiveCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	flags := cmd.Flags()
	list, _ := flags.GetBool("list")             //nolint:errcheck // flag is always defined
	camera, _ := flags.GetString("camera")       //nolint:errcheck // flag is always defined
	streamURL, _ := flags.GetString("url")       //nolint:errcheck // flag is always defined
	duration, _ := flags.GetDuration("duration") //nolint:errcheck // flag is always defined
	keep, _ := flags.GetBool("keep-running")     //nolint:errcheck // flag is always defined

	page := controller.NewLive(a.client, a.controllerOptions()...)
	defer page.Close()

	if list {
		if err := page.LoadCameras(ctx); err != nil {
			return a.fail("Cameras", err)
		}
		return a.write(camerasResult(page))
	}

	if err := page.Start(ctx); err != nil {
		return err
	}

	started := false
	if camera != "" {
		if page.SelectCamera(camera) {
			if err := page.SetCustomURL(streamURL); err != nil {
				return err
			}
		}
		if err := page.StartDetection(ctx); err != nil {
			return a.fail("Live Detection", err)
		}
		started = true
		a.logger.Info("detection started", "source", page.Source())
	}

	var timeout <-chan time.Time
	if duration > 0 {
		t := time.NewTimer(duration)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-ctx.Done():
	case <-timeout:
	}

	// ctx may be cancelled by now.
	endCtx, endCancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Timeout)
	defer endCancel()

	if started && !keep {
		if err := page.StopDetection(endCtx); err != nil {
			a.logger.Warn("could not stop detection", "error", err)
		}
	}

	var status *model.LiveStatus
	if s, err := a.client.LiveStatus(endCtx); err != nil {
		a.logger.Warn("live status unavailable", "error", err)
	} else {
		status = s
	}
	return a.write(report.FromLiveDetections(page.DetectionLog().Entries, status))
}

// camerasResult lists the camera selector, without its placeholder.
func camerasResult(page *controller.Live) *report.Result {
	r := report.NewResult("Cameras")
	t := report.Table{Title: "Sources", Header: []string{"Value", "Name", "Type"}}
	for _, c := range page.Cameras() {
		if c.Value == "" {
			continue
		}
		t.Rows = append(t.Rows, []string{c.Value, c.Label, c.Type})
	}
	r.AddField("Sources", strconv.Itoa(len(t.Rows)))
	r.AddTable(t)
	return r
}
