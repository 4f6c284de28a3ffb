package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/opsdash/internal/controller"
	"github.com/nao1215/opsdash/internal/report"
	"github.com/nao1215/opsdash/internal/store"
)

// analysisFlags maps flag names to form fields.
var analysisFlags = []struct {
	flag  string
	field string
	usage string
}{
	{"friendly", "friendly_forces", "Friendly force count (1-10000)"},
	{"enemy", "enemy_forces", "Enemy force count (0-10000)"},
	{"terrain", "terrain", "Terrain type, e.g. urban, forest, desert"},
	{"weather", "weather", "Weather, e.g. clear, rain, fog"},
	{"visibility", "visibility", "Visibility from 1 to 10"},
	{"intel", "intel_confidence", "Intelligence confidence from 1 to 10"},
	{"mission", "mission_type", "Mission type, e.g. assault, defense, recon"},
	{"time", "time_constraint", "Time constraint, e.g. urgent, moderate, flexible"},
	{"civilians", "civilian_presence", "Civilian presence: none, low, medium, high"},
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a battlefield analysis",
		Long: `Analyze sends a battlefield scenario and prints the ranked tactical options.

Form values are saved in a local database under a form session key, so a
later run can restore them with --session KEY --restore and change only
what differs. Civilian presence is never saved.

Examples:
  opsdash analyze --friendly 120 --enemy 80 --terrain urban --weather clear \
    --mission assault --time urgent --civilians low

  # Re-run a saved scenario with more enemies
  opsdash analyze --session 3f2b... --restore --enemy 150 --civilians none`,
		Args: cobra.NoArgs,
		RunE: runAnalyzeCmd,
	}

	for _, f := range analysisFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().String("session", "", "Form session key (default: a new key)")
	cmd.Flags().Bool("restore", false, "Start from the values saved under --session")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	session, err := cmd.Flags().GetString("session")
	if err != nil {
		return err
	}
	restore, err := cmd.Flags().GetBool("restore")
	if err != nil {
		return err
	}
	if restore && session == "" {
		return errors.New("--restore needs --session")
	}
	if session == "" {
		session = store.NewSessionKey()
	}

	fs, err := store.Open(ctx, a.cfg.FormDBPath(), store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open form store: %w", err)
	}
	defer fs.Close()

	page := controller.NewAnalysis(a.client, fs, session, a.controllerOptions()...)
	defer page.Close()

	if restore {
		if err := page.Restore(ctx); err != nil {
			return err
		}
	}

	for _, f := range analysisFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, err := cmd.Flags().GetString(f.flag)
		if err != nil {
			return err
		}
		if err := page.SetField(ctx, f.field, v); err != nil {
			return err
		}
	}

	if _, err := page.Submit(ctx); err != nil {
		if invalid := page.Invalid(); len(invalid) > 0 {
			return fmt.Errorf("%w (fields: %v)", err, invalid)
		}
		return a.fail("Battlefield Analysis", err)
	}

	res := report.FromAnalysis(page.Response())
	res.AddField("Form Session", session)
	return a.write(res)
}
