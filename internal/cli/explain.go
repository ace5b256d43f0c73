package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/breakdown-backend/internal/app"
	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/display"
)

const (
	FormatJSON = "json"
	FormatHTML = "html"
)

type ExplainOptions struct {
	Out    string
	Format string
	Mode   string
	Model  string
}

func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{}

	cmd := &cobra.Command{
		Use:   "explain <concept>",
		Short: "Break a concept down and print the result",
		Long: `Run the breakdown pipeline for one concept.

The result is written as indented JSON, or as the HTML page the server
would show. Failures are written as the error-shaped result and the
command exits non-zero.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd.Context(), rootOpts, opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatJSON, "output format (json|html)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "explainer mode (single_shot|two_stage)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "model id to use for every stage")

	return cmd
}

func runExplain(ctx context.Context, rootOpts *RootOptions, opts *ExplainOptions, concept string, cmd *cobra.Command) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != FormatJSON && format != FormatHTML {
		return fmt.Errorf("invalid format %q: must be json or html", opts.Format)
	}

	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	if err := applyExplainOverrides(cfg, opts); err != nil {
		return err
	}
	log, err := rootOpts.logger(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	services, err := app.WireServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if services.Prober != nil {
		probeCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = services.Prober.Start(probeCtx) }()
	}

	w := cmd.OutOrStdout()
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	res, explainErr := services.Breakdown.Explain(ctx, concept)
	if explainErr != nil {
		er := services.Breakdown.ErrorResult(concept, explainErr)
		if format == FormatHTML {
			if err := display.Render(w, display.Page{Concept: concept, View: display.NewErrorSurface(er).View()}); err != nil {
				return err
			}
		} else if err := writeJSON(w, er); err != nil {
			return err
		}
		return explainErr
	}

	if format == FormatJSON {
		return writeJSON(w, res)
	}

	surface := display.NewSurface(res, services.Library, app.DiagramOptions(cfg.Diagram, log))
	defer surface.Close()
	waitCtx, cancel := context.WithTimeout(ctx, cfg.Diagram.WaitTimeout.Duration)
	defer cancel()
	_ = surface.Wait(waitCtx)
	return display.Render(w, display.Page{Concept: res.Concept, View: surface.View()})
}

func applyExplainOverrides(cfg *config.Config, opts *ExplainOptions) error {
	if m := strings.TrimSpace(opts.Mode); m != "" {
		cfg.Explainer.Mode = m
	}
	if m := strings.TrimSpace(opts.Model); m != "" {
		cfg.Explainer.Model = m
		cfg.Explainer.DiagramModel = m
	}
	return config.Normalize(cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
