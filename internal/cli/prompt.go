package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/kb"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

func NewPromptCommand(rootOpts *RootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "prompt <concept>",
		Short: "Print the prompt that would be sent for a concept",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if mode == "" {
				mode = cfg.Explainer.Mode
			}
			base := kb.Defaults()
			if cfg.KnowledgeBase.Dir != "" {
				if base, err = kb.Open(cfg.KnowledgeBase.Dir, logger.Nop()); err != nil {
					return err
				}
			}
			prompts, err := breakdown.NewPrompts(base)
			if err != nil {
				return err
			}

			concept := strings.TrimSpace(strings.Join(args, " "))
			w := cmd.OutOrStdout()
			switch mode {
			case config.ModeSingleShot:
				fmt.Fprintln(w, prompts.Breakdown(concept))
			case config.ModeTwoStage:
				fmt.Fprintln(w, prompts.Outline(concept))
				fmt.Fprintln(w, "\n---")
				fmt.Fprintln(w, prompts.Diagrams(concept, ""))
			default:
				return fmt.Errorf("invalid mode %q", mode)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "explainer mode (single_shot|two_stage); defaults to the configured mode")
	return cmd
}
