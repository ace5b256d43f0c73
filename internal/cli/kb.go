package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/breakdown-backend/internal/kb"
)

func NewKBCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage the prompt knowledge base",
	}
	cmd.AddCommand(newKBInitCommand(rootOpts))
	return cmd
}

func newKBInitCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default knowledge base documents to a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(dir) == "" {
				cfg, err := rootOpts.loadConfig()
				if err != nil {
					return err
				}
				dir = cfg.KnowledgeBase.Dir
			}
			if strings.TrimSpace(dir) == "" {
				return fmt.Errorf("no directory: pass --dir or set knowledge_base.dir")
			}
			if err := kb.Seed(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d documents in %s\n", len(kb.Defaults().IDs()), dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "target directory (default: knowledge_base.dir)")
	return cmd
}
