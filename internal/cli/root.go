package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "breakdownctl",
		Short: "Break concepts down into definitions, examples and diagrams",
		Long: `breakdownctl runs the concept breakdown pipeline from the command line.

It uses the same configuration as the breakdown server: BREAKDOWN_CONFIG_PATH
or ./config/config.{json,yaml,yml}, overridden by --config.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log pipeline activity to stderr")

	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewPromptCommand(opts))
	cmd.AddCommand(NewKBCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	if strings.TrimSpace(o.ConfigPath) == "" {
		return config.Load()
	}
	return config.LoadFile(o.ConfigPath)
}

func (o *RootOptions) logger(env string) (*logger.Logger, error) {
	if !o.Verbose {
		return logger.Nop(), nil
	}
	log, err := logger.New(env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}
