package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"designagent/internal/config"
	"designagent/internal/gateway/app"
	"designagent/internal/observability"
)

// rootOptions is shared by every subcommand of one command tree.
type rootOptions struct {
	cfgFile string
	v       *viper.Viper
}

// NewRootCommand builds a fresh command tree, so tests never share flag
// state.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "designagent",
		Short:         "Generate UI design specs from a product brief.",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.ReadViper(opts.cfgFile)
			if err != nil {
				return err
			}
			opts.v = v
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.SetVersionTemplate(`{{printf "designagent %s\n" .Version}}`)

	root.AddCommand(
		newServeCommand(opts),
		newGenerateCommand(opts),
		newMCPCommand(),
		newContrastCommand(),
		newVersionCommand(),
	)
	return root
}

// load binds the named flags over the config keys, decodes the result and
// installs the global logger.
func (o *rootOptions) load(cmd *cobra.Command, flagKeys map[string]string) (*config.Config, *zap.Logger, error) {
	if o.v == nil {
		o.v = config.NewViper(o.cfgFile)
	}
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := o.v.BindPFlag(key, f); err != nil {
				return nil, nil, fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}
	cfg, err := config.FromViper(o.v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, observability.Initialize(cfg.Logger), nil
}

func execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		observability.GetLogger().Error("command failed", zap.Error(err))
	}
	observability.Sync()
	return err
}
