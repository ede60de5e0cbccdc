package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"designagent/internal/gateway/app"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the design API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd, map[string]string{
				"server.host":  "host",
				"server.port":  "port",
				"llm.provider": "provider",
				"llm.model":    "model",
			})
			if err != nil {
				return err
			}
			logger.Info("starting designagent",
				zap.String("version", app.Version),
				zap.String("provider", cfg.LLM.Provider),
				zap.String("model", cfg.LLM.Model),
			)
			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context(), nil)
		},
	}
	cmd.Flags().String("host", "", "listen host (overrides server.host)")
	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	cmd.Flags().String("provider", "", "llm provider: gemini, openai, groq or fake")
	cmd.Flags().String("model", "", "llm model id")
	return cmd
}
