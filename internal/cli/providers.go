package cli

import (
	"context"

	"resumeforge/internal/ai"
	"resumeforge/internal/common"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/storage"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the configured AI and storage providers",
	Long: `List the AI and storage providers whose credentials are configured, in
registration order, together with the order auto mode tries them in.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &providersConfig)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithServices(cmd, func(_ context.Context, app *appServices, _ *config.Config, logger *errors.Logger) error {
			output := types.ProvidersOutput{
				AI: types.ProviderListing{
					Domain:    ai.Domain,
					Providers: app.AI.ListAvailableProviders(),
					Priority:  app.AI.Priority(),
				},
				Storage: types.ProviderListing{
					Domain:    storage.Domain,
					Providers: app.Storage.ListAvailableProviders(),
					Priority:  app.Storage.Priority(),
				},
			}
			return common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout()).HandleOutput(output, providersConfig)
		})
	},
}

var providersConfig common.CommandConfig

func init() {
	addOutputFlags(providersCmd, &providersConfig)
}
