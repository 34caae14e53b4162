package command

import (
	"github.com/spf13/cobra"

	"deckd/internal/di"
	"deckd/internal/structures"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")

			app, err := di.InitApp(&structures.CliFlags{ConfigPath: configPath, DebugMode: debug})
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}

	cmd.Flags().StringP("config", "c", "config/deckd.yaml", "path to the YAML config file")
	cmd.Flags().Bool("debug", false, "mirror logs to the console")
	return cmd
}
