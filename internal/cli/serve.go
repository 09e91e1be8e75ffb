package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagsearch/internal/api"
)

// serveCommand creates the serve command, exposing the pipeline as an
// HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pagsearch HTTP service",
		Long:  `Serve exposes the discovery pipeline over HTTP: POST /v1/search accepts pipeline options and responds with the finished PAG and rendered artifacts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			if addr == "" {
				addr = c.Config.Serve.Addr
			}

			server, err := api.New(api.Config{ListenAddr: addr}, runner, c.Logger)
			if err != nil {
				return err
			}
			return server.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
