package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caqueta-electoral/divipola/internal/api"
	"github.com/caqueta-electoral/divipola/internal/mqtt"
	"github.com/caqueta-electoral/divipola/internal/runtime"
)

// Command creates the serve command, which exposes the query API.
func Command(rt *runtime.Context) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hierarchy query API",
		Long: `Start the HTTP API for hierarchy queries, result capture and coherence
reports. With mqtt enabled, every stored capture is also published to the
broker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				rt.Settings.WebServer.Port = port
			}

			store, err := rt.Store()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := []api.ServerOption{
				api.WithStore(store),
				api.WithMetrics(rt.Metrics),
				api.WithLogger(rt.Module("api")),
			}

			if mqttSettings := rt.Settings.MQTT; mqttSettings.Enabled {
				log := rt.Module("mqtt")
				client := mqtt.NewClient(mqtt.ConfigFromSettings(mqttSettings), log)
				if err := client.Connect(ctx); err != nil {
					return err
				}
				defer client.Disconnect()
				opts = append(opts, api.WithCapturePublisher(mqtt.NewCapturePublisher(client, mqttSettings.Topic, log)))
			}

			server, err := api.New(rt.Settings, opts...)
			if err != nil {
				return err
			}

			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on, overrides the configured port")

	return cmd
}
