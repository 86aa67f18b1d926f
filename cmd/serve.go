package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chenguangwei/ominiclipper-all-sub003/cmd/config"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/bridge"
)

// NewServeCmd runs the sync bridge until interrupted
func NewServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the capture sync bridge",
		Long: `Start the loopback HTTP bridge that receives captures from the
browser extension. The bound port is advertised through a discovery file in
the home directory so the capture agent finds it automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger()

			svc, err := config.InitService(logger)
			if err != nil {
				return fmt.Errorf("initialize service: %w", err)
			}
			defer svc.Close()

			portFile, err := bridge.DefaultPortFilePath()
			if err != nil {
				return err
			}

			server := bridge.NewServer(portFile, logrus.NewEntry(logger))
			server.SetSession(svc)

			if port == 0 {
				port = viper.GetInt("port")
			}
			if err := server.Start(port); err != nil {
				return fmt.Errorf("start bridge: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sync bridge listening on 127.0.0.1:%d\n", server.Port())

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			server.ClearSession()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to bind (0 picks a free port)")
	return cmd
}
