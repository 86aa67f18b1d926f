package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chenguangwei/ominiclipper-all-sub003/cmd"
	"github.com/chenguangwei/ominiclipper-all-sub003/cmd/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "omniclipper",
		Short: "A local-first personal content library",
		Long: `omniclipper keeps captured web pages, articles and files in a
local, crash-safe library and receives new captures from the browser
extension through a loopback sync bridge.`,
		SilenceUsage: true,
	}

	config.AddGlobalFlags(rootCmd)
	cobra.OnInitialize(config.InitConfig)

	rootCmd.AddCommand(cmd.NewServeCmd())
	rootCmd.AddCommand(cmd.NewListCmd())
	rootCmd.AddCommand(cmd.NewBackupCmd())
	rootCmd.AddCommand(cmd.NewQueueCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
