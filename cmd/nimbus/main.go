package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	nimbus "github.com/nexxia-ai/nimbus"
	"github.com/nexxia-ai/nimbus/web"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "nimbus",
		Short: "Conversational agent that builds climate data notebooks",
		Long: `nimbus is a chat agent that assembles Jupyter notebooks for Climate
Data Store retrievals and Standardized Precipitation Index computation,
asking the user to confirm tool arguments before anything runs.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")

	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chat and notebook API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := nimbus.LoadConfig(configPath)
			if err != nil {
				return err
			}
			app, err := nimbus.New(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return web.NewServer(app).ListenAndServe()
		},
	}
}

var version = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("nimbus", version)
		},
	}
}
