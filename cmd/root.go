package main

import (
	"fmt"
	"os"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/runtime"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

func main() {
	var cfgPath string
	var envFile string
	root := &cobra.Command{
		Use:           "argos",
		Short:         "Research assistant for armed conflict, human rights and IHL",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				return godotenv.Load(envFile)
			}
			// .env is optional
			_ = godotenv.Load()
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before the configuration")

	load := func() (*config.Config, error) {
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			return nil, err
		}
		runtime.InstallLogOutput(cfg.Telemetry)
		return cfg, nil
	}
	root.AddCommand(serveCMD(load), askCMD(load))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
