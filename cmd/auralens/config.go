package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/auralens/auralens/internal/config"
)

func configCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration the server would run with, after defaults,
the config file and AURALENS_* environment variables are applied.

Examples:
  auralens config
  auralens config --config=/etc/auralens/auralens.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}

	cmd.Flags().StringVarP(&path, "config", "c", "", "Path to auralens.json (default: ./auralens.json if present)")

	return cmd
}

// loadConfig reads .env, then the config file at path or the working
// directory's auralens.json.
func loadConfig(path string) (*config.Config, error) {
	config.LoadDotEnv()
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}
