package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foxzi/statboard/internal/stats"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	campaigns, err := stats.LoadCampaignData(cfg.Campaigns.DataFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("  Backend: %s (timeout %s)\n", cfg.Backend.BaseURL, cfg.Backend.Timeout)
	fmt.Printf("  Credentials: %s\n", cfg.Credentials.Path)
	fmt.Printf("  Listen address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("  Browser session TTL: %s\n", cfg.Server.SessionTTL)
	fmt.Printf("  TLS: %v\n", cfg.HasTLS())
	fmt.Printf("  Locale: %s\n", cfg.Display.Locale)
	fmt.Printf("  Campaigns: %d (%d metric rows)\n", len(campaigns.Campaigns), len(campaigns.Metrics))
	if cfg.Metrics.Enabled {
		fmt.Printf("  Metrics: %s\n", cfg.Metrics.Path)
	}

	return nil
}
