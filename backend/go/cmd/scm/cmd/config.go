package cmd

import (
	"SafetyCompliance/backend/go/internal/config"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteTemplate(cfgFile); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Created %s", cfgFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"test"},
	Short:   "Show configuration status and the effective config",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		return showConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func setOrNot(v string) string {
	if v == "" {
		return colored(colorRed, "✗ Not set")
	}
	return colored(colorGreen, "✓ Set")
}

// showConfig 输出凭证状态表和隐藏密钥后的完整配置。
func showConfig(w io.Writer, cfg *config.AppConfig) error {
	rows := [][]string{
		{"LLM Provider", cfg.LLM.Provider},
		{cfg.LLM.CredentialEnv(), setOrNot(cfg.LLM.Credential())},
		{"Model", cfg.LLM.Active().Model},
		{"Database", cfg.Databases.Driver},
		{"API Auth", setOrNot(cfg.Auth.JwtSecret)},
		{"Environment", cfg.App.Environment},
	}
	renderTable(w, "Configuration Status", []string{"Setting", "Status"}, rows)

	data, err := cfg.Masked().Marshal()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, string(data))
	return nil
}
