package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/passiotour/tourpricing/internal/cli"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage the pricectl configuration file (~/.pricectl/config.yaml).`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long: `Create a default configuration file at ~/.pricectl/config.yaml

Example:
  pricectl config init`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.InitConfig(); err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}
			path, _ := cli.GetConfigPath()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration file created at: %s\n", path)
			fmt.Fprintln(out, "\nEdit it to set your base URLs and API keys, or use 'pricectl config set'.")
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the configuration",
		Long: `Display the current configuration with API keys masked.

Example:
  pricectl config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Default Profile: %s\n\n", cfg.DefaultProfile)
			fmt.Fprintln(out, "Profiles:")
			names := make([]string, 0, len(cfg.Profiles))
			for name := range cfg.Profiles {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				p := cfg.Profiles[name]
				fmt.Fprintf(out, "  %s:\n", name)
				fmt.Fprintf(out, "    base_url: %s\n", p.BaseURL)
				fmt.Fprintf(out, "    api_key: %s\n", cli.MaskKey(p.APIKey))
			}
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <profile.key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Keys are base_url and api_key; the special
key "default" selects the default profile.

Examples:
  pricectl config set local.base_url http://localhost:8080
  pricectl config set prod.api_key tpk_...
  pricectl config set default prod`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if args[0] == "default" {
				cfg.DefaultProfile = args[1]
			} else {
				name, key, ok := strings.Cut(args[0], ".")
				if !ok {
					return fmt.Errorf("invalid key format, expected 'profile.key' (e.g., 'local.base_url')")
				}
				p := cfg.Profiles[name]
				switch key {
				case "base_url":
					p.BaseURL = args[1]
				case "api_key":
					p.APIKey = args[1]
				default:
					return fmt.Errorf("unknown key '%s', valid keys: base_url, api_key", key)
				}
				cfg.Profiles[name] = p
			}

			if err := cli.SaveConfig(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			if !g.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully set %s\n", args[0])
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd, setCmd)
	return cmd
}
