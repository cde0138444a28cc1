package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/plinth-cms/plinth/internal/config"
	"github.com/plinth-cms/plinth/internal/httpclient"
	"github.com/spf13/cobra"
)

// configKeys lists the settings accepted by 'config set'.
var configKeys = []string{
	"api_url", "website_id", "theme", "layout", "items_per_page",
	"open_in_new_tab", "timeout", "proxy", "no_proxy",
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return config.DefaultConfigPath()
}

func loadConfig(path string) (*config.ClientConfig, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadClient(resolved)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(
		newConfigShowCmd(configPath),
		newConfigSetCmd(configPath),
		newConfigPathCmd(configPath),
	)

	return cmd
}

func newConfigShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			path, _ := resolveConfigPath(*configPath)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file:     %s\n", path)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "API URL:         %s\n", cfg.APIURL)
			fmt.Fprintf(out, "Website ID:      %s\n", valueOrUnset(cfg.WebsiteID))
			fmt.Fprintf(out, "Theme:           %s\n", valueOrUnset(cfg.Theme))
			fmt.Fprintf(out, "Layout:          %s\n", valueOrUnset(cfg.Layout))
			if cfg.ItemsPerPage > 0 {
				fmt.Fprintf(out, "Items per page:  %d\n", cfg.ItemsPerPage)
			}
			fmt.Fprintf(out, "Open in new tab: %v\n", cfg.OpenInNewTab)
			fmt.Fprintf(out, "Timeout:         %s\n", cfg.Timeout)

			proxy, err := httpclient.ParseProxy(cfg.Proxy, cfg.NoProxy)
			if err != nil {
				fmt.Fprintf(out, "Proxy:           invalid (%v)\n", err)
			} else {
				fmt.Fprintf(out, "Proxy:           %s\n", httpclient.ProxyInfo(proxy))
			}
			return nil
		},
	}
}

func newConfigSetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(*configPath)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}

			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s set in %s\n", args[0], path)
			return nil
		},
	}
}

func newConfigPathCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(*configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// setConfigValue assigns value to the setting named key.
func setConfigValue(cfg *config.ClientConfig, key, value string) error {
	switch key {
	case "api_url":
		cfg.APIURL = strings.TrimSuffix(value, "/")
	case "website_id":
		cfg.WebsiteID = value
	case "theme":
		cfg.Theme = value
	case "layout":
		cfg.Layout = value
	case "items_per_page":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("items_per_page must be a number: %w", err)
		}
		cfg.ItemsPerPage = n
	case "open_in_new_tab":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.OpenInNewTab = b
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("timeout must be a duration such as 30s: %w", err)
		}
		cfg.Timeout = d
	case "proxy":
		if _, err := httpclient.ParseProxy(value, ""); err != nil {
			return err
		}
		cfg.Proxy = value
	case "no_proxy":
		cfg.NoProxy = value
	default:
		return fmt.Errorf("unknown key %q (valid keys: %s)", key, strings.Join(configKeys, ", "))
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid value %q: use true or false", value)
	}
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
