package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/swarmcouncil/agents"
)

// newConfigCmd registers subcommands that inspect or mutate config.yaml.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or modify config.yaml",
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd())
	return cmd
}

// newConfigGetCmd prints the effective value referenced by a dotted key:
// defaults, then config.yaml, then COUNCIL_ environment overrides.
func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Read an effective config value by dotted key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := agents.EffectiveSettings(cfgFile, ensureWorkspace())
			if err != nil {
				return err
			}
			key := strings.ToLower(args[0])
			value, ok := getConfigValue(data, key)
			if !ok {
				return fmt.Errorf("key %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), prettyValue(key, value))
			return nil
		},
	}
}

// newConfigSetCmd updates a dotted key with the provided value. The edited
// file must still load, so a bad value never lands on disk.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Update a config value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readConfigMap(cfgFile)
			if err != nil {
				return err
			}
			previous, err := readConfigMap(cfgFile)
			if err != nil {
				return err
			}
			if err := setConfigValue(data, args[0], parseValue(args[1])); err != nil {
				return err
			}
			if err := writeConfigMap(cfgFile, data); err != nil {
				return err
			}
			if _, err := agents.LoadConfig(cfgFile, ensureWorkspace()); err != nil {
				if restoreErr := writeConfigMap(cfgFile, previous); restoreErr != nil {
					return fmt.Errorf("%w (restore failed: %v)", err, restoreErr)
				}
				return fmt.Errorf("rejected %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	}
}
