// Package config provides the "sheetkit config" commands.
package config

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sheetkit configuration",
		Long: `View and change the settings in ~/.sheetkit/config.yaml.

Every key can be overridden with a SHEETKIT_* environment variable, for
example SHEETKIT_STORE_BACKEND=sqlite, or from a .env file in the working
directory.`,
	}

	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newResetCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newEnvCommand())

	return cmd
}

func newInitCommand() *cobra.Command {
	var noInteractive bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Walk through the storage, import and output settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			if noInteractive {
				return config.WizardNonInteractive()
			}
			return config.Wizard(nil)
		},
	}
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Write the defaults without prompting")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show every setting grouped by section",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return output.PrintJSON("config show", values())
			}
			fmt.Print(config.ShowConfig())
			return nil
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Change a setting and save the config file",
		Example:           "  sheetkit config set store.backend sqlite\n  sheetkit config set import.dir ~/Downloads",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if _, err := config.Load(); err != nil {
				return err
			}

			previous := config.Get(key)
			if err := config.Set(key, value); err != nil {
				return err
			}
			fmt.Printf("%s: %s -> %s\n", key, display(previous), value)

			for _, issue := range config.Validate() {
				if issue.Key == key && issue.Severity != "info" {
					printIssues(os.Stdout, []config.ConfigIssue{issue})
				}
			}
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             "Print one setting",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsKnownKey(key) {
				return fmt.Errorf("unknown config key %q — run 'sheetkit config show' to list keys", key)
			}
			if _, err := config.Load(); err != nil {
				return err
			}
			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return output.PrintJSON("config get", map[string]string{key: config.Get(key)})
			}
			fmt.Println(display(config.Get(key)))
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the config file so every setting is back to its default",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ResetConfig(); err != nil {
				return err
			}
			fmt.Printf("Removed %s, defaults restored\n", config.ConfigPath())
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.ConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the settings and suggest fixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			issues := config.Validate()

			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return output.PrintJSON("config validate", issues)
			}

			if n := printIssues(os.Stdout, issues); n > 0 {
				return fmt.Errorf("configuration has %d error(s)", n)
			}
			return nil
		},
	}
}

func newEnvCommand() *cobra.Command {
	var dotenv bool
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the settings as SHEETKIT_* environment variables",
		Example: `  sheetkit config env >> ~/.zshrc
  sheetkit config env --dotenv > .env`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			env := config.ToEnv()

			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return output.PrintJSON("config env", env)
			}
			if dotenv {
				content, err := godotenv.Marshal(env)
				if err != nil {
					return fmt.Errorf("could not encode .env: %w", err)
				}
				fmt.Println(content)
				return nil
			}
			writeExports(os.Stdout, env)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dotenv, "dotenv", false, "Print in .env file format")
	return cmd
}

// printIssues writes one colored line per issue and returns the error count.
func printIssues(w io.Writer, issues []config.ConfigIssue) int {
	errs, warnings := 0, 0
	for _, issue := range issues {
		switch issue.Severity {
		case "error":
			errs++
		case "warning":
			warnings++
		}
	}

	if errs == 0 && warnings == 0 {
		color.New(color.FgGreen).Fprintln(w, "Configuration is valid")
		return 0
	}

	for _, issue := range issues {
		c := color.New(color.FgGreen)
		switch issue.Severity {
		case "error":
			c = color.New(color.FgRed)
		case "warning":
			c = color.New(color.FgYellow)
		}
		c.Fprintf(w, "  %-7s %-22s %s\n", issue.Severity, issue.Key, issue.Message)
		if issue.Fix != "" {
			fmt.Fprintf(w, "          fix: %s\n", issue.Fix)
		}
	}
	fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", errs, warnings)
	return errs
}

func writeExports(w io.Writer, env map[string]string) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "export %s=%q\n", k, env[k])
	}
}

func values() map[string]string {
	out := make(map[string]string)
	for _, k := range config.Keys() {
		out[k] = config.Get(k)
	}
	return out
}

func display(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.Keys(), cobra.ShellCompDirectiveNoFileComp
}
