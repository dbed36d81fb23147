package config

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/sheetkit/internal/storage"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

// Wizard runs the interactive setup wizard.
// If reader is nil, reads from os.Stdin.
func Wizard(reader io.Reader) error {
	if reader == nil {
		reader = os.Stdin
	}
	scanner := bufio.NewScanner(reader)
	ask := func() string {
		scanner.Scan()
		return strings.TrimSpace(scanner.Text())
	}

	fmt.Println("sheetkit setup")
	fmt.Println()
	fmt.Println(strings.Repeat("-", 48))
	fmt.Println()

	fmt.Println("Step 1/3: History storage")
	fmt.Println("  Where should imported files be kept?")
	fmt.Println("  [1] JSON file (default)")
	fmt.Println("  [2] SQLite database")
	fmt.Println("  [3] Memory only (forgotten on exit)")
	fmt.Print("  Choice: ")

	switch ask() {
	case "2":
		viper.Set("store.backend", storage.BackendSQLite)
	case "3":
		viper.Set("store.backend", storage.BackendMemory)
	default:
		viper.Set("store.backend", storage.BackendFile)
	}
	fmt.Printf("  Using %s storage\n\n", viper.GetString("store.backend"))

	fmt.Println("Step 2/3: Spreadsheet directory")
	fmt.Print("  Directory relative file names are read from (blank for current): ")
	if dir := ask(); dir != "" {
		viper.Set("import.dir", dir)
		fmt.Println("  Directory saved")
	} else {
		fmt.Println("  Skipped")
	}
	fmt.Println()

	fmt.Println("Step 3/3: Output")
	fmt.Print("  Use colors in tables and charts? [Y/n]: ")
	colorChoice := strings.ToLower(ask())
	viper.Set("output.color", colorChoice == "" || colorChoice == "y" || colorChoice == "yes")
	fmt.Println()

	if err := SaveConfig(); err != nil {
		return fmt.Errorf("could not save config: %w", err)
	}

	fmt.Println(strings.Repeat("-", 48))
	fmt.Println("sheetkit is ready!")
	fmt.Println()
	fmt.Println("Quick start:")
	fmt.Println("  sheetkit sample users.xlsx")
	fmt.Println("  sheetkit import users.xlsx")
	fmt.Println("  sheetkit view data")
	fmt.Println("  sheetkit view chart --value Age")
	fmt.Println()
	fmt.Printf("Config file: %s\n", ConfigPath())
	fmt.Println("Type 'sheetkit config show' to see all settings.")

	return nil
}

// WizardNonInteractive sets up config with defaults only (no user input).
func WizardNonInteractive() error {
	for k, v := range defaults {
		viper.Set(k, v)
	}
	return SaveConfig()
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	backend := viper.GetString("store.backend")
	switch backend {
	case storage.BackendFile, storage.BackendSQLite:
		path := viper.GetString("store.path")
		if path == "" {
			path = storage.DefaultPath(backend)
		}
		issues = append(issues, ConfigIssue{
			Key:      "store.backend",
			Severity: "info",
			Message:  fmt.Sprintf("history stored in %s (%s)", path, backend),
		})
	case storage.BackendMemory:
		issues = append(issues, ConfigIssue{
			Key:      "store.backend",
			Severity: "warning",
			Message:  "memory storage keeps history only for the current process",
			Fix:      "sheetkit config set store.backend file",
		})
	default:
		issues = append(issues, ConfigIssue{
			Key:      "store.backend",
			Severity: "error",
			Message:  fmt.Sprintf("unknown storage backend %q", backend),
			Fix:      "sheetkit config set store.backend file   (or sqlite, memory)",
		})
	}

	switch quota := viper.GetInt("store.quota_bytes"); {
	case quota < 0:
		issues = append(issues, ConfigIssue{
			Key:      "store.quota_bytes",
			Severity: "error",
			Message:  fmt.Sprintf("store.quota_bytes must not be negative, got %d", quota),
			Fix:      fmt.Sprintf("sheetkit config set store.quota_bytes %d", storage.DefaultQuota),
		})
	case quota == 0:
		issues = append(issues, ConfigIssue{
			Key:      "store.quota_bytes",
			Severity: "warning",
			Message:  "store.quota_bytes is 0, history size is unlimited",
			Fix:      fmt.Sprintf("sheetkit config set store.quota_bytes %d", storage.DefaultQuota),
		})
	}

	if viper.GetString("store.key") == "" {
		issues = append(issues, ConfigIssue{
			Key:      "store.key",
			Severity: "error",
			Message:  "store.key is empty",
			Fix:      "sheetkit config reset",
		})
	}

	if dir := viper.GetString("import.dir"); dir != "" {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			issues = append(issues, ConfigIssue{
				Key:      "import.dir",
				Severity: "warning",
				Message:  fmt.Sprintf("import directory %s does not exist", dir),
				Fix:      fmt.Sprintf("mkdir -p %s", dir),
			})
		}
	}

	if w := viper.GetInt("output.max_col_width"); w < 3 {
		issues = append(issues, ConfigIssue{
			Key:      "output.max_col_width",
			Severity: "warning",
			Message:  fmt.Sprintf("output.max_col_width %d is too narrow to read", w),
			Fix:      "sheetkit config set output.max_col_width 40",
		})
	}

	if host, _, err := net.SplitHostPort(viper.GetString("serve.addr")); err != nil {
		issues = append(issues, ConfigIssue{
			Key:      "serve.addr",
			Severity: "error",
			Message:  fmt.Sprintf("serve.addr %q is not host:port", viper.GetString("serve.addr")),
			Fix:      "sheetkit config set serve.addr 127.0.0.1:8080",
		})
	} else if !isLoopback(host) {
		issues = append(issues, ConfigIssue{
			Key:      "serve.addr",
			Severity: "warning",
			Message:  fmt.Sprintf("serve.addr listens on %q, history will be visible to other machines", host),
			Fix:      "sheetkit config set serve.addr 127.0.0.1:8080",
		})
	}

	return issues
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, k := range Keys() {
		if v := viper.GetString(k); v != "" {
			env[EnvName(k)] = v
		}
	}
	return env
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q — run 'sheetkit config show' to list keys", key)
	}
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig resets all config to defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for k, v := range defaults {
		viper.Set(k, v)
	}
	return nil
}

// SaveConfig writes the current config to ~/.sheetkit/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	// Set secure permissions
	os.Chmod(path, 0600)
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n", ConfigPath()))

	section := ""
	for _, k := range Keys() {
		group, name, _ := strings.Cut(k, ".")
		if group != section {
			section = group
			sb.WriteString(fmt.Sprintf("\n%s\n", group))
		}
		val := viper.GetString(k)
		if val == "" {
			val = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("  %-14s %s\n", name+":", val))
	}

	return sb.String()
}
