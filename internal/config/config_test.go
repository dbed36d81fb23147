package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	t.Setenv("HOME", dir)
	if _, err := Load(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		viper.Reset()
	})
	return dir
}

func hasIssue(issues []ConfigIssue, key, severity string) bool {
	for _, issue := range issues {
		if issue.Key == key && issue.Severity == severity {
			return true
		}
	}
	return false
}

func TestLoadDefaults(t *testing.T) {
	setupTestConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("default backend = %q", cfg.Store.Backend)
	}
	if cfg.Store.Key != "excelReaderHistory" {
		t.Errorf("default key = %q", cfg.Store.Key)
	}
	if cfg.Store.QuotaBytes != 5<<20 {
		t.Errorf("default quota = %d", cfg.Store.QuotaBytes)
	}
	if !cfg.Import.KeepRows {
		t.Error("expected keep_rows to default to true")
	}
	if cfg.Debounce().Milliseconds() != 500 {
		t.Errorf("default debounce = %s", cfg.Debounce())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("SHEETKIT_STORE_BACKEND", "sqlite")
	t.Setenv("SHEETKIT_OUTPUT_MAX_COL_WIDTH", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected env override, got %q", cfg.Store.Backend)
	}
	if cfg.Output.MaxColWidth != 12 {
		t.Errorf("expected max_col_width 12, got %d", cfg.Output.MaxColWidth)
	}
}

func TestLoadDotEnv(t *testing.T) {
	setupTestConfig(t)
	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, ".env"), []byte("SHEETKIT_IMPORT_DIR=/data/excel\n"), 0644); err != nil {
		t.Fatal(err)
	}
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(prevWD) })
	t.Cleanup(func() { os.Unsetenv("SHEETKIT_IMPORT_DIR") })

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Import.Dir != "/data/excel" {
		t.Errorf("expected .env value, got %q", cfg.Import.Dir)
	}
}

func TestLoadConfigFile(t *testing.T) {
	home := setupTestConfig(t)
	dir := filepath.Join(home, ".sheetkit")
	os.MkdirAll(dir, 0700)
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store:\n  key: otherHistory\n"), 0600)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Key != "otherHistory" {
		t.Errorf("expected key from file, got %q", cfg.Store.Key)
	}
}

func TestLoadMalformedConfig(t *testing.T) {
	home := setupTestConfig(t)
	dir := filepath.Join(home, ".sheetkit")
	os.MkdirAll(dir, 0700)
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed\n"), 0600)

	viper.Reset()
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestValidateDefaults(t *testing.T) {
	setupTestConfig(t)
	for _, issue := range Validate() {
		if issue.Severity == "error" {
			t.Errorf("unexpected error: %s", issue.Message)
		}
	}
}

func TestValidateUnknownBackend(t *testing.T) {
	setupTestConfig(t)
	viper.Set("store.backend", "redis")

	if !hasIssue(Validate(), "store.backend", "error") {
		t.Error("expected error about unknown backend")
	}
}

func TestValidateMemoryWarning(t *testing.T) {
	setupTestConfig(t)
	viper.Set("store.backend", "memory")

	if !hasIssue(Validate(), "store.backend", "warning") {
		t.Error("expected warning about memory backend")
	}
}

func TestValidateBadQuota(t *testing.T) {
	setupTestConfig(t)
	viper.Set("store.quota_bytes", -1)

	if !hasIssue(Validate(), "store.quota_bytes", "error") {
		t.Error("expected error about quota")
	}
}

func TestValidateUnlimitedQuota(t *testing.T) {
	setupTestConfig(t)
	viper.Set("store.quota_bytes", 0)

	issues := Validate()
	if hasIssue(issues, "store.quota_bytes", "error") {
		t.Error("zero quota should not be an error")
	}
	if !hasIssue(issues, "store.quota_bytes", "warning") {
		t.Error("expected warning about unlimited quota")
	}
}

func TestValidateMissingImportDir(t *testing.T) {
	setupTestConfig(t)
	viper.Set("import.dir", filepath.Join(t.TempDir(), "missing"))

	if !hasIssue(Validate(), "import.dir", "warning") {
		t.Error("expected warning about import dir")
	}
}

func TestValidateServeAddr(t *testing.T) {
	setupTestConfig(t)

	viper.Set("serve.addr", "0.0.0.0:8080")
	if !hasIssue(Validate(), "serve.addr", "warning") {
		t.Error("expected warning for non-loopback address")
	}

	viper.Set("serve.addr", "nonsense")
	if !hasIssue(Validate(), "serve.addr", "error") {
		t.Error("expected error for malformed address")
	}

	viper.Set("serve.addr", "localhost:9000")
	for _, issue := range Validate() {
		if issue.Key == "serve.addr" {
			t.Errorf("unexpected issue: %s", issue.Message)
		}
	}
}

func TestToEnv(t *testing.T) {
	setupTestConfig(t)
	viper.Set("store.backend", "sqlite")
	viper.Set("import.dir", "/data/excel")

	env := ToEnv()
	if env["SHEETKIT_STORE_BACKEND"] != "sqlite" {
		t.Errorf("SHEETKIT_STORE_BACKEND = %q", env["SHEETKIT_STORE_BACKEND"])
	}
	if env["SHEETKIT_IMPORT_DIR"] != "/data/excel" {
		t.Errorf("SHEETKIT_IMPORT_DIR = %q", env["SHEETKIT_IMPORT_DIR"])
	}
	if _, ok := env["SHEETKIT_STORE_PATH"]; ok {
		t.Error("unset keys should not be exported")
	}
}

func TestSetAndGet(t *testing.T) {
	setupTestConfig(t)

	if err := Set("store.backend", "sqlite"); err != nil {
		t.Fatal(err)
	}

	got := Get("store.backend")
	if got != "sqlite" {
		t.Errorf("Get(store.backend) = %q, want %q", got, "sqlite")
	}
	if _, err := os.Stat(ConfigPath()); err != nil {
		t.Errorf("expected config file to be written: %v", err)
	}
}

func TestSetUnknownKey(t *testing.T) {
	setupTestConfig(t)
	if err := Set("provider", "openai"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestShowConfig(t *testing.T) {
	setupTestConfig(t)
	viper.Set("import.dir", "/data/excel")

	output := ShowConfig()
	for _, want := range []string{"store", "excelReaderHistory", "/data/excel", "(not set)"} {
		if !strings.Contains(output, want) {
			t.Errorf("ShowConfig should contain %q:\n%s", want, output)
		}
	}
}

func TestWizardNonInteractive(t *testing.T) {
	setupTestConfig(t)

	if err := WizardNonInteractive(); err != nil {
		t.Fatal(err)
	}

	if viper.GetString("store.backend") != "file" {
		t.Errorf("store.backend = %q", viper.GetString("store.backend"))
	}
}

func TestWizardInteractive(t *testing.T) {
	setupTestConfig(t)

	// sqlite, blank directory, no colors
	input := strings.NewReader("2\n\nn\n")
	if err := Wizard(input); err != nil {
		t.Fatal(err)
	}
	if viper.GetString("store.backend") != "sqlite" {
		t.Errorf("store.backend = %q", viper.GetString("store.backend"))
	}
	if viper.GetBool("output.color") {
		t.Error("expected colors to be disabled")
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if !strings.Contains(path, ".sheetkit") || !strings.Contains(path, "config.yaml") {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("output.max_col_width"); got != "SHEETKIT_OUTPUT_MAX_COL_WIDTH" {
		t.Errorf("EnvName = %q", got)
	}
}

func TestResetConfig(t *testing.T) {
	setupTestConfig(t)

	viper.Set("store.backend", "sqlite")
	SaveConfig()

	if err := ResetConfig(); err != nil {
		t.Fatal(err)
	}

	if viper.GetString("store.backend") != "file" {
		t.Errorf("store.backend should reset to default, got %q", viper.GetString("store.backend"))
	}
	if _, err := os.Stat(ConfigPath()); !os.IsNotExist(err) {
		t.Error("expected config file to be removed")
	}
}
