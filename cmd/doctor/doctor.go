// Package doctor provides the "sheetkit doctor" command for checking system health.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/storage"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, storage and history health",
		Long:  "Run diagnostic checks to verify sheetkit is properly configured and its history is readable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			var checks []Check
			if err != nil {
				checks = append(checks, Check{Name: "Config", Status: "error", Message: err.Error()})
			} else {
				if v, _ := cmd.Flags().GetString("store"); v != "" {
					cfg.Store.Backend = v
				}
				if v, _ := cmd.Flags().GetString("store-path"); v != "" {
					cfg.Store.Path = v
				}
				checks = runChecks(cfg)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("doctor", checks)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Println("sheetkit doctor")
			fmt.Println("===============")
			fmt.Println()

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Printf("  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Println()
			fmt.Printf("  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks(cfg *config.Config) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	configDir := config.Dir()
	if info, err := os.Stat(configDir); err == nil && info.IsDir() {
		checks = append(checks, Check{Name: "Config Directory", Status: "ok", Message: configDir})
	} else {
		checks = append(checks, Check{
			Name:    "Config Directory",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found — run 'sheetkit config init'", configDir),
		})
	}

	if _, err := os.Stat(config.ConfigPath()); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: config.ConfigPath()})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found, using defaults — run 'sheetkit config init'",
		})
	}

	checks = append(checks, storageChecks(cfg)...)

	if _, err := exec.LookPath("less"); err == nil || os.Getenv("PAGER") != "" {
		checks = append(checks, Check{Name: "Pager", Status: "ok", Message: "Available for long tables"})
	} else {
		checks = append(checks, Check{
			Name:    "Pager",
			Status:  "warning",
			Message: "less not found and PAGER not set — long tables print unpaged",
		})
	}

	return checks
}

func storageChecks(cfg *config.Config) []Check {
	var checks []Check

	backend, err := storage.Open(storage.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Quota:   cfg.Store.QuotaBytes,
	})
	if err != nil {
		return append(checks, Check{Name: "Storage", Status: "error", Message: err.Error()})
	}
	defer backend.Close()

	where := cfg.Store.Path
	if where == "" {
		where = storage.DefaultPath(cfg.Store.Backend)
	}
	if cfg.Store.Backend == storage.BackendMemory {
		where = "in-process"
	}
	checks = append(checks, Check{
		Name:    "Storage",
		Status:  "ok",
		Message: fmt.Sprintf("%s (%s)", cfg.Store.Backend, where),
	})

	raw, ok, err := backend.GetItem(cfg.Store.Key)
	switch {
	case err != nil:
		return append(checks, Check{Name: "History", Status: "error", Message: err.Error()})
	case !ok:
		return append(checks, Check{Name: "History", Status: "ok", Message: "Empty — run 'sheetkit import <file.xlsx>'"})
	}

	var files []history.FileRecord
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		return append(checks, Check{
			Name:    "History",
			Status:  "warning",
			Message: fmt.Sprintf("Stored history under %q is unreadable and will be ignored — run 'sheetkit history clear'", cfg.Store.Key),
		})
	}

	usage := fmt.Sprintf("%d of %d bytes used", len(raw), cfg.Store.QuotaBytes)
	if cfg.Store.QuotaBytes <= 0 {
		usage = fmt.Sprintf("%d bytes used, no quota", len(raw))
	}
	checks = append(checks, Check{
		Name:    "History",
		Status:  "ok",
		Message: fmt.Sprintf("%d file(s), %s", len(files), usage),
	})

	missing := 0
	for _, f := range files {
		if !f.ByReference() {
			continue
		}
		if _, err := os.Stat(f.Source); err != nil {
			missing++
		}
	}
	if missing > 0 {
		checks = append(checks, Check{
			Name:    "Referenced Files",
			Status:  "warning",
			Message: fmt.Sprintf("%d by-reference file(s) no longer exist on disk", missing),
		})
	}

	return checks
}
