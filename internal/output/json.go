// Package output formats command results for the terminal and for machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klytics/sheetkit/cmd/version"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, unknown id, missing file
	ExitSystemError = 2 // storage failure, IO error
)

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool        `json:"ok"`
	Command string      `json:"command"`
	Version string      `json:"version"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// PrintJSON writes a standard success JSON result to stdout.
func PrintJSON(cmd string, data interface{}) error {
	return WriteJSON(os.Stdout, cmd, data)
}

// WriteJSON writes a standard success JSON result to w.
func WriteJSON(w io.Writer, cmd string, data interface{}) error {
	return encode(w, JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	})
}

// PrintJSONError writes a standard error JSON result to stdout.
func PrintJSONError(cmd string, err error, code int) error {
	result := JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    code,
	}
	if encErr := encode(os.Stdout, result); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
