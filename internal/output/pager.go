package output

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// defaultTermHeight is used when LINES is not exported by the shell.
const defaultTermHeight = 40

// ShouldPage returns true if output should be piped through a pager.
// This checks if stdout is a terminal and the content exceeds terminal height.
func ShouldPage(content string, termHeight int) bool {
	if !isTerminal() {
		return false
	}
	lines := strings.Count(content, "\n")
	return lines > termHeight
}

// Page pipes content through the user's preferred pager (PAGER env, or "less").
func Page(content string) error {
	pager := os.Getenv("PAGER")
	var args []string
	if pager == "" {
		pager = "less"
		args = []string{"-R"}
	}

	cmd := exec.Command(pager, args...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// Show prints content, paging it when it does not fit the terminal.
// A missing pager falls back to plain output.
func Show(content string) error {
	if ShouldPage(content, termHeight()) {
		if err := Page(content); err == nil {
			return nil
		}
	}
	_, err := fmt.Fprint(os.Stdout, content)
	return err
}

func termHeight() int {
	var n int
	if _, err := fmt.Sscanf(os.Getenv("LINES"), "%d", &n); err == nil && n > 0 {
		return n
	}
	return defaultTermHeight
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
