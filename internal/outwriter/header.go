package outwriter

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/huangsam/codeaudit/internal/contract"
	"golang.org/x/term"
)

// LogAuditHeader prints a concise, 2-line header for an audit run to stderr.
func LogAuditHeader(cfg *contract.Config) {
	passes := make([]string, len(cfg.Passes))
	for i, p := range cfg.Passes {
		passes[i] = string(p)
	}

	fmt.Fprintf(os.Stderr, "🔎 Project: %s (Workers: %d)\n", projectName(cfg.RootPath), cfg.Workers)
	fmt.Fprintf(os.Stderr, "🧪 Passes: %s\n", strings.Join(passes, ", "))
}

// StartSpinner shows progress on stderr while a long step runs.
// It returns the function that stops it. Nothing is drawn when stderr is not a terminal.
func StartSpinner(msg string) func() {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
