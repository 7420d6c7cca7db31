package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/codeaudit/internal/logger"
	"github.com/huangsam/codeaudit/schema"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // CriticalColor represents standard danger.
	HighColor     = color.New(color.FgMagenta, color.Bold) // HighColor represents strong, distinct warning.
	MediumColor   = color.New(color.FgYellow)              // MediumColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)                // LowColor represents informational / low-priority signal.
	GoodColor     = color.New(color.FgGreen, color.Bold)   // GoodColor represents a healthy score.
)

// GetPlainLabel returns the quality band of a score on the 1-10 scale.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	return schema.QualityLabel(score)
}

// GetColorLabel returns a colored quality band for console output (table).
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case schema.ExcellentLabel:
		return GoodColor.Sprint(text)
	case schema.GoodLabel:
		return LowColor.Sprint(text)
	case schema.NeedsImprovementLabel:
		return MediumColor.Sprint(text)
	default: // "Poor"
		return CriticalColor.Sprint(text)
	}
}

// GetSeverityLabel returns the upper-cased severity, colored when useColors is set.
func GetSeverityLabel(sev schema.Severity, useColors bool) string {
	text := strings.ToUpper(string(sev))
	if !useColors {
		return text
	}
	switch sev {
	case schema.CriticalSeverity:
		return CriticalColor.Sprint(text)
	case schema.HighSeverity:
		return HighColor.Sprint(text)
	case schema.MediumSeverity:
		return MediumColor.Sprint(text)
	default:
		return LowColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output.
// An empty path selects os.Stdout. Parent directories are created as needed.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	l := logger.L()
	l.Errorf("Fatal %s: %v", msg, err)
	_ = l.Sync()
	os.Exit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	logger.L().Warnf("Warn %s: %v", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".codeaudit_history.db"
	}
	return filepath.Join(homeDir, ".codeaudit_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
