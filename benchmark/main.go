// Package main provides a performance benchmarking tool for the codeaudit CLI.
// It times the run and check commands across project trees of different sizes,
// once with run history disabled and once recording into SQLite,
// and writes a CSV summary for performance analysis and documentation.
//
// Prerequisites:
// - codeaudit binary installed and available in PATH
// - Test projects cloned to the specified base directory
// - Projects: create-t3-app, supabase, cal.com, next.js
//
// Usage: go run benchmark/main.go [repo-base-dir]
//
//	repo-base-dir: Directory containing test projects
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the averages of one command on one project per history backend.
type BenchmarkResult struct {
	Repository  string
	Command     string
	NoHistory   string
	WithHistory string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase  string
	Timeout   time.Duration
	Workers   int
	Runs      int
	TestRepos []string
	Commands  map[string][]string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		RepoBase:  os.Args[1],
		Timeout:   5 * time.Minute,
		Workers:   14,
		Runs:      3,
		TestRepos: []string{"create-t3-app", "supabase", "cal.com", "next.js"},
		Commands: map[string][]string{
			"run":      {"run", "--output", "json", "--output-file", "-"},
			"security": {"run", "--passes", "security", "--output", "json", "--output-file", "-"},
			"check":    {"check", "--output-file", "-"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	historyDB := filepath.Join(os.TempDir(), fmt.Sprintf("codeaudit_benchmark_%d.db", time.Now().Unix()))
	defer func() { _ = os.Remove(historyDB) }()

	results := runBenchmarks(config, historyDB)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the codeaudit binary and test projects exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("codeaudit"); err != nil {
		return fmt.Errorf("codeaudit binary not found in PATH")
	}

	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}

	return nil
}

// runBenchmarks executes every command on every configured project
func runBenchmarks(config BenchmarkConfig, historyDB string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d workers, %d runs per phase\n",
		len(config.TestRepos), config.Timeout, config.Workers, config.Runs)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)
		repoPath := filepath.Join(config.RepoBase, repo)

		for _, command := range []string{"run", "security", "check"} {
			args := config.Commands[command]
			fmt.Printf("Running %s on %s\n", command, repo)

			noHistory := averageOf(runBenchmark(config, repoPath, args, nil))
			withHistory := averageOf(runBenchmark(config, repoPath, args, []string{
				"CODEAUDIT_HISTORY_BACKEND=sqlite",
				"CODEAUDIT_HISTORY_DB_CONNECT=" + historyDB,
			}))
			fmt.Printf("  No history: %s, SQLite history: %s\n", noHistory, withHistory)

			results = append(results, BenchmarkResult{
				Repository:  repo,
				Command:     command,
				NoHistory:   noHistory,
				WithHistory: withHistory,
			})
		}
	}

	return results
}

// runBenchmark runs the command config.Runs times and returns the durations of successful runs
func runBenchmark(config BenchmarkConfig, repoPath string, args, env []string) []float64 {
	args = append(args, "--workers", fmt.Sprint(config.Workers))

	var times []float64
	for range config.Runs {
		start := time.Now()

		cmd := exec.Command("codeaudit", args...)
		cmd.Dir = repoPath
		cmd.Env = append(os.Environ(), env...)

		done := make(chan error, 1)
		go func() {
			_, err := cmd.CombinedOutput()
			done <- err
		}()

		select {
		case err := <-done:
			if isSuccess(err) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}
	return times
}

// isSuccess treats a failed check gate as a completed run
func isSuccess(err error) bool {
	if err == nil {
		return true
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 1
}

func averageOf(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("codeaudit_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"repo", "cmd", "no_history_avg", "sqlite_history_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.Command, result.NoHistory, result.WithHistory}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range []string{"run", "security", "check"} {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-14s: No history: %s, SQLite history: %s\n", result.Repository, result.NoHistory, result.WithHistory)
			}
		}
	}
}
