package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/parquet"
)

// ExecuteHistoryExport exports the run history of the global store to Parquet files.
func ExecuteHistoryExport(outputFile string) error {
	return exportHistory(Manager.GetHistoryStore(), outputFile)
}

// exportHistory writes <outputFile>.runs/.file_scores/.findings.parquet from store.
func exportHistory(store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total audit runs: %d\n", status.TotalRuns)
	fmt.Printf("Total file records: %d\n", status.TableSizes[fileScoresTable])
	fmt.Printf("Total findings: %d\n", status.TableSizes[findingsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve audit runs: %w", err)
	}
	fileScores, err := store.GetAllFileScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve file scores: %w", err)
	}
	findings, err := store.GetAllFindings()
	if err != nil {
		return fmt.Errorf("failed to retrieve findings: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	parquetRuns := parquet.ConvertAuditRunRecords(runs)
	if err := parquet.WriteAuditRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write audit runs: %w", err)
	}
	fmt.Printf("Exported %d audit runs to: %s\n", len(parquetRuns), runsFile)

	scoresFile := outputFile + ".file_scores.parquet"
	parquetScores := parquet.ConvertFileScoreRecords(fileScores)
	if err := parquet.WriteFileScoresParquet(parquetScores, scoresFile); err != nil {
		return fmt.Errorf("failed to write file scores: %w", err)
	}
	fmt.Printf("Exported %d file score records to: %s\n", len(parquetScores), scoresFile)

	findingsFile := outputFile + ".findings.parquet"
	parquetFindings := parquet.ConvertFindingRecords(findings)
	if err := parquet.WriteFindingsParquet(parquetFindings, findingsFile); err != nil {
		return fmt.Errorf("failed to write findings: %w", err)
	}
	fmt.Printf("Exported %d findings to: %s\n", len(parquetFindings), findingsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Any other Parquet-compatible tool")
	return nil
}
