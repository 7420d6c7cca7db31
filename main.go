// Package main is the entry point for the codeaudit CLI.
package main

import (
	"github.com/huangsam/codeaudit/cmd"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/iocache"
	"github.com/huangsam/codeaudit/internal/logger"
)

func main() {
	// Ensure run history is closed on exit
	defer iocache.CloseHistory()
	defer func() { _ = logger.L().Sync() }()

	// Pass the global history manager to the cmd package
	cmd.SetHistoryManager(iocache.Manager)

	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Error starting CLI", err)
	}

	if err := cmd.StopProfiling(); err != nil {
		contract.LogWarn("Error stopping profiling", err)
	}
}
