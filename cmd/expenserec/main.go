package main

import (
	"os"

	"expense-reconciliation-service/cmd/expenserec/cmd"
	apperrors "expense-reconciliation-service/pkg/errors"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		if reconcileErr, ok := apperrors.AsReconcileError(err); ok {
			os.Exit(reconcileErr.GetExitCode())
		}
		os.Exit(1)
	}
}
