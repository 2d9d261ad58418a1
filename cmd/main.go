package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "ledger",
		Short:        "Banking ledger service",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
