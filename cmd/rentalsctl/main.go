package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "rentalsctl",
		Short:         "Rentals scheduled jobs and operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		migrateCmd(),
		generatePaymentsCmd(),
		markOverdueCmd(),
		markExpiringCmd(),
		sendRemindersCmd(),
		rentAdviceCmd(),
		consumeEventsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
