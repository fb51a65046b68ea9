package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nurpe/rentals/internal/app"
	"github.com/nurpe/rentals/internal/config"
	"github.com/nurpe/rentals/internal/db"
	"github.com/nurpe/rentals/internal/logger"
	"github.com/nurpe/rentals/internal/money"
)

// withApp loads configuration, builds the application and runs fn with a
// context cancelled on SIGINT or SIGTERM.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log := logger.New(cfg.Environment)
			database, err := db.New(cfg.DB, log)
			if err != nil {
				return err
			}
			if sqlDB, err := database.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}

func generatePaymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-payments",
		Short: "Create the month's payments and mark overdue ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetInt("year")
			month, _ := cmd.Flags().GetInt("month")
			return withApp(func(ctx context.Context, a *app.App) error {
				if year == 0 || month == 0 {
					curYear, curMonth := a.Services.Analytics.CurrentPeriod()
					if year == 0 {
						year = curYear
					}
					if month == 0 {
						month = curMonth
					}
				}
				result, err := a.Services.Payments.GenerateMonthlyPayments(ctx, year, month)
				if err != nil {
					return err
				}
				overdue, err := a.Services.Payments.AutoMarkOverdue(ctx)
				if err != nil {
					return err
				}
				a.Services.Analytics.InvalidateSnapshots(ctx)
				fmt.Printf("%04d-%02d: generated %d, skipped %d, marked overdue %d\n",
					year, month, result.Created, result.Skipped, overdue)
				return nil
			})
		},
	}
	cmd.Flags().Int("year", 0, "period year (defaults to the current year)")
	cmd.Flags().Int("month", 0, "period month 1-12 (defaults to the current month)")
	return cmd
}

func markOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-overdue",
		Short: "Move unpaid payments past their due date to OVERDUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				count, err := a.Services.Payments.AutoMarkOverdue(ctx)
				if err != nil {
					return err
				}
				a.Services.Analytics.InvalidateSnapshots(ctx)
				fmt.Printf("Marked %d payments overdue.\n", count)
				return nil
			})
		},
	}
}

func markExpiringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark-expiring",
		Short: "Move active contracts ending soon to EXPIRING",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			return withApp(func(ctx context.Context, a *app.App) error {
				if days <= 0 {
					days = a.Config.Rentals.ExpiryWindowDays
				}
				moved, err := a.Services.Contracts.MarkExpiring(ctx, days)
				if err != nil {
					return err
				}
				fmt.Printf("Marked %d contracts expiring (window %d days).\n", moved, days)
				return nil
			})
		},
	}
	cmd.Flags().Int("days", 0, "window in days (defaults to EXPIRY_WINDOW_DAYS)")
	return cmd
}

func sendRemindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send-reminders",
		Short: "Push the expiring-contract and overdue-payment digests to owners",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				expiring, err := a.Services.Notifications.NotifyExpiringContracts(ctx)
				if err != nil {
					return err
				}
				overdue, err := a.Services.Notifications.NotifyOverduePayments(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Sent %d expiring and %d overdue notices.\n", expiring, overdue)
				return nil
			})
		},
	}
}

func rentAdviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rent-advice",
		Short: "Print the rent adjustment recommendation of every billable contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				items, err := a.Services.Inflation.GetAllRentAdjustments(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "BUILDING\tROOM\tTENANT\tCURRENT\tSUGGESTED\tINFLATION\tRECOMMENDATION")
				for _, item := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f%%\t%s\n",
						item.BuildingName, item.RoomNumber, item.TenantName,
						money.THB(item.CurrentRent), money.THB(item.SuggestedRent),
						item.InflationPct, item.Recommendation)
				}
				return w.Flush()
			})
		},
	}
}

func consumeEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume-events",
		Short: "Send notifications for contract events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				consumer := a.Consumer()
				if consumer == nil {
					return errors.New("AMQP_URL is not configured")
				}
				a.Log.Info().Str("queue", a.Config.Events.Queue).Msg("consuming contract events")
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
}
