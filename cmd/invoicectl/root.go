package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/invoicepro/invoicepro/internal/reminders"
)

var version = "1.0.0"

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "invoicectl",
		Short: "Operator commands for InvoicePro",
		Long: `invoicectl applies the database schema, seeds reference data and runs
maintenance tasks against the database named by PG_DSN.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(rt),
		newSeedUOMsCmd(rt),
		newRemindersCmd(rt),
		newNextNumberCmd(rt),
	)
	return root
}

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applied, err := rt.migrate(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(rt.out, "schema is up to date")
				return nil
			}
			fmt.Fprintf(rt.out, "applied %s\n", strings.Join(applied, ", "))
			return nil
		},
	}
}

func newSeedUOMsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-uoms",
		Short: "Create the default units of measure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seeder, err := rt.seeder(cmd.Context())
			if err != nil {
				return err
			}
			created, err := seeder.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "created %d units of measure\n", created)
			return nil
		},
	}
}

func newRemindersCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Send reminders for invoices due soon or past due",
		Long: `Selects PENDING or OVERDUE invoices due exactly --days-before days from
today, and PENDING invoices due --days-after days ago or earlier. Invoices
reminded in the last 24 hours are skipped. Overdue invoices are moved to
OVERDUE when their reminder is queued.`,
		Example: `  # Preview today's reminders
  invoicectl reminders --dry-run

  # Remind a week ahead and once an invoice is five days late
  invoicectl reminders --days-before 7 --days-after 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			before, _ := cmd.Flags().GetInt("days-before")
			after, _ := cmd.Flags().GetInt("days-after")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if before < 0 || after < 0 {
				return errors.New("--days-before and --days-after must not be negative")
			}
			sweeper, err := rt.sweeper(cmd.Context())
			if err != nil {
				return err
			}
			rt.logger.Info("reminder sweep", slog.Int("days_before", before), slog.Int("days_after", after), slog.Bool("dry_run", dryRun))
			res, err := sweeper.Run(cmd.Context(), reminders.Options{
				DaysBefore: before,
				DaysAfter:  after,
				DryRun:     dryRun,
				Now:        time.Now(),
			})
			if err != nil {
				return err
			}
			prefix := ""
			if res.DryRun {
				prefix = "[dry run] "
			}
			fmt.Fprintf(rt.out, "%sfound %d, sent %d, skipped %d, errors %d\n", prefix, res.Found, res.Sent, res.Skipped, res.Errors)
			if res.Errors > 0 {
				return fmt.Errorf("%d reminders failed", res.Errors)
			}
			return nil
		},
	}
	cmd.Flags().Int("days-before", rt.cfg.ReminderDaysBefore, "Remind this many days before the due date")
	cmd.Flags().Int("days-after", rt.cfg.ReminderDaysAfter, "Remind once an invoice is this many days past due")
	cmd.Flags().Bool("dry-run", false, "List the reminders without sending or updating anything")
	return cmd
}

func newNextNumberCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next-number",
		Short: "Preview the next invoice number of a company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetInt64("user")
			companyID, _ := cmd.Flags().GetInt64("company")
			if userID <= 0 || companyID <= 0 {
				return errors.New("--user and --company are required")
			}
			numbers, err := rt.numbers(cmd.Context())
			if err != nil {
				return err
			}
			next, err := numbers.NextInvoiceNumber(cmd.Context(), userID, companyID)
			if err != nil {
				return err
			}
			fmt.Fprintln(rt.out, next)
			return nil
		},
	}
	cmd.Flags().Int64("user", 0, "Owner user id")
	cmd.Flags().Int64("company", 0, "Company id")
	return cmd
}
