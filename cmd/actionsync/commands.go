package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/halcyon-social/actionsync/internal/config"
	"github.com/halcyon-social/actionsync/internal/db"
	"github.com/halcyon-social/actionsync/internal/models"
)

// openRepo opens the queue database named by the environment and
// returns the repository plus the session pubkey it is scoped to.
func openRepo() (*db.Repository, string, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.UserPubkey == "" {
		return nil, "", nil, fmt.Errorf("ACTIONSYNC_USER_PUBKEY must be set")
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open database: %w", err)
	}

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Up(); err != nil {
		database.Close()
		return nil, "", nil, fmt.Errorf("apply migrations: %w", err)
	}

	repo := db.NewRepository(database.DB)
	cleanup := func() {
		repo.Close()
		database.Close()
	}
	return repo, cfg.UserPubkey, cleanup, nil
}

// statusCmd returns the status command
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts per sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, user, cleanup, err := openRepo()
			if err != nil {
				return err
			}
			defer cleanup()

			counts, err := repo.CountByStatus(user)
			if err != nil {
				return fmt.Errorf("count actions: %w", err)
			}

			fmt.Printf("Queue status for %s\n\n", user)
			for _, st := range []models.ActionStatus{
				models.ActionStatusPending,
				models.ActionStatusSyncing,
				models.ActionStatusCompleted,
				models.ActionStatusFailed,
			} {
				fmt.Printf("  %s\t%d\n", statusLabel(st), counts[st])
			}
			return nil
		},
	}
}

// listCmd returns the list command
func listCmd() *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued actions",
		Long: `List the session's queued actions, oldest first.

Examples:
  actionsync list
  actionsync list --status pending`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, user, cleanup, err := openRepo()
			if err != nil {
				return err
			}
			defer cleanup()

			actions, err := repo.ListAllActions(user)
			if err != nil {
				return fmt.Errorf("list actions: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tTARGET\tSTATUS\tRETRIES\tQUEUED")
			shown := 0
			for _, a := range actions {
				if statusFilter != "" && string(a.Status) != statusFilter {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					a.ID, a.Type, a.TargetID, statusLabel(a.Status),
					a.RetryCount, a.CreatedAtTime().Format(time.RFC3339))
				shown++
			}
			w.Flush()
			if shown == 0 {
				fmt.Println("(no actions)")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show actions in this state (pending, syncing, completed, failed)")
	return cmd
}

// retryCmd returns the retry command
func retryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Re-queue failed actions",
		Long: `Reset every failed action back to pending with a fresh retry budget.
The next sync drive picks them up again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, user, cleanup, err := openRepo()
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := repo.RetryFailed(user)
			if err != nil {
				return fmt.Errorf("retry failed actions: %w", err)
			}
			fmt.Printf("✓ Re-queued %d failed action(s)\n", n)
			return nil
		},
	}
}

// clearCmd returns the clear command
func clearCmd() *cobra.Command {
	var olderThan time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove old completed actions, or wipe the session queue",
		Long: `Remove completed actions older than a retention window, or with
--all delete every action for the session.

Examples:
  actionsync clear --older-than 168h
  actionsync clear --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, user, cleanup, err := openRepo()
			if err != nil {
				return err
			}
			defer cleanup()

			if all {
				if err := repo.ClearUser(user); err != nil {
					return fmt.Errorf("clear queue: %w", err)
				}
				fmt.Println("✓ Cleared all actions for session")
				return nil
			}

			cutoff := time.Now().Add(-olderThan)
			n, err := repo.DeleteOldCompleted(user, cutoff)
			if err != nil {
				return fmt.Errorf("clear completed actions: %w", err)
			}
			fmt.Printf("✓ Removed %d completed action(s)\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Age past which completed actions are removed")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every action for the session, regardless of state")
	return cmd
}

// statusLabel renders a sync state with its CLI color.
func statusLabel(st models.ActionStatus) string {
	switch st {
	case models.ActionStatusPending:
		return color.New(color.FgYellow).Sprint("pending")
	case models.ActionStatusSyncing:
		return color.New(color.FgHiCyan).Sprint("syncing")
	case models.ActionStatusCompleted:
		return color.New(color.FgHiGreen).Sprint("completed")
	case models.ActionStatusFailed:
		return color.New(color.FgRed).Sprint("failed")
	default:
		return string(st)
	}
}
