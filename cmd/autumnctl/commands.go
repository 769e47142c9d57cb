package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/autumn-backend/internal/app"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
	"github.com/yungbote/autumn-backend/internal/services"
)

// coreFactory builds the services the commands run against. Tests swap it out.
type coreFactory func(ctx context.Context) (services.TrackingService, services.CommitmentService, services.AuditService, func(), error)

func appCore(ctx context.Context) (services.TrackingService, services.CommitmentService, services.AuditService, func(), error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.NewCore(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, nil, nil, nil, err
	}
	return a.Services.Tracking, a.Services.Commitments, a.Services.Audit, a.Close, nil
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(appCore)
}

func newRootCmdWith(core coreFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "autumnctl",
		Short:         "Maintenance commands for the Autumn time-tracking store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAuditCmd(core), newReconcileCmd(core), newUserCmd(core))
	return root
}

func newAuditCmd(core coreFactory) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Recompute every stored total from the session ledger",
		Long:  "Audits all projects and subprojects, or only those owned by --username, and reconciles active commitments.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, _, audit, closeFn, err := core(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			owner := uuid.Nil
			if u := strings.TrimSpace(username); u != "" {
				if owner, err = audit.ResolveOwner(ctx, u); err != nil {
					return err
				}
			}
			rep, err := audit.Sweep(ctx, owner)
			fmt.Fprintf(cmd.OutOrStdout(), "audit %s: %d projects (%d failed), %d corrections, %d commitments banked in %s\n",
				rep.Status, rep.Projects, rep.ProjectsFailed, rep.Corrections, rep.CommitmentsBanked, rep.Duration)
			if err != nil {
				return err
			}
			if rep.Status != services.SweepSuccess {
				return fmt.Errorf("audit finished with status %s", rep.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "only audit this user's projects")
	return cmd
}

func newReconcileCmd(core coreFactory) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reconcile <commitment-id>",
		Short: "Bank finished periods of a commitment into its balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid commitment id %q: %w", args[0], err)
			}
			ctx := cmd.Context()
			_, commitments, _, closeFn, err := core(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := commitments.Reconcile(ctx, uuid.Nil, id, force)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reconcile even if already done today")
	return cmd
}

func newUserCmd(core coreFactory) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	var timezone string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tracking, _, _, closeFn, err := core(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := tracking.CreateUser(ctx, args[0], timezone)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), u)
		},
	}
	add.Flags().StringVar(&timezone, "timezone", "", "IANA zone for owner-local dates (default: TIME_ZONE)")
	user.AddCommand(add)
	return user
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
