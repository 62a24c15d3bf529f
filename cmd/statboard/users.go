package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/statboard/internal/access"
	"github.com/foxzi/statboard/internal/dashboard"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Pending account management (admin only)",
}

var usersPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List accounts awaiting approval",
	RunE:  withSession(runUsersPending),
}

var usersApproveCmd = &cobra.Command{
	Use:   "approve <user_id>",
	Short: "Approve a pending account",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runUsersApprove),
}

var usersRejectCmd = &cobra.Command{
	Use:   "reject <user_id>",
	Short: "Reject a pending account",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runUsersReject),
}

func init() {
	usersCmd.AddCommand(usersPendingCmd, usersApproveCmd, usersRejectCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersPending(ctx context.Context, e *cliEnv, args []string) error {
	if err := e.require(access.RequireAdmin); err != nil {
		return err
	}

	view := dashboard.NewUsersView(e.client, e.logger)
	defer view.Unmount()

	if err := view.Load(ctx); err != nil {
		return viewError(err)
	}
	printPending(view)
	return nil
}

func runUsersApprove(ctx context.Context, e *cliEnv, args []string) error {
	return userAction(ctx, e, args[0], (*dashboard.UsersView).Approve)
}

func runUsersReject(ctx context.Context, e *cliEnv, args []string) error {
	return userAction(ctx, e, args[0], (*dashboard.UsersView).Reject)
}

func userAction(ctx context.Context, e *cliEnv, id string, action func(*dashboard.UsersView, context.Context, string) error) error {
	if err := e.require(access.RequireAdmin); err != nil {
		return err
	}

	view := dashboard.NewUsersView(e.client, e.logger)
	defer view.Unmount()

	if err := action(view, ctx, id); err != nil {
		return viewError(err)
	}

	fmt.Println(view.State().Success)
	fmt.Println()
	printPending(view)
	return nil
}

func printPending(view *dashboard.UsersView) {
	users := view.Pending()
	if len(users) == 0 {
		fmt.Println("No pending users")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tROLE\tREGISTERED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, u.CreatedAt)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d\n", len(users))
}
