package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/foxzi/statboard/internal/access"
	"github.com/foxzi/statboard/internal/backend"
)

var (
	authEmail    string
	authPassword string
)

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in and store the access token",
	RunE:  withGateway(runSignIn),
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new account (requires admin approval)",
	RunE:  withGateway(runSignUp),
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset link",
	RunE:  withGateway(runForgotPassword),
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Forget the stored access token",
	RunE:  withGateway(runSignOut),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  withSession(runWhoami),
}

func init() {
	for _, cmd := range []*cobra.Command{signinCmd, signupCmd, forgotPasswordCmd} {
		cmd.Flags().StringVar(&authEmail, "email", "", "account email (will prompt if not provided)")
	}
	signinCmd.Flags().StringVar(&authPassword, "password", "", "password (will prompt if not provided)")
	signupCmd.Flags().StringVar(&authPassword, "password", "", "password (will prompt if not provided)")

	rootCmd.AddCommand(signinCmd, signupCmd, forgotPasswordCmd, signoutCmd, whoamiCmd)
}

func runSignIn(ctx context.Context, e *cliEnv, args []string) error {
	email, err := emailOrPrompt()
	if err != nil {
		return err
	}
	password, err := passwordOrPrompt(false)
	if err != nil {
		return err
	}

	if err := e.session.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("sign in failed: %s", backend.MessageOr(err, "Invalid email or password"))
	}

	id := e.session.Snapshot().Identity
	fmt.Printf("Signed in as %s (%s)\n", id.Email, id.Role)
	return nil
}

func runSignUp(ctx context.Context, e *cliEnv, args []string) error {
	email, err := emailOrPrompt()
	if err != nil {
		return err
	}
	password, err := passwordOrPrompt(true)
	if err != nil {
		return err
	}

	resp, err := e.session.SignUp(ctx, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %s", backend.MessageOr(err, "Registration failed"))
	}

	msg := "Registration successful. Please wait for admin approval."
	if resp.Message != "" {
		msg = resp.Message
	}
	fmt.Println(msg)
	return nil
}

func runForgotPassword(ctx context.Context, e *cliEnv, args []string) error {
	email, err := emailOrPrompt()
	if err != nil {
		return err
	}

	resp, err := e.session.ForgotPassword(ctx, email)
	if err != nil {
		return fmt.Errorf("reset request failed: %s", backend.MessageOr(err, "Failed to send reset link"))
	}

	msg := "If an account exists for this email, a reset link has been sent"
	if resp.Message != "" {
		msg = resp.Message
	}
	fmt.Println(msg)
	return nil
}

// runSignOut only drops the stored token, the backend is not contacted
func runSignOut(ctx context.Context, e *cliEnv, args []string) error {
	e.session.SignOut()
	fmt.Println("Signed out")
	return nil
}

func runWhoami(ctx context.Context, e *cliEnv, args []string) error {
	if err := e.require(access.RequireUser); err != nil {
		return err
	}

	id := e.session.Snapshot().Identity
	fmt.Printf("ID:      %s\n", id.ID)
	fmt.Printf("Email:   %s\n", id.Email)
	fmt.Printf("Role:    %s\n", id.Role)
	fmt.Printf("Status:  %s\n", id.Status)
	if id.CreatedAt != "" {
		fmt.Printf("Created: %s\n", id.CreatedAt)
	}
	return nil
}

func emailOrPrompt() (string, error) {
	if authEmail != "" {
		return strings.TrimSpace(authEmail), nil
	}

	fmt.Print("Email: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	email := strings.TrimSpace(line)
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	return email, nil
}

func passwordOrPrompt(confirm bool) (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}

	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	password := string(pwBytes)

	if confirm {
		fmt.Print("Confirm password: ")
		pwBytes2, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()

		if password != string(pwBytes2) {
			return "", fmt.Errorf("passwords do not match")
		}
	}

	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}
