package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/vetclinic/internal/control"
	"github.com/vietddude/vetclinic/internal/core/domain"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and persist the session",
	Long:  `Login sends the credentials once. When --password is omitted it is read from stdin.`,
	Args:  cobra.NoArgs,
	RunE:  withApp(runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, app *control.App, _ []string) error {
		if err := app.Services.Auth.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	}),
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(ctx context.Context, app *control.App, _ []string) error {
	password := loginPassword
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("password is required")
	}

	resp, err := app.Services.Auth.Login(ctx, domain.Credentials{Email: loginEmail, Password: password})
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", resp.User.FullName(), domain.Label(resp.User.RoleName()))
	return nil
}
