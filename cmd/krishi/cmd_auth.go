package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/usecases"
)

var (
	password   string
	signupForm domain.SignupForm
)

// signupCmd creates an account and signs in with it
var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a farmer account",
	Long: `Creates a Krishi Sahayak account and keeps the returned session.

Example:
  krishi signup --name Asha --email asha@example.com --phone 9876543210 \
    --password secret1 --confirm-password secret1 \
    --village Doiwala --state Uttarakhand --crop Rice`,
	RunE: runSignup,
}

// loginCmd signs in with an email address or a phone number
var loginCmd = &cobra.Command{
	Use:   "login [email-or-phone]",
	Short: "Sign in and keep the session on this machine",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in farmer",
	RunE:  runWhoami,
}

func registerAuthCommands() {
	f := signupCmd.Flags()
	f.StringVar(&signupForm.Name, "name", "", "Full name")
	f.StringVar(&signupForm.Email, "email", "", "Email address")
	f.StringVar(&signupForm.Phone, "phone", "", "10-digit mobile number")
	f.StringVar(&signupForm.Password, "password", "", "Password (at least 6 characters)")
	f.StringVar(&signupForm.ConfirmPassword, "confirm-password", "", "Password again")
	f.StringVar(&signupForm.Village, "village", "", "Village")
	f.StringVar(&signupForm.State, "state", "", "State")
	f.StringVar(&signupForm.CropType, "crop", "", "Main crop")

	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runSignup(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
		auth := usecases.NewAuthService(env.backends, nil)
		sess, err := auth.Register(ctx, signupForm)
		if err != nil {
			return describe(err)
		}
		if err := env.store.Save(ctx, sess); err != nil {
			return err
		}
		fmt.Fprintf(env.out, "Welcome, %s. You are signed in.\n", displayName(sess.User))
		return nil
	})
}

func runLogin(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
		auth := usecases.NewAuthService(env.backends, nil)
		sess, err := auth.Login(ctx, args[0], password)
		if err != nil {
			return describe(err)
		}
		if err := env.store.Save(ctx, sess); err != nil {
			return err
		}
		logger.Debug("session stored", "user_id", sess.UserID(), "expires_at", sess.ExpiresAt)
		fmt.Fprintf(env.out, "Signed in as %s.\n", displayName(sess.User))
		return nil
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
		if err := env.store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(env.out, "Signed out.")
		return nil
	})
}

func runWhoami(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
		sess, err := env.session(ctx)
		if err != nil {
			return err
		}
		return printJSON(env.out, sess.User)
	})
}

func displayName(u domain.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
