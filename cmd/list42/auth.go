package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the list store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		password := loginPassword
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return errors.New("password is required")
		}

		info, err := a.client.SignIn(cmd.Context(), loginEmail, password)
		if err != nil {
			return err
		}
		if err := a.prefs.SetSessionToken(info.Session.Token); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", info.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		if a.client.SessionToken() != "" {
			if err := a.client.SignOut(cmd.Context()); err != nil {
				a.logger.Warn("sign out", "error", err)
			}
		}
		if err := a.prefs.ClearSessionToken(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email address (required)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password; read from stdin when omitted")
	loginCmd.MarkFlagRequired("email")
}
