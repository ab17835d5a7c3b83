package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gabgate/internal/client"
	"github.com/vovakirdan/gabgate/internal/client/api"
	"github.com/vovakirdan/gabgate/internal/client/forms"
	"github.com/vovakirdan/gabgate/internal/client/localstore"
)

func newRegisterCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := forms.Run(forms.NewRegisterForm(), cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, forms.ErrCancelled) {
				return nil
			}
			if err != nil {
				return c.fail(cmd, client.MsgUnexpected, err)
			}
			creds := forms.RegisterCredentials(values)

			user, token, err := c.api().Register(cmd.Context(), creds.Email, creds.Username, creds.Password)
			if err != nil {
				return c.failAPI(cmd, err)
			}
			return c.storeLogin(cmd, user, token, "Registered as %s!")
		},
	}
}

func newLoginCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := forms.Run(forms.NewLoginForm(), cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, forms.ErrCancelled) {
				return nil
			}
			if err != nil {
				return c.fail(cmd, client.MsgUnexpected, err)
			}
			creds := forms.LoginCredentials(values)

			user, token, err := c.api().Login(cmd.Context(), creds.Email, creds.Password)
			if err != nil {
				return c.failAPI(cmd, err)
			}
			return c.storeLogin(cmd, user, token, "Logged in as %s!")
		},
	}
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.store.ClearUser()
			if err := c.saveStore(cmd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out!")
			return nil
		},
	}
}

func newUserCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(cmd); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatUser(c.store.User))
			return nil
		},
	}
}

func (c *cli) storeLogin(cmd *cobra.Command, user *api.User, token, format string) error {
	c.store.SetUser(localstore.User{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Token:    token,
		Friends:  user.Friends,
	})
	if err := c.saveStore(cmd); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", user.Username)
	return nil
}

// formatUser renders the stored user without the token.
func formatUser(u localstore.User) string {
	friends := "-"
	if len(u.Friends) > 0 {
		friends = strings.Join(u.Friends, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ID:       %d\n", u.ID)
	fmt.Fprintf(&b, "Email:    %s\n", u.Email)
	fmt.Fprintf(&b, "Username: %s\n", u.Username)
	fmt.Fprintf(&b, "Friends:  %s\n", friends)
	return b.String()
}
