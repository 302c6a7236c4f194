package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session cookie",
		Long: `Log in to the suv deployment. The session cookie is kept in the
configured cookie store so later commands reuse it.

The password is read from stdin when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				line, err := bufio.NewReader(a.stdin).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required: pass --password or pipe it on stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			c, err := a.open()
			if err != nil {
				return err
			}
			u, err := c.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			out := a.out()
			if out.format != outputTable {
				return out.print(u, nil)
			}
			name := u.DisplayName
			if name == "" {
				name = u.Username
			}
			out.message("logged in as %s (%s)", name, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the local cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			c.Logout(cmd.Context())
			if err := c.ClearCookies(cmd.Context()); err != nil {
				return fmt.Errorf("clear cookies: %w", err)
			}
			a.out().message("logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			u, err := c.CheckSession(cmd.Context())
			if err != nil {
				return err
			}
			if u == nil {
				return errSessionExpired
			}

			w := whoami{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}
			if claims, err := c.Token(); err == nil {
				if exp, err := claims.Expiry(); err == nil {
					w.ExpiresAt = exp
				}
			}
			return a.out().print(w, whoamiTable{w: w, loc: a.loc})
		},
	}
}
