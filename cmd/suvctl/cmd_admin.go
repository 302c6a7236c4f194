package main

import (
	"errors"
	"fmt"
	"time"

	suvclient "github.com/MrEthical07/suvclient"
	"github.com/MrEthical07/suvclient/format"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var date, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download one day of violations as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date != "" {
				if _, err := time.ParseInLocation(format.DateLayout, date, a.loc); err != nil {
					return fmt.Errorf("--date wants YYYY-MM-DD: %w", err)
				}
			}
			if outPath == "" {
				day := date
				if day == "" {
					day = format.Date(time.Now(), a.loc)
				}
				outPath = "违纪记录_" + day + ".csv"
			}

			c, err := a.open()
			if err != nil {
				return err
			}
			w, closeOut, err := a.createOutput(outPath)
			if err != nil {
				return err
			}
			n, err := c.ExportCSV(cmd.Context(), date, w)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return a.check(err)
			}
			if outPath != "-" {
				fmt.Fprintf(a.stderr, "saved %s (%d bytes)\n", outPath, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to export, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&outPath, "out", "", "destination file, - for stdout")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record and account counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return a.check(err)
			}
			return a.out().print(stats, statsTable{stats: stats})
		},
	}
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admin)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.open()
				if err != nil {
					return err
				}
				users, err := c.ListUsers(cmd.Context())
				if err != nil {
					return a.check(err)
				}
				return a.out().print(users, accountTable{items: users, loc: a.loc})
			},
		},
		newUsersCreateCmd(a),
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				c, err := a.open()
				if err != nil {
					return err
				}
				if err := c.DeleteUser(cmd.Context(), id); err != nil {
					return a.check(err)
				}
				a.out().message("deleted user %d", id)
				return nil
			},
		},
		newUsersResetPasswordCmd(a),
	)
	return cmd
}

func newUsersCreateCmd(a *app) *cobra.Command {
	var u suvclient.NewUser
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if u.Username == "" || u.Password == "" {
				return errors.New("--username and --password are required")
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			if err := c.CreateUser(cmd.Context(), u); err != nil {
				return a.check(err)
			}
			a.out().message("created user %s", u.Username)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&u.Username, "username", "u", "", "account name")
	f.StringVarP(&u.Password, "password", "p", "", "initial password")
	f.StringVar(&u.DisplayName, "display-name", "", "name shown in the UI")
	f.StringVar(&u.Role, "role", "staff", "admin or staff")
	return cmd
}

func newUsersResetPasswordCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "reset-password ID",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("--password is required")
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			if err := c.ResetPassword(cmd.Context(), id, password); err != nil {
				return a.check(err)
			}
			a.out().message("password reset for user %d", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password")
	return cmd
}
