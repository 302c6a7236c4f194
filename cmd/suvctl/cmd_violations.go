package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	suvclient "github.com/MrEthical07/suvclient"
	"github.com/spf13/cobra"
)

func newViolationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "violations",
		Aliases: []string{"v"},
		Short:   "List, record and delete violations",
	}
	cmd.AddCommand(
		newViolationsListCmd(a),
		newViolationsTodayCmd(a),
		newViolationsCreateCmd(a),
		newViolationsDeleteCmd(a),
		newViolationsPhotoCmd(a),
	)
	return cmd
}

type pagedViolations struct {
	suvclient.ViolationPage `yaml:",inline"`
	Pages                   int `json:"pages" yaml:"pages"`
}

func newViolationsListCmd(a *app) *cobra.Command {
	var q suvclient.ViolationQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List violations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			page, err := c.ListViolations(cmd.Context(), q)
			if err != nil {
				return a.check(err)
			}
			out := a.out()
			if err := out.print(pagedViolations{ViolationPage: *page, Pages: page.Pages()}, violationTable{items: page.Data, loc: a.loc}); err != nil {
				return err
			}
			out.message("page %d of %d, %d records", page.Page, page.Pages(), page.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Date, "date", "", "only this day, YYYY-MM-DD")
	cmd.Flags().IntVar(&q.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "records per page (server caps at 200)")
	cmd.Flags().StringVarP(&q.Keyword, "keyword", "k", "", "match dorm, student, class or reason")
	return cmd
}

func newViolationsTodayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List today's violations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			today, err := c.TodayViolations(cmd.Context())
			if err != nil {
				return a.check(err)
			}
			out := a.out()
			if err := out.print(today, violationTable{items: today.Data, loc: a.loc}); err != nil {
				return err
			}
			out.message("%s: %d records", today.Date, today.Count)
			return nil
		},
	}
}

func newViolationsCreateCmd(a *app) *cobra.Command {
	var (
		in        suvclient.ViolationInput
		photoPath string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a violation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.Validate(); err != nil {
				return err
			}
			c, err := a.open()
			if err != nil {
				return err
			}

			var photo *suvclient.Photo
			if photoPath != "" {
				f, err := os.Open(photoPath)
				if err != nil {
					return fmt.Errorf("open photo: %w", err)
				}
				defer f.Close()
				photo = &suvclient.Photo{Filename: filepath.Base(photoPath), Data: f}
			}

			id, err := c.CreateViolation(cmd.Context(), in, photo)
			if err != nil {
				c.Toast(cmd.Context(), "添加失败", suvclient.NoticeError)
				return a.check(err)
			}
			c.Toast(cmd.Context(), "添加成功", suvclient.NoticeSuccess)

			out := a.out()
			if out.format != outputTable {
				return out.print(map[string]int64{"id": id}, nil)
			}
			out.message("created violation %d", id)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Dorm, "dorm", "", "dorm number")
	f.StringVar(&in.StudentName, "student", "", "student name")
	f.StringVar(&in.ClassName, "class", "", "class")
	f.StringVar(&in.Period, "period", "", "time period")
	f.StringVar(&in.Reason, "reason", "", "reason")
	f.StringVar(&in.Department, "department", "", "department")
	f.StringVar(&in.Inspector, "inspector", "", "inspector")
	f.StringVar(&photoPath, "photo", "", "image file to attach")
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", suvclient.ErrInvalidID, arg)
	}
	return id, nil
}

func newViolationsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a violation (admin)",
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
			if err := c.DeleteViolation(cmd.Context(), id); err != nil {
				c.Toast(cmd.Context(), "删除失败", suvclient.NoticeError)
				return a.check(err)
			}
			c.Toast(cmd.Context(), "已删除", suvclient.NoticeSuccess)
			a.out().message("deleted violation %d", id)
			return nil
		},
	}
}

func newViolationsPhotoCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "photo ID",
		Short: "Download the photo attached to a violation",
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
			body, contentType, err := c.ViolationPhoto(cmd.Context(), id)
			if err != nil {
				return a.check(err)
			}
			defer body.Close()

			w, closeOut, err := a.createOutput(outPath)
			if err != nil {
				return err
			}
			n, err := io.Copy(w, body)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("write photo: %w", err)
			}
			if outPath != "-" {
				fmt.Fprintf(a.stderr, "saved %s (%s, %d bytes)\n", outPath, contentType, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "destination file, - for stdout")
	return cmd
}

// createOutput opens path for writing, or stdout for "-".
func (a *app) createOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
