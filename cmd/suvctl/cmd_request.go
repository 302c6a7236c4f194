package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	suvclient "github.com/MrEthical07/suvclient"
	"github.com/spf13/cobra"
)

func newRequestCmd(a *app) *cobra.Command {
	var (
		method  string
		data    string
		headers []string
	)
	cmd := &cobra.Command{
		Use:   "request PATH",
		Short: "Send a raw request with the session cookie",
		Long: `Send one request to PATH, relative to the base URL, and copy the
response body to stdout. The status line goes to stderr.

--data is sent as a JSON body.`,
		Example: `  suvctl request /api/me
  suvctl request -X POST /api/violations --data '{"dorm":"3-201"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}

			opts := &suvclient.RequestOptions{
				Method: strings.ToUpper(method),
				Header: http.Header{},
			}
			for _, h := range headers {
				k, v, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("header %q: want Name: value", h)
				}
				opts.Header.Add(strings.TrimSpace(k), strings.TrimSpace(v))
			}
			if data != "" {
				opts.Body = strings.NewReader(data)
				opts.Header.Set("Content-Type", "application/json")
			}

			res, err := c.Request(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if !res.Authenticated() || a.expired.Load() {
				return errSessionExpired
			}
			defer res.Response.Body.Close()

			fmt.Fprintln(a.stderr, res.Response.Proto, res.Response.Status)
			if _, err := io.Copy(a.stdout, res.Response.Body); err != nil {
				return fmt.Errorf("read body: %w", err)
			}
			if res.Response.StatusCode >= 400 {
				return fmt.Errorf("server replied %s", res.Response.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra header, Name: value")
	return cmd
}
