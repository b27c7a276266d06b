package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ruedaya/storefront/internal/domain/tenant"
)

func newResolveCmd(load configLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <url>...",
		Short: "Show how the tenant resolver routes the given URLs",
		Long: `Resolve runs the configured tenant rules against each URL and prints the
decision. A table is printed on a terminal, JSON lines otherwise.

Example:
  ruedaya resolve chevrolet-loja.ruedaya.com/vehiculos "ruedaya.com/?dealer=kia-loja"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			resolver := tenant.NewResolver(cfg.Tenancy)

			rows := make([]resolveRow, 0, len(args))
			for _, raw := range args {
				req, err := parseTarget(raw)
				if err != nil {
					return err
				}
				rows = append(rows, resolveRow{Input: raw, Resolution: resolver.Resolve(req)})
			}

			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				return writeJSONLines(out, rows)
			}
			return writeTable(out, rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}

type resolveRow struct {
	Input      string            `json:"input"`
	Resolution tenant.Resolution `json:"resolution"`
}

// parseTarget turns "host/path?query", with or without a scheme, into a request descriptor.
func parseTarget(raw string) (tenant.Request, error) {
	s := raw
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return tenant.Request{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Host == "" {
		return tenant.Request{}, fmt.Errorf("parse %q: missing host", raw)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return tenant.Request{Hostname: u.Host, Path: path, EscapedPath: u.EscapedPath(), RawQuery: u.RawQuery}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

func writeJSONLines(w io.Writer, rows []resolveRow) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, rows []resolveRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "INPUT\tRULE\tDEALER\tTARGET")
	for _, row := range rows {
		res := row.Resolution
		dealer, target := "-", "-"
		if res.HasDealer() {
			dealer = res.DealerSlug
			target = res.Target()
		}
		if res.Bypassed {
			target = "(bypass)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Input, res.Rule, dealer, target)
	}
	return tw.Flush()
}
