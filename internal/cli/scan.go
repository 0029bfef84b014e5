package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/api"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the site's security tools",
	}
	cmd.AddCommand(newScanAdvancedCmd(), newScanAuditCmd(), newScanCVECmd())
	return cmd
}

func printFindings(cmd *cobra.Command, findings []api.Finding) error {
	if len(findings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No findings.")
		return nil
	}
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{f.Severity, f.Type, truncate(f.Description, 72)})
	}
	return table(cmd.OutOrStdout(), []string{"SEVERITY", "TYPE", "DESCRIPTION"}, rows)
}

func newScanAdvancedCmd() *cobra.Command {
	var req api.ScanRequest
	var aggressive bool
	cmd := &cobra.Command{
		Use:   "advanced <url>",
		Short: "Scan a web target for misconfigurations",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			req.TargetURL = args[0]
			if aggressive {
				req.ScanType = "aggressive"
			}
			rep, err := a.api.AdvancedScan(cmd.Context(), req)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", rep.Target, rep.Status)
			return printFindings(cmd, rep.Findings)
		}),
	}
	cmd.Flags().BoolVar(&req.IncludePortScan, "ports", false, "Include a port scan")
	cmd.Flags().BoolVar(&aggressive, "aggressive", false, "Run the aggressive scan profile")
	return cmd
}

// parseEndpoint reads "METHOD:/path" or a bare "/path".
func parseEndpoint(s string) (api.Endpoint, error) {
	method, path, ok := strings.Cut(s, ":")
	if !ok || strings.Contains(method, "/") {
		method, path = "", s
	}
	if !strings.HasPrefix(path, "/") {
		return api.Endpoint{}, usagef("endpoint %q: path must start with /", s)
	}
	return api.Endpoint{Path: path, Method: method}, nil
}

func newScanAuditCmd() *cobra.Command {
	var (
		endpoints []string
		noOptions bool
	)
	cmd := &cobra.Command{
		Use:   "audit <base-url>",
		Short: "Probe the endpoints of an HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if len(endpoints) == 0 {
				return usagef("at least one --endpoint is required")
			}
			req := api.AuditRequest{BaseURL: args[0], IncludeOptionsProbe: !noOptions}
			for _, s := range endpoints {
				ep, err := parseEndpoint(s)
				if err != nil {
					return err
				}
				req.Endpoints = append(req.Endpoints, ep)
			}
			rep, err := a.api.AuditAPI(cmd.Context(), req)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			rows := make([][]string, 0, len(rep.Probes))
			for _, p := range rep.Probes {
				status := p.Error
				if status == "" {
					status = strconv.Itoa(p.StatusCode)
				}
				rows = append(rows, []string{p.Method, p.Endpoint, status, p.AllowMethods})
			}
			if err := table(cmd.OutOrStdout(), []string{"METHOD", "ENDPOINT", "STATUS", "ALLOW"}, rows); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return printFindings(cmd, rep.Findings)
		}),
	}
	cmd.Flags().StringArrayVar(&endpoints, "endpoint", nil, "Endpoint to probe as METHOD:/path (repeatable)")
	cmd.Flags().BoolVar(&noOptions, "no-options", false, "Skip the OPTIONS probe")
	return cmd
}

func newScanCVECmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cve <query>",
		Short: "Search published CVEs",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			res, err := a.api.SearchCVEs(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			sort.SliceStable(res.Results, func(i, j int) bool {
				return res.Results[i].Published > res.Results[j].Published
			})
			rows := make([][]string, 0, len(res.Results))
			for _, c := range res.Results {
				score := ""
				if c.Score != nil {
					score = strconv.FormatFloat(*c.Score, 'f', 1, 64)
				}
				rows = append(rows, []string{c.ID, c.Severity, score, c.Published, truncate(c.Description, 60)})
			}
			return table(cmd.OutOrStdout(), []string{"ID", "SEVERITY", "SCORE", "PUBLISHED", "DESCRIPTION"}, rows)
		}),
	}
}
