package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Finding is one issue reported by a scanner tool.
type Finding struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// ScanRequest configures an advanced scan of a web target.
type ScanRequest struct {
	TargetURL       string `json:"target_url"`
	IncludePortScan bool   `json:"include_port_scan"`
	// ScanType is "advanced" or "aggressive". Empty means advanced.
	ScanType string `json:"scan_type"`
}

// ScanReport is the result of an advanced scan.
type ScanReport struct {
	Target    string         `json:"target"`
	Status    string         `json:"status"`
	Findings  []Finding      `json:"findings"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp string         `json:"timestamp"`
}

// AdvancedScan runs the server's web scanner against req.TargetURL.
func (c *Client) AdvancedScan(ctx context.Context, req ScanRequest) (ScanReport, error) {
	switch req.ScanType {
	case "":
		req.ScanType = "advanced"
	case "advanced", "aggressive":
	default:
		return ScanReport{}, fmt.Errorf("unknown scan type %q", req.ScanType)
	}
	var rep ScanReport
	if err := c.doJSON(ctx, http.MethodPost, "/scanner/advanced-scan", nil, req, &rep); err != nil {
		return ScanReport{}, fmt.Errorf("scanning %s: %w", req.TargetURL, err)
	}
	return rep, nil
}

// Endpoint is one path to probe in an API audit.
type Endpoint struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

// AuditRequest configures an API audit.
type AuditRequest struct {
	BaseURL             string     `json:"base_url"`
	Endpoints           []Endpoint `json:"endpoints"`
	IncludeOptionsProbe bool       `json:"include_options_probe"`
}

// Probe is the server's observation of one audited endpoint.
type Probe struct {
	Endpoint     string `json:"endpoint"`
	Method       string `json:"method"`
	URL          string `json:"url"`
	StatusCode   int    `json:"status_code,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	AllowMethods string `json:"allow_methods,omitempty"`
	Error        string `json:"error,omitempty"`
}

// AuditReport is the result of an API audit.
type AuditReport struct {
	Target    string    `json:"target"`
	Probes    []Probe   `json:"probes"`
	Findings  []Finding `json:"findings"`
	Timestamp string    `json:"timestamp"`
}

// AuditAPI probes the endpoints of an HTTP API. Methods default to GET and
// are sent upper-case.
func (c *Client) AuditAPI(ctx context.Context, req AuditRequest) (AuditReport, error) {
	eps := make([]Endpoint, len(req.Endpoints))
	for i, ep := range req.Endpoints {
		ep.Method = strings.ToUpper(ep.Method)
		if ep.Method == "" {
			ep.Method = http.MethodGet
		}
		eps[i] = ep
	}
	req.Endpoints = eps
	var rep AuditReport
	if err := c.doJSON(ctx, http.MethodPost, "/scanner/api-audit", nil, req, &rep); err != nil {
		return AuditReport{}, fmt.Errorf("auditing %s: %w", req.BaseURL, err)
	}
	return rep, nil
}

// CVE is one vulnerability record.
type CVE struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Published   string   `json:"published"`
	Modified    string   `json:"modified"`
	Severity    string   `json:"severity,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// CVESearch is the result of a CVE lookup. Error carries an upstream
// failure the server chose to report in-band.
type CVESearch struct {
	Query     string `json:"query"`
	Count     int    `json:"count"`
	Source    string `json:"source,omitempty"`
	Results   []CVE  `json:"results"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// SearchCVEs looks up vulnerabilities matching q.
func (c *Client) SearchCVEs(ctx context.Context, q string) (CVESearch, error) {
	var out CVESearch
	if err := c.doJSON(ctx, http.MethodGet, "/scanner/cve/search", url.Values{"q": {q}}, nil, &out); err != nil {
		return CVESearch{}, fmt.Errorf("searching CVEs: %w", err)
	}
	if out.Error != "" && len(out.Results) == 0 {
		return out, fmt.Errorf("searching CVEs: %s", out.Error)
	}
	return out, nil
}
