package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

type target struct {
	Name     string `json:"name"`
	Query    string `json:"query"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target       target
	ListCount    int
	ExportCount  int
	OnlyInList   []string
	OnlyInExport []string
	Error        error
	Duration     time.Duration
}

func (c comparison) matches() bool {
	return c.Error == nil && len(c.OnlyInList) == 0 && len(c.OnlyInExport) == 0
}

type client struct {
	http     *http.Client
	base     string
	token    string
	pageSize int
}

func main() {
	var (
		base        string
		prefix      string
		token       string
		targetsPath string
		pageSize    int
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API prefix")
	flag.StringVar(&token, "token", os.Getenv("PARITY_TOKEN"), "Bearer token of a super admin or placement officer")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "export_parity", "targets.json"), "Path to JSON targets file")
	flag.IntVar(&pageSize, "page-size", 100, "Listing page size")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	c := &client{
		http:     &http.Client{Timeout: timeout},
		base:     strings.TrimRight(base, "/") + "/" + strings.Trim(prefix, "/"),
		token:    token,
		pageSize: pageSize,
	}

	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, t := range targets {
		comp := c.compare(t)
		if !comp.matches() {
			if t.Critical || comp.Error != nil {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(os.Stdout, comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

// compare pages through the listing and diffs its PRNs against a CSV export of the same query.
func (c *client) compare(tgt target) comparison {
	comp := comparison{Target: tgt}
	start := time.Now()
	defer func() { comp.Duration = time.Since(start) }()

	query, err := url.ParseQuery(strings.TrimPrefix(tgt.Query, "?"))
	if err != nil {
		comp.Error = fmt.Errorf("parse query: %w", err)
		return comp
	}

	listed, err := c.listPRNs(query)
	if err != nil {
		comp.Error = fmt.Errorf("list students: %w", err)
		return comp
	}
	exported, err := c.exportPRNs(query)
	if err != nil {
		comp.Error = fmt.Errorf("export students: %w", err)
		return comp
	}

	comp.ListCount = len(listed)
	comp.ExportCount = len(exported)
	comp.OnlyInList, comp.OnlyInExport = diff(listed, exported)
	return comp
}

type listEnvelope struct {
	Data []struct {
		PRN string `json:"prn"`
	} `json:"data"`
	Pagination *struct {
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) listPRNs(query url.Values) ([]string, error) {
	var prns []string
	for page := 1; ; page++ {
		q := cloneValues(query)
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(c.pageSize))

		body, err := c.get("/students", q)
		if err != nil {
			return nil, err
		}
		var env listEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode page %d: %w", page, err)
		}
		if env.Error != nil {
			return nil, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
		for _, s := range env.Data {
			prns = append(prns, s.PRN)
		}
		if env.Pagination == nil || page >= env.Pagination.TotalPages {
			return prns, nil
		}
	}
}

func (c *client) exportPRNs(query url.Values) ([]string, error) {
	q := cloneValues(query)
	q.Set("format", "csv")
	q.Set("fields", "prn")
	body, err := c.get("/students/export", q)
	if err != nil {
		return nil, err
	}
	return readFirstColumn(body)
}

func (c *client) get(path string, query url.Values) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.base+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// readFirstColumn returns the first column of a CSV document, skipping the header row.
func readFirstColumn(data []byte) ([]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty csv")
	}
	values := make([]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) > 0 {
			values = append(values, record[0])
		}
	}
	return values, nil
}

// diff reports values present in only one of the two lists, sorted.
func diff(a, b []string) (onlyA, onlyB []string) {
	inA := make(map[string]struct{}, len(a))
	for _, v := range a {
		inA[v] = struct{}{}
	}
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
		if _, ok := inA[v]; !ok {
			onlyB = append(onlyB, v)
		}
	}
	for v := range inA {
		if _, ok := inB[v]; !ok {
			onlyA = append(onlyA, v)
		}
	}
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return onlyA, onlyB
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Export Parity Report")
	fmt.Fprintln(w, "====================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.matches() {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s (%s) ?%s\n", status, res.Target.Name, res.Duration, res.Target.Query)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
			continue
		}
		fmt.Fprintf(w, "  Listed: %d | Exported: %d | Critical: %t\n", res.ListCount, res.ExportCount, res.Target.Critical)
		if len(res.OnlyInList) > 0 {
			fmt.Fprintf(w, "  Only in listing: %s\n", strings.Join(res.OnlyInList, ", "))
		}
		if len(res.OnlyInExport) > 0 {
			fmt.Fprintf(w, "  Only in export: %s\n", strings.Join(res.OnlyInExport, ", "))
		}
	}
}
