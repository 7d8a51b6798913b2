package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL       = flag.String("api-url", "http://localhost:8080", "Pagesift API base URL")
	apiKey       = flag.String("api-key", "", "API key for authenticated requests")
	runs         = flag.Int("runs", 3, "Number of runs per URL for averaging")
	interactions = flag.Bool("interactions", false, "Enable interaction phases")
	output       = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering 5 site types.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "https://www.bbc.com/news"},
	{"Complex", "https://github.com/go-rod/rod"},
}

// --- Request / Response types (mirrors models package) ---

type scrapeRequest struct {
	URL                string `json:"url"`
	EnableInteractions bool   `json:"enableInteractions,omitempty"`
}

type scrapeResponse struct {
	URL  string `json:"url"`
	Meta struct {
		Title    string `json:"title"`
		Strategy string `json:"strategy"`
	} `json:"meta"`
	Sections []struct {
		Type string `json:"type"`
	} `json:"sections"`
	Interactions struct {
		Pages []string `json:"pages"`
	} `json:"interactions"`
	Errors []struct {
		Phase   string `json:"phase"`
		Message string `json:"message"`
	} `json:"errors"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run          int            `json:"run"`
	LatencyMs    int64          `json:"latency_ms"`
	Strategy     string         `json:"strategy"`
	Sections     int            `json:"sections"`
	SectionTypes map[string]int `json:"section_types,omitempty"`
	Pages        int            `json:"pages"`
	PhaseErrors  int            `json:"phase_errors"`
	HasTitle     bool           `json:"has_title"`
	Success      bool           `json:"success"`
	Error        string         `json:"error,omitempty"`
}

type urlAverages struct {
	LatencyMs   float64 `json:"latency_ms"`
	Sections    float64 `json:"sections"`
	PhaseErrors float64 `json:"phase_errors"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Label    string       `json:"label"`
	Runs     []runResult  `json:"runs"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Pagesift Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure Pagesift is running (go run ./cmd/pagesift)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(t.URL, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %s  %d sections\n", rr.LatencyMs, rr.Strategy, rr.Sections)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(url string, run int) runResult {
	rr := runResult{Run: run}

	reqBody := scrapeRequest{
		URL:                url,
		EnableInteractions: *interactions,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/scrape", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	rr.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	if sr.Error != nil {
		rr.Error = fmt.Sprintf("[%s] %s", sr.Error.Code, sr.Error.Message)
		return rr
	}

	rr.Success = resp.StatusCode == http.StatusOK
	rr.Strategy = sr.Meta.Strategy
	rr.Sections = len(sr.Sections)
	rr.Pages = len(sr.Interactions.Pages)
	rr.PhaseErrors = len(sr.Errors)
	rr.HasTitle = sr.Meta.Title != "" && sr.Meta.Title != "Untitled"

	rr.SectionTypes = map[string]int{}
	for _, s := range sr.Sections {
		rr.SectionTypes[s.Type]++
	}

	return rr
}

func computeAverages(runs []runResult) *urlAverages {
	var successCount int
	var avg urlAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.LatencyMs += float64(r.LatencyMs)
		avg.Sections += float64(r.Sections)
		avg.PhaseErrors += float64(r.PhaseErrors)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.LatencyMs /= n
	avg.Sections /= n
	avg.PhaseErrors /= n
	return &avg
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tStrategy\tSections\tTypes\n")
	fmt.Fprintf(w, "───\t───────────\t────────\t────────\t─────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", truncateURL(r.URL, 40))
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%s\t%.1f\t%s\n",
			truncateURL(r.URL, 40),
			int64(r.Averages.LatencyMs),
			dominantStrategy(r.Runs),
			r.Averages.Sections,
			typeSummary(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

// dominantStrategy returns the strategy most runs reported.
func dominantStrategy(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		if r.Success {
			counts[r.Strategy]++
		}
	}
	best, bestCount := "-", 0
	for s, count := range counts {
		if count > bestCount {
			best = s
			bestCount = count
		}
	}
	return best
}

// typeSummary lists the section types seen across runs, most frequent first.
func typeSummary(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		for typ, n := range r.SectionTypes {
			counts[typ] += n
		}
	}
	types := make([]string, 0, len(counts))
	for typ := range counts {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})
	if len(types) > 4 {
		types = types[:4]
	}
	return strings.Join(types, ",")
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
