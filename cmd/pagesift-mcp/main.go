package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the Pagesift API request model.
type scrapeRequest struct {
	URL                 string `json:"url"`
	EnableInteractions  bool   `json:"enableInteractions,omitempty"`
	InteractionStrategy string `json:"interactionStrategy,omitempty"`
}

// scrapeResult mirrors the Pagesift API response model.
type scrapeResult struct {
	URL  string `json:"url"`
	Meta struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Language    string `json:"language"`
		Strategy    string `json:"strategy"`
	} `json:"meta"`
	Sections []struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Label   string `json:"label"`
		Content struct {
			Headings []string `json:"headings"`
			Text     string   `json:"text"`
			Links    []struct {
				Text string `json:"text"`
				Href string `json:"href"`
			} `json:"links"`
			Lists  [][]string `json:"lists"`
			Tables []struct {
				Headers []string   `json:"headers"`
				Rows    [][]string `json:"rows"`
			} `json:"tables"`
		} `json:"content"`
	} `json:"sections"`
	Interactions struct {
		Clicks  []string `json:"clicks"`
		Scrolls int      `json:"scrolls"`
		Pages   []string `json:"pages"`
	} `json:"interactions"`
	Errors []struct {
		Phase   string `json:"phase"`
		Message string `json:"message"`
	} `json:"errors"`
}

// readerResult mirrors the Pagesift reader API response model.
type readerResult struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Byline   string `json:"byline"`
	Markdown string `json:"markdown"`
	Strategy string `json:"strategy"`
	Tokens   struct {
		Original       int     `json:"original"`
		Cleaned        int     `json:"cleaned"`
		SavingsPercent float64 `json:"savingsPercent"`
	} `json:"tokens"`
}

// errorEnvelope mirrors the Pagesift API error envelope.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("PAGESIFT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("PAGESIFT_API_KEY")

	s := server.NewMCPServer(
		"pagesift",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapePageTool := mcp.NewTool("scrape_page",
		mcp.WithDescription("Scrape a web page into classified sections (hero, nav, pricing, faq, ...) with structured content. Falls back to a headless browser for JavaScript-heavy pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithBoolean("enable_interactions",
			mcp.Description("Interact with the rendered page before capture: switch tabs, click load-more buttons, scroll infinite feeds, follow pagination"),
		),
		mcp.WithString("interaction_strategy",
			mcp.Description("Which interaction phases to run (default: 'auto' runs all applicable phases)"),
			mcp.Enum("auto", "tabs", "load_more", "scroll", "pagination", "all"),
		),
	)
	s.AddTool(scrapePageTool, handleScrapePage(apiURL, apiKey))

	readPageTool := mcp.NewTool("read_page",
		mcp.WithDescription("Fetch a web page and return its main article as markdown with token estimates. Best for articles, docs and blog posts."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to read"),
		),
	)
	s.AddTool(readPageTool, handleReadPage(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Pagesift API and returns the
// response body along with the HTTP status code.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// apiError extracts the error envelope from a non-2xx response body.
func apiError(body []byte, status int) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return fmt.Sprintf("[%s] %s", env.Error.Code, env.Error.Message)
	}
	return fmt.Sprintf("API returned status %d", status)
}

func handleScrapePage(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := scrapeRequest{
			URL:                 url,
			EnableInteractions:  request.GetBool("enable_interactions", false),
			InteractionStrategy: request.GetString("interaction_strategy", ""),
		}

		respBody, status, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}
		if status >= 400 {
			return mcp.NewToolResultError(apiError(respBody, status)), nil
		}

		var result scrapeResult
		if err := json.Unmarshal(respBody, &result); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		return mcp.NewToolResultText(formatScrapeResult(&result)), nil
	}
}

// formatScrapeResult renders a scrape result as readable text, one block
// per section.
func formatScrapeResult(r *scrapeResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\nSource: %s\nStrategy: %s\nSections: %d\n\n",
		r.Meta.Title, r.URL, r.Meta.Strategy, len(r.Sections)))

	for _, sec := range r.Sections {
		sb.WriteString(fmt.Sprintf("--- [%s] %s (%s) ---\n", sec.Type, sec.Label, sec.ID))

		for _, h := range sec.Content.Headings {
			sb.WriteString("# " + h + "\n")
		}
		if sec.Content.Text != "" {
			sb.WriteString(sec.Content.Text + "\n")
		}
		for _, list := range sec.Content.Lists {
			for _, item := range list {
				sb.WriteString("* " + item + "\n")
			}
		}
		for _, table := range sec.Content.Tables {
			if len(table.Headers) > 0 {
				sb.WriteString(strings.Join(table.Headers, " | ") + "\n")
			}
			for _, row := range table.Rows {
				sb.WriteString(strings.Join(row, " | ") + "\n")
			}
		}
		for _, link := range sec.Content.Links {
			sb.WriteString(fmt.Sprintf("[%s](%s)\n", link.Text, link.Href))
		}
		sb.WriteString("\n")
	}

	if len(r.Interactions.Pages) > 1 || r.Interactions.Scrolls > 0 || len(r.Interactions.Clicks) > 0 {
		sb.WriteString(fmt.Sprintf("---\nInteractions: %d clicks, %d scrolls, %d pages\n",
			len(r.Interactions.Clicks), r.Interactions.Scrolls, len(r.Interactions.Pages)))
	}

	if len(r.Errors) > 0 {
		sb.WriteString("---\nRecoverable errors:\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("* %s: %s\n", e.Phase, e.Message))
		}
	}

	return sb.String()
}

func handleReadPage(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, status, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/reader", map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reader request failed: %v", err)), nil
		}
		if status >= 400 {
			return mcp.NewToolResultError(apiError(respBody, status)), nil
		}

		var result readerResult
		if err := json.Unmarshal(respBody, &result); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		out := fmt.Sprintf("Title: %s\nSource: %s\n\n", result.Title, result.URL)
		if result.Byline != "" {
			out = fmt.Sprintf("Title: %s\nByline: %s\nSource: %s\n\n", result.Title, result.Byline, result.URL)
		}
		out += result.Markdown
		out += fmt.Sprintf("\n\n---\nTokens: %d (saved %.0f%% from original %d)",
			result.Tokens.Cleaned, result.Tokens.SavingsPercent, result.Tokens.Original)

		return mcp.NewToolResultText(out), nil
	}
}
