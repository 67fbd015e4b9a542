package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	serverURL = envOr("ACCEPTANCE_URL", "http://localhost:8080")
	authToken = envOr("AUTH_TOKEN", "your-secret-token")
	client    = &http.Client{Timeout: 5 * time.Second}
)

const maxDuration = 1 * time.Second

type MCPRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      map[string]string      `json:"clientInfo"`
}

type CallToolParams struct {
	Name      string      `json:"name"`
	Arguments interface{} `json:"arguments,omitempty"`
}

// ListResponse is the body of GET /v1/foods
type ListResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
	Meta struct {
		Total      int  `json:"total"`
		Count      int  `json:"count"`
		NextOffset *int `json:"next_offset"`
	} `json:"meta"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error struct {
		Code  string `json:"code"`
		Param string `json:"param"`
	} `json:"error"`
}

// PerformanceResult is one timed request
type PerformanceResult struct {
	Duration time.Duration
	Success  bool
	Error    string
}

func main() {
	fmt.Printf("🧪 Running acceptance tests for the PhilFCT API at %s\n\n", serverURL)

	steps := []struct {
		name string
		run  func() error
	}{
		{"health endpoint (no auth)", testHealth},
		{"readiness endpoint (no auth)", testReady},
		{"REST without auth is rejected", testRESTWithoutAuth},
		{"search foods", testSearch},
		{"pagination returns every match once", testPagination},
		{"invalid parameters are rejected", testInvalidParams},
		{"food detail and not found", testFoodDetail},
		{"taxonomy listings", testTaxonomy},
		{"MCP without auth is rejected", testMCPWithoutAuth},
		{"MCP initialize and tool call", testMCPToolCall},
		{"concurrent load", testPerformanceUnderLoad},
	}

	for i, step := range steps {
		fmt.Printf("%d. Testing %s...\n", i+1, step.name)
		if err := step.run(); err != nil {
			fmt.Printf("❌ %s failed: %v\n", step.name, err)
			os.Exit(1)
		}
		fmt.Printf("✅ %s passed\n\n", step.name)
	}

	fmt.Printf("🎉 All acceptance tests passed!\n")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func get(path string, auth bool, out interface{}) (int, error) {
	req, err := http.NewRequest(http.MethodGet, serverURL+path, nil)
	if err != nil {
		return 0, err
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func expectStatus(path string, auth bool, want int) error {
	status, err := get(path, auth, nil)
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("%s: expected status %d, got %d", path, want, status)
	}
	return nil
}

func testHealth() error {
	return expectStatus("/health", false, http.StatusOK)
}

func testReady() error {
	return expectStatus("/ready", false, http.StatusOK)
}

func testRESTWithoutAuth() error {
	if authToken == "" {
		fmt.Printf("   ⏭️  AUTH_TOKEN empty, skipping\n")
		return nil
	}
	return expectStatus("/v1/foods", false, http.StatusUnauthorized)
}

func testSearch() error {
	var list ListResponse
	status, err := get("/v1/foods?q=rice&limit=5", true, &list)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d", status)
	}
	if list.Meta.Total == 0 {
		return fmt.Errorf("expected foods matching 'rice'")
	}
	for _, f := range list.Data {
		if !strings.Contains(strings.ToLower(f.Name), "rice") {
			return fmt.Errorf("food %s (%s) does not match 'rice'", f.ID, f.Name)
		}
	}
	fmt.Printf("   Found %d foods matching 'rice'\n", list.Meta.Total)
	return nil
}

func testPagination() error {
	seen := make(map[string]bool)
	offset := 0
	total := -1

	for {
		var list ListResponse
		path := "/v1/foods?q=raw&sort=name&limit=25&offset=" + fmt.Sprint(offset)
		if _, err := get(path, true, &list); err != nil {
			return err
		}
		total = list.Meta.Total
		for _, f := range list.Data {
			if seen[f.ID] {
				return fmt.Errorf("food %s returned twice", f.ID)
			}
			seen[f.ID] = true
		}
		if list.Meta.NextOffset == nil {
			break
		}
		offset = *list.Meta.NextOffset
	}

	if len(seen) != total {
		return fmt.Errorf("paged through %d foods, expected %d", len(seen), total)
	}
	fmt.Printf("   Paged through %d foods\n", total)
	return nil
}

func testInvalidParams() error {
	for param, query := range map[string]string{
		"limit":  "limit=0",
		"offset": "offset=-1",
		"order":  "order=sideways",
	} {
		var body ErrorResponse
		status, err := get("/v1/foods?"+query, true, &body)
		if err != nil {
			return err
		}
		if status != http.StatusBadRequest || body.Error.Code != "invalid_param" || body.Error.Param != param {
			return fmt.Errorf("%s: got status %d, code %q, param %q", query, status, body.Error.Code, body.Error.Param)
		}
	}
	return nil
}

func testFoodDetail() error {
	var list ListResponse
	if _, err := get("/v1/foods?limit=1", true, &list); err != nil {
		return err
	}
	if len(list.Data) == 0 {
		return fmt.Errorf("no foods loaded")
	}

	id := list.Data[0].ID
	if err := expectStatus("/v1/foods/"+url.PathEscape(id), true, http.StatusOK); err != nil {
		return err
	}
	return expectStatus("/v1/foods/DOES-NOT-EXIST", true, http.StatusNotFound)
}

func testTaxonomy() error {
	for _, path := range []string{"/v1/nutrients", "/v1/categories"} {
		var body struct {
			Data []map[string]interface{} `json:"data"`
		}
		if _, err := get(path, true, &body); err != nil {
			return err
		}
		if len(body.Data) == 0 {
			return fmt.Errorf("%s returned no entries", path)
		}
		fmt.Printf("   %s: %d entries\n", path, len(body.Data))
	}
	return nil
}

func postMCP(req MCPRequest, auth bool) (*http.Response, error) {
	jsonData, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest("POST", serverURL+"/mcp", bytes.NewBuffer(jsonData))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if auth {
		httpReq.Header.Set("Authorization", "Bearer "+authToken)
	}
	return client.Do(httpReq)
}

func initializeRequest() MCPRequest {
	return MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params: InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    map[string]interface{}{},
			ClientInfo: map[string]string{
				"name":    "test-client",
				"version": "1.0.0",
			},
		},
	}
}

func testMCPWithoutAuth() error {
	if authToken == "" {
		fmt.Printf("   ⏭️  AUTH_TOKEN empty, skipping\n")
		return nil
	}

	resp, err := postMCP(initializeRequest(), false)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("expected status 401, got %d", resp.StatusCode)
	}
	return nil
}

func testMCPToolCall() error {
	resp, err := postMCP(initializeRequest(), true)
	if err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("initialize: expected status 200, got %d", resp.StatusCode)
	}

	body, err := searchFoodsTool("rice", 2)
	if err != nil {
		return err
	}
	if !strings.Contains(body, "\"foods\"") {
		return fmt.Errorf("tool result has no foods: %s", truncate(body, 200))
	}
	return nil
}

func searchFoodsTool(q string, requestID int) (string, error) {
	resp, err := postMCP(MCPRequest{
		JSONRPC: "2.0",
		ID:      requestID,
		Method:  "tools/call",
		Params: CallToolParams{
			Name:      "search_foods",
			Arguments: map[string]interface{}{"q": q, "limit": 5},
		},
	}, true)
	if err != nil {
		return "", fmt.Errorf("tool call failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tool call: expected status 200, got %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	if strings.Contains(string(data), "\"isError\":true") {
		return "", fmt.Errorf("tool returned an error: %s", truncate(string(data), 200))
	}
	return string(data), nil
}

// testPerformanceUnderLoad runs REST searches from several concurrent clients
func testPerformanceUnderLoad() error {
	queries := []string{"rice", "fish", "banana", "raw", "cooked", "leaves", "milk"}

	for _, concurrency := range []int{2, 5, 10} {
		results := runConcurrencyTest(queries, concurrency, 5)

		var durations []time.Duration
		failures := 0
		for _, r := range results {
			if !r.Success {
				failures++
				continue
			}
			durations = append(durations, r.Duration)
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d requests failed at %d clients", failures, len(results), concurrency)
		}

		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		p95 := durations[len(durations)*95/100]
		fmt.Printf("   %2d clients: %d requests, p95 %.3fs\n", concurrency, len(durations), p95.Seconds())
		if p95 > maxDuration {
			return fmt.Errorf("p95 %v exceeds %v at %d clients", p95, maxDuration, concurrency)
		}
	}
	return nil
}

func runConcurrencyTest(queries []string, concurrency, requestsPerClient int) []PerformanceResult {
	var wg sync.WaitGroup
	results := make(chan PerformanceResult, concurrency*requestsPerClient)

	for clientID := 0; clientID < concurrency; clientID++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			for i := 0; i < requestsPerClient; i++ {
				q := queries[(clientID+i)%len(queries)]
				start := time.Now()
				status, err := get("/v1/foods?q="+url.QueryEscape(q), true, &ListResponse{})
				r := PerformanceResult{Duration: time.Since(start), Success: err == nil && status == http.StatusOK}
				if err != nil {
					r.Error = err.Error()
				}
				results <- r
			}
		}(clientID)
	}

	wg.Wait()
	close(results)

	all := make([]PerformanceResult, 0, concurrency*requestsPerClient)
	for r := range results {
		all = append(all, r)
	}
	return all
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
