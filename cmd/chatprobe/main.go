// Command chatprobe fires a list of messages at a running server's /chat
// endpoint, checks each reply and writes the results as JSON and CSV.
//
//	PROBE_BASE_URL      server to probe (default http://127.0.0.1:8000)
//	PROBE_QUERIES       path to queries.json (default: search next to the binary)
//	PROBE_CONCURRENCY   simultaneous requests (default 1)
//	PROBE_TIMEOUT_SEC   per request timeout (default 120)
//	PROBE_INSERT        "1" to also call /insert_test once per query
//	PROBE_OUT_DIR       results directory (default cmd/chatprobe/results)
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"BlenderChat/models"
	utils "BlenderChat/pkg/utills"

	"github.com/google/uuid"
)

type ResultItem struct {
	Query      string `json:"query"`
	Reply      string `json:"reply"`
	Status     int    `json:"status"`
	EchoOK     bool   `json:"echo_ok"`
	ReplyWords int    `json:"reply_words"`
	InsertID   int64  `json:"insert_id,omitempty"`
	InsertTS   string `json:"insert_ts,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"`
}

type RunSummary struct {
	RunID        string       `json:"run_id"`
	BaseURL      string       `json:"base_url"`
	StartedAt    string       `json:"started_at"`
	EndedAt      string       `json:"ended_at"`
	Concurrency  int          `json:"concurrency"`
	TotalQueries int          `json:"total_queries"`
	Failures     int          `json:"failures"`
	Results      []ResultItem `json:"results"`
}

type prober struct {
	baseURL string
	client  *http.Client
	insert  bool
}

func parseQueries(data []byte) ([]string, error) {
	// queries.json can be either ["q1", "q2", ...] or [{"q": "..."}, ...]
	var arrAny []any
	if e := json.Unmarshal(data, &arrAny); e != nil {
		return nil, fmt.Errorf("invalid queries.json: %w", e)
	}
	out := make([]string, 0, len(arrAny))
	for _, v := range arrAny {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			if qv, ok := t["q"].(string); ok {
				out = append(out, qv)
			}
		}
	}
	if len(out) == 0 {
		return nil, errors.New("queries.json is empty or malformed")
	}
	return out, nil
}

func mustReadQueries() ([]string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("PROBE_QUERIES")),
		"cmd/chatprobe/queries.json",
		"queries.json",
		filepath.Join(filepath.Dir(os.Args[0]), "queries.json"),
	}

	var data []byte
	var err error
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if b, e := os.ReadFile(p); e == nil {
			data = b
			err = nil
			break
		} else {
			err = e
		}
	}
	if data == nil {
		return nil, fmt.Errorf("cannot read queries.json: %w", err)
	}
	return parseQueries(data)
}

func (p *prober) runOnce(ctx context.Context, q string) ResultItem {
	t0 := time.Now()
	r := ResultItem{Query: q, Timestamp: t0.Format(time.RFC3339)}

	body, _ := json.Marshal(map[string]string{"user_input": q})
	status, raw, err := p.post(ctx, "/chat", body)
	r.Status = status
	if err != nil {
		r.Error = err.Error()
		r.DurationMs = time.Since(t0).Milliseconds()
		return r
	}
	var resp models.ChatResponse
	if err := json.Unmarshal(raw, &resp); err != nil || status != http.StatusOK {
		r.Error = fmt.Sprintf("status %d: %s", status, strings.TrimSpace(string(raw)))
		r.DurationMs = time.Since(t0).Milliseconds()
		return r
	}
	r.Reply = resp.Bot
	r.EchoOK = resp.User == q
	r.ReplyWords = utils.CountWords(resp.Bot)
	if !r.EchoOK {
		r.Error = fmt.Sprintf("echo mismatch: got %q", resp.User)
	}

	if p.insert {
		_, raw, err := p.post(ctx, "/insert_test", nil)
		if err != nil {
			r.Error = strings.TrimSpace(r.Error + " insert: " + err.Error())
		} else {
			var ins struct {
				ID    int64  `json:"id"`
				TS    string `json:"ts"`
				Error string `json:"error"`
			}
			_ = json.Unmarshal(raw, &ins)
			r.InsertID, r.InsertTS = ins.ID, ins.TS
			if ins.Error != "" {
				r.Error = strings.TrimSpace(r.Error + " insert: " + ins.Error)
			}
		}
	}
	r.DurationMs = time.Since(t0).Milliseconds()
	return r
}

func (p *prober) post(ctx context.Context, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.baseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read error: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// runAll probes every query with at most concurrency requests in flight,
// keeping results in query order.
func (p *prober) runAll(ctx context.Context, queries []string, concurrency int) []ResultItem {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]ResultItem, len(queries))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, q string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.runOnce(ctx, q)
			fmt.Printf("[probe] %-40q -> %d %dms error=%v\n", utils.Truncate(q, 40), results[i].Status, results[i].DurationMs, results[i].Error != "")
		}(i, q)
	}
	wg.Wait()
	return results
}

func ensureDir(p string) error {
	return os.MkdirAll(p, 0o755)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSV(path string, items []ResultItem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	// header
	_ = w.Write([]string{"query", "status", "echo_ok", "reply_words", "duration_ms", "error", "reply"})
	for _, it := range items {
		_ = w.Write([]string{
			it.Query,
			strconv.Itoa(it.Status),
			strconv.FormatBool(it.EchoOK),
			strconv.Itoa(it.ReplyWords),
			fmt.Sprintf("%d", it.DurationMs),
			it.Error,
			it.Reply,
		})
	}
	return nil
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return def
}

func main() {
	baseURL := strings.TrimSpace(os.Getenv("PROBE_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000"
	}
	concurrency := envInt("PROBE_CONCURRENCY", 1)
	timeoutSec := envInt("PROBE_TIMEOUT_SEC", 120)

	queries, err := mustReadQueries()
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	p := &prober{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		insert:  os.Getenv("PROBE_INSERT") == "1",
	}

	started := time.Now()
	runID := fmt.Sprintf("probe-%s-%s", started.Format("20060102-150405"), uuid.NewString()[:8])
	results := p.runAll(context.Background(), queries, concurrency)

	failures := 0
	for _, r := range results {
		if r.Error != "" {
			failures++
		}
	}

	outDir := strings.TrimSpace(os.Getenv("PROBE_OUT_DIR"))
	if outDir == "" {
		outDir = filepath.Join("cmd", "chatprobe", "results")
	}
	if err := ensureDir(outDir); err != nil {
		fmt.Println("failed to create results dir:", err)
		os.Exit(1)
	}
	stamp := started.Format("20060102-150405")
	jsonPath := filepath.Join(outDir, fmt.Sprintf("chatprobe-%s.json", stamp))
	csvPath := filepath.Join(outDir, fmt.Sprintf("chatprobe-%s.csv", stamp))

	summary := RunSummary{
		RunID:        runID,
		BaseURL:      baseURL,
		StartedAt:    started.Format(time.RFC3339),
		EndedAt:      time.Now().Format(time.RFC3339),
		Concurrency:  concurrency,
		TotalQueries: len(queries),
		Failures:     failures,
		Results:      results,
	}
	if err := writeJSON(jsonPath, summary); err != nil {
		fmt.Println("failed to write JSON:", err)
		os.Exit(1)
	}
	if err := writeCSV(csvPath, results); err != nil {
		fmt.Println("failed to write CSV:", err)
		os.Exit(1)
	}

	fmt.Println("\nSaved:")
	fmt.Println(" -", jsonPath)
	fmt.Println(" -", csvPath)
	if failures > 0 {
		fmt.Printf("%d of %d queries failed\n", failures, len(queries))
		os.Exit(2)
	}
}
