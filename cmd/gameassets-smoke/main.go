package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"gameassets/pkg/models"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultServerURL   = "http://127.0.0.1:8080"
	defaultFileSize    = 1024
	defaultParallel    = 10
	defaultRetryMax    = 2
	defaultHTTPTimeout = 2 * time.Minute

	separatorLineLength = 80
)

type config struct {
	serverURL   string
	fileSize    int
	parallel    int
	retryMax    int
	httpTimeout time.Duration
	showSummary bool
}

type tester struct {
	cfg     config
	client  *assetClient
	metrics *metricsCollector
}

// operationMetrics records one request.
type operationMetrics struct {
	Name     string
	Duration time.Duration
	Size     int64
	Error    error
}

// stepMetrics records a complete smoke step.
type stepMetrics struct {
	Name       string
	Duration   time.Duration
	Operations []operationMetrics
	Success    bool
	Error      error
}

type metricsCollector struct {
	mu          sync.Mutex
	steps       []stepMetrics
	showSummary bool
	totalBytes  int64
	counts      map[string]int
}

// assetClient talks to a gameassetsd server.
type assetClient struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

func newAssetClient(baseURL string, timeout time.Duration, retryMax int) *assetClient {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return &assetClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// doRequest performs a request and returns the body of a 2xx response.
func (c *assetClient) doRequest(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	var reqBody any
	if body != nil {
		reqBody = body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return respBody, fmt.Errorf("%s %s returned %s: %s", method, path, resp.Status, string(respBody))
	}
	return respBody, nil
}

func (c *assetClient) doJSON(ctx context.Context, path string, result any) error {
	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// upload posts content as the "file" part and returns the confirmation text.
func (c *assetClient) upload(ctx context.Context, kind models.AssetKind, filename, contentType string, content []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/upload_"+string(kind), body.Bytes(), writer.FormDataContentType())
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

func (c *assetClient) getAsset(ctx context.Context, kind models.AssetKind, filename string) (*models.Asset, error) {
	var asset models.Asset
	if err := c.doJSON(ctx, "/"+string(kind)+"/"+filename, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (c *assetClient) submitScore(ctx context.Context, score models.PlayerScore) (string, error) {
	body, err := json.Marshal(score)
	if err != nil {
		return "", err
	}
	resp, err := c.doRequest(ctx, http.MethodPost, "/player_score", body, "application/json")
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

func main() {
	cfg := parseFlags()
	t := newTester(cfg)

	if err := t.run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "gameassets-smoke failed: %v\n", err)
		t.metrics.printSummary()
		os.Exit(1)
	}

	fmt.Println("\n✅ All smoke steps completed successfully")
	t.metrics.printSummary()
}

func parseFlags() config {
	server := flag.String("server", defaultServerURL, "gameassetsd base URL")
	size := flag.Int("size", defaultFileSize, "Size of generated assets in bytes")
	parallel := flag.Int("parallel", defaultParallel, "Number of concurrent upload passes")
	retryMax := flag.Int("retries", defaultRetryMax, "Retries per request on connection errors and 5xx")
	timeout := flag.Duration("http-timeout", defaultHTTPTimeout, "HTTP client timeout")
	noSummary := flag.Bool("no-summary", false, "Disable metrics summary")
	flag.Parse()

	cfg := config{
		serverURL:   strings.TrimRight(*server, "/"),
		fileSize:    *size,
		parallel:    *parallel,
		retryMax:    *retryMax,
		httpTimeout: *timeout,
		showSummary: !*noSummary,
	}

	if cfg.serverURL == "" {
		cfg.serverURL = defaultServerURL
	}
	if cfg.fileSize <= 0 {
		fmt.Fprintf(os.Stderr, "invalid file size: %d\n", cfg.fileSize)
		os.Exit(1)
	}
	if cfg.parallel <= 0 {
		cfg.parallel = defaultParallel
	}
	return cfg
}

func newTester(cfg config) *tester {
	return &tester{
		cfg:     cfg,
		client:  newAssetClient(cfg.serverURL, cfg.httpTimeout, cfg.retryMax),
		metrics: &metricsCollector{showSummary: cfg.showSummary, counts: map[string]int{}},
	}
}

func (t *tester) run(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"Step 1: Liveness", t.checkLiveness},
		{"Step 2: Sprite round trip", func(ctx context.Context) error { return t.assetPass(ctx, models.KindSprite, "image/png") }},
		{"Step 3: Audio round trip", func(ctx context.Context) error { return t.assetPass(ctx, models.KindAudio, "audio/wav") }},
		{"Step 4: Score round trip", t.scorePass},
		{fmt.Sprintf("Step 5: %d parallel sprite passes", t.cfg.parallel), t.parallelPasses},
	}

	for _, step := range steps {
		fmt.Println(step.name)
		err := t.metrics.step(step.name, func() error { return step.run(ctx) })
		if err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		fmt.Printf("✓ %s completed\n", step.name)
	}
	return nil
}

func (t *tester) checkLiveness(ctx context.Context) error {
	start := time.Now()
	body, err := t.client.doRequest(ctx, http.MethodGet, "/test_connection", nil, "")
	t.metrics.record("liveness", time.Since(start), 0, err)
	if err != nil {
		return err
	}
	if string(body) != "Server is up!" {
		return fmt.Errorf("unexpected liveness response %q", body)
	}
	return nil
}

// assetPass uploads random bytes, fetches them back by filename and compares.
func (t *tester) assetPass(ctx context.Context, kind models.AssetKind, contentType string) error {
	content, filename, err := randomAsset(t.cfg.fileSize, kind)
	if err != nil {
		return err
	}

	start := time.Now()
	confirmation, err := t.client.upload(ctx, kind, filename, contentType, content)
	t.metrics.record("upload", time.Since(start), int64(len(content)), err)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(confirmation, kind.Label()+" metadata saved, ID: ") {
		return fmt.Errorf("unexpected upload response %q", confirmation)
	}

	start = time.Now()
	asset, err := t.client.getAsset(ctx, kind, filename)
	t.metrics.record("download", time.Since(start), int64(len(content)), err)
	if err != nil {
		return err
	}

	data, err := asset.Decode()
	if err != nil {
		return err
	}
	if !bytes.Equal(data, content) {
		return fmt.Errorf("%s content mismatch: sent %d bytes, got %d", filename, len(content), len(data))
	}
	if asset.Size != int64(len(content)) || asset.ContentType != contentType {
		return fmt.Errorf("%s metadata mismatch: %+v", filename, asset)
	}
	return nil
}

func (t *tester) scorePass(ctx context.Context) error {
	suffix, err := randomHex(4)
	if err != nil {
		return err
	}
	want := models.PlayerScore{PlayerName: "smoke-" + suffix, Score: 4242}

	start := time.Now()
	confirmation, err := t.client.submitScore(ctx, want)
	t.metrics.record("score", time.Since(start), 0, err)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(confirmation, "Score recorded, ID: ") {
		return fmt.Errorf("unexpected score response %q", confirmation)
	}

	var listed []models.PlayerScore
	start = time.Now()
	err = t.client.doJSON(ctx, "/player_scores", &listed)
	t.metrics.record("list", time.Since(start), 0, err)
	if err != nil {
		return err
	}
	for _, score := range listed {
		if score == want {
			return nil
		}
	}
	return fmt.Errorf("score %+v missing from listing of %d", want, len(listed))
}

func (t *tester) parallelPasses(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, t.cfg.parallel)

	for i := range t.cfg.parallel {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = t.assetPass(ctx, models.KindSprite, "image/png")
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func randomAsset(size int, kind models.AssetKind) ([]byte, string, error) {
	content := make([]byte, size)
	if _, err := rand.Read(content); err != nil {
		return nil, "", fmt.Errorf("generate content: %w", err)
	}
	suffix, err := randomHex(8)
	if err != nil {
		return nil, "", err
	}
	return content, fmt.Sprintf("smoke-%s-%s.bin", kind, suffix), nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate name: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (m *metricsCollector) step(name string, fn func() error) error {
	m.mu.Lock()
	m.steps = append(m.steps, stepMetrics{Name: name})
	idx := len(m.steps) - 1
	m.mu.Unlock()

	start := time.Now()
	err := fn()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[idx].Duration = time.Since(start)
	m.steps[idx].Success = err == nil
	m.steps[idx].Error = err
	return err
}

func (m *metricsCollector) record(name string, duration time.Duration, size int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.steps) > 0 {
		current := &m.steps[len(m.steps)-1]
		current.Operations = append(current.Operations, operationMetrics{Name: name, Duration: duration, Size: size, Error: err})
	}
	m.counts[name]++
	if err == nil && size > 0 {
		m.totalBytes += size
	}
}

func (m *metricsCollector) printSummary() {
	if !m.showSummary {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Println("\n" + strings.Repeat("=", separatorLineLength))
	fmt.Println("METRICS SUMMARY")
	fmt.Println(strings.Repeat("=", separatorLineLength))

	fmt.Printf("\nOverall Statistics:\n")
	for _, name := range []string{"liveness", "upload", "download", "score", "list"} {
		fmt.Printf("  %-9s %d\n", name+":", m.counts[name])
	}
	fmt.Printf("  Total bytes: %s\n", humanize.Bytes(uint64(m.totalBytes)))

	var total time.Duration
	fmt.Printf("\nStep-by-Step Breakdown:\n")
	for _, step := range m.steps {
		status := "✓"
		if !step.Success {
			status = "✗"
		}
		fmt.Printf("  %s %s (%.2fs, %d operations)\n", status, step.Name, step.Duration.Seconds(), len(step.Operations))
		if step.Error != nil {
			fmt.Printf("    Error: %v\n", step.Error)
		}
		total += step.Duration
	}

	fmt.Printf("\nTotal execution time: %.2fs\n", total.Seconds())
	if total > 0 && m.totalBytes > 0 {
		fmt.Printf("Average throughput:   %s/s\n", humanize.Bytes(uint64(float64(m.totalBytes)/total.Seconds())))
	}
	fmt.Println(strings.Repeat("=", separatorLineLength))
}
