package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// Base URL normalization
// ============================================================================

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.openai.com", "https://api.openai.com/v1"},
		{"https://api.openai.com/", "https://api.openai.com/v1"},
		{"https://api.openai.com/v1", "https://api.openai.com/v1"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1"},
		{"https://proxy.example.com/v1/openai", "https://proxy.example.com/v1/openai"},
		{"https://api.example.com/V1", "https://api.example.com/V1"},
		{"  https://api.example.com  ", "https://api.example.com/v1"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ============================================================================
// Response extraction and normalization
// ============================================================================

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain object", `{"advice":{}}`, `{"advice":{}}`},
		{"fenced", "```json\n{\"advice\":{}}\n```", `{"advice":{}}`},
		{"fenced no language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", `Here you go: {"a":1} hope it helps`, `{"a":1}`},
		{"no json at all", "sorry, cannot do that", "sorry, cannot do that"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.content); got != tt.want {
				t.Errorf("ExtractJSON = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseResultNormalizesLevels(t *testing.T) {
	raw := `{
		"advice": {
			"diagnosis": {"summary": "概览", "risks": ["风险"]},
			"items": [
				{"item_id": 0, "target": "C:\\a", "level": "l2"},
				{"item_id": 1, "target": "C:\\b", "level": "L7"},
				{"item_id": 2, "target": "C:\\c", "level": "L5", "requires_confirmation": false}
			]
		}
	}`

	result, err := ParseResult([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}

	items := result.Advice.Items
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	if items[0].Level != "L2" {
		t.Errorf("lowercase level not folded: %s", items[0].Level)
	}
	if items[1].Level != "L3" {
		t.Errorf("invalid level not defaulted to L3: %s", items[1].Level)
	}
	if items[0].RequiresConfirmation == nil || *items[0].RequiresConfirmation {
		t.Error("L2 item should default requires_confirmation to false")
	}
	if items[1].RequiresConfirmation == nil || *items[1].RequiresConfirmation {
		t.Error("defaulted L3 item should not require confirmation")
	}
	if items[2].RequiresConfirmation == nil || *items[2].RequiresConfirmation {
		t.Error("explicit requires_confirmation=false must survive an L5 level")
	}
	if result.Advice.Diagnosis.Summary != "概览" {
		t.Errorf("diagnosis summary = %q", result.Advice.Diagnosis.Summary)
	}
}

func TestParseResultLegacySummary(t *testing.T) {
	raw := `{
		"advice": {
			"summary": {"text": "旧版摘要", "highlights": ["要点"], "key_risks": ["注意"]},
			"items": []
		}
	}`

	result, err := ParseResult([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}

	d := result.Advice.Diagnosis
	if d.Summary != "旧版摘要" {
		t.Errorf("summary = %q, want legacy text", d.Summary)
	}
	if diff := cmp.Diff([]string{"要点"}, d.Highlights); diff != "" {
		t.Errorf("highlights mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"注意"}, d.Risks); diff != "" {
		t.Errorf("risks mismatch:\n%s", diff)
	}
}

func TestParseResultStringReport(t *testing.T) {
	result, err := ParseResult([]byte(`{"report": "一切正常"}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Report.Overview != "一切正常" {
		t.Errorf("overview = %q", result.Report.Overview)
	}
}

func TestParseResultOptionalFieldsStayAbsent(t *testing.T) {
	raw := `{"advice": {"items": [{"item_id": 3, "target": "C:\\x", "level": "L1"}]}}`

	result, err := ParseResult([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	item := result.Advice.Items[0]
	if item.Confidence != nil {
		t.Error("absent confidence decoded as present")
	}
	if item.EstimatedSavingsBytes != nil {
		t.Error("absent savings decoded as present")
	}
	if item.ItemID == nil || *item.ItemID != 3 {
		t.Errorf("item_id = %v, want 3", item.ItemID)
	}
}

func TestParseResultRejectsGarbage(t *testing.T) {
	if _, err := ParseResult([]byte("not json")); err == nil {
		t.Error("garbage input parsed without error")
	}
}

// ============================================================================
// Request flow
// ============================================================================

func chatReply(t *testing.T, content string) string {
	t.Helper()
	reply := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	data, err := json.Marshal(reply)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func newTestClient(t *testing.T, serverURL string, cacheEnabled bool) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:      serverURL,
		APIKey:       "test-key",
		Model:        "gpt-4o-mini",
		CacheEnabled: cacheEnabled,
		CachePath:    filepath.Join(t.TempDir(), "ai_cache.json"),
	}, nil, nil)
}

func TestRequestParsesFencedReply(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		fmt.Fprint(w, chatReply(t, "```json\n{\"advice\":{\"diagnosis\":{\"summary\":\"摘要\"},\"items\":[{\"item_id\":0,\"target\":\"C:\\\\a\",\"level\":\"L1\"}]}}\n```"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	result, err := client.Request(context.Background(), map[string]string{"probe": "x"})
	if err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if result.Advice.Diagnosis.Summary != "摘要" {
		t.Errorf("summary = %q", result.Advice.Diagnosis.Summary)
	}
	if len(result.Advice.Items) != 1 || result.Advice.Items[0].Level != "L1" {
		t.Errorf("items = %+v", result.Advice.Items)
	}
}

func TestRequestRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, chatReply(t, `{"advice":{"diagnosis":{"summary":"好"},"items":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	result, err := client.Request(context.Background(), map[string]string{"probe": "retry"})
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if result.Advice.Diagnosis.Summary != "好" {
		t.Errorf("summary = %q", result.Advice.Diagnosis.Summary)
	}
}

func TestRequestAggregatesAllAttemptErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	_, err := client.Request(context.Background(), map[string]string{"probe": "fail"})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if !strings.Contains(err.Error(), fmt.Sprintf("attempt %d", attempt)) {
			t.Errorf("error %q missing attempt %d", err, attempt)
		}
	}
}

func TestRequestServesSecondCallFromCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, chatReply(t, `{"advice":{"diagnosis":{"summary":"缓存测试"},"items":[]}}`))
	}))
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "ai_cache.json")
	cfg := Config{
		BaseURL:      server.URL,
		APIKey:       "k",
		Model:        "m",
		CacheEnabled: true,
		CachePath:    cachePath,
	}

	first := NewClient(cfg, nil, nil)
	payload := map[string]string{"probe": "cache"}
	if _, err := first.Request(context.Background(), payload); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls after first request = %d", calls.Load())
	}

	// A fresh client reloads the cache file from disk.
	second := NewClient(cfg, nil, nil)
	result, err := second.Request(context.Background(), payload)
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("second request hit the network: %d calls", calls.Load())
	}
	if result.Advice.Diagnosis.Summary != "缓存测试" {
		t.Errorf("cached summary = %q", result.Advice.Diagnosis.Summary)
	}
}

func TestRequestDifferentPayloadMissesCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, chatReply(t, `{"advice":{"items":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, true)
	if _, err := client.Request(context.Background(), map[string]string{"p": "one"}); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Request(context.Background(), map[string]string{"p": "two"}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 for distinct payloads", calls.Load())
	}
}

// ============================================================================
// Model listing and connection test
// ============================================================================

func TestListModelsDeduplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"gpt-4o-mini"},{"id":"gpt-4o"},{"id":"gpt-4o-mini"},{"id":"  "},{"id":"o3"}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"gpt-4o-mini", "gpt-4o", "o3"}
	if diff := cmp.Diff(want, models); diff != "" {
		t.Errorf("models mismatch:\n%s", diff)
	}
}

func TestTestConnectionValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty base url", Config{APIKey: "k", Model: "m"}},
		{"empty api key", Config{BaseURL: "https://x", Model: "m"}},
		{"empty model", Config{BaseURL: "https://x", APIKey: "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.CachePath = filepath.Join(t.TempDir(), "c.json")
			client := NewClient(tt.cfg, nil, nil)
			if _, err := client.TestConnection(context.Background()); err == nil {
				t.Error("expected validation error before any network call")
			}
		})
	}
}

func TestTestConnectionReturnsReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply(t, "连接测试成功"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	reply, err := client.TestConnection(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if reply != "连接测试成功" {
		t.Errorf("reply = %q", reply)
	}
}
