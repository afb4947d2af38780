package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meltforce/ftracker/internal/ingest"
	"github.com/meltforce/ftracker/internal/models"
	"github.com/meltforce/ftracker/internal/training"
)

func fastClient(url string) *Client {
	c := NewClient(url, "key")
	c.backoff = time.Millisecond
	return c
}

// TestSendPackets verifies the request shape and the decoded result.
func TestSendPackets(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ingest/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "key" {
			t.Errorf("api key = %q", got)
		}
		var body struct {
			Packets []models.Packet `json:"packets"`
			Source  string          `json:"source"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if len(body.Packets) != 1 || body.Packets[0].Code != "RUN" || body.Source != "day1.txt" {
			t.Errorf("body = %+v", body)
		}
		json.NewEncoder(w).Encode(ingest.Result{PacketsReceived: 1, ReportsInserted: 1})
	}))
	defer ts.Close()

	res, err := fastClient(ts.URL+"/").SendPackets(context.Background(),
		[]models.Packet{{Code: "RUN", Data: []float64{15000, 1, 75}}}, "day1.txt")
	if err != nil {
		t.Fatal(err)
	}
	if res.ReportsInserted != 1 {
		t.Errorf("result = %+v", res)
	}
}

// TestSendPacketsRetriesServerErrors verifies that 5xx responses are retried.
func TestSendPacketsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(ingest.Result{ReportsInserted: 2})
	}))
	defer ts.Close()

	res, err := fastClient(ts.URL).SendPackets(context.Background(), nil, "x")
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 || res.ReportsInserted != 2 {
		t.Errorf("calls = %d, result = %+v", calls.Load(), res)
	}
}

// TestSendPacketsGivesUp verifies the error after three failed attempts.
func TestSendPacketsGivesUp(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()

	if _, err := fastClient(ts.URL).SendPackets(context.Background(), nil, "x"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

// TestSendPacketsNoRetryOnAuth verifies that an auth failure is not retried.
func TestSendPacketsNoRetryOnAuth(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
	}))
	defer ts.Close()

	if _, err := fastClient(ts.URL).SendPackets(context.Background(), nil, "x"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

// TestFetchCatalog verifies catalog decoding.
func TestFetchCatalog(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/activities" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(training.Catalog())
	}))
	defer ts.Close()

	specs, err := fastClient(ts.URL).FetchCatalog(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 3 || specs[1].Code != training.CodeRunning {
		t.Errorf("specs = %+v", specs)
	}
}
