package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/marcrank/internal/marc"
)

func testRecord(id string) *marc.Record {
	rec := &marc.Record{Leader: "00000cam a22000004i 4500"}
	rec.AppendControlField("001", id)
	rec.AppendControlField("005", "20141219114925.0")
	rec.AppendField("245", "1", "0", "a", "Title of "+id)
	return rec
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("style") != "MARC" {
			http.Error(w, "unsupported style", http.StatusBadRequest)
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/Record/"), "/Export")
		switch id {
		case "missing":
			http.NotFound(w, r)
		case "garbage":
			_, _ = w.Write([]byte("not a marc record"))
		default:
			data, err := marc.EncodeISO2709(testRecord(id))
			if err != nil {
				t.Errorf("EncodeISO2709 failed: %v", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			_, _ = w.Write(data)
		}
	}))
}

func TestFetchRecord(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewClient(server.URL + "/")
	record, err := client.FetchRecord(context.Background(), "123")
	if err != nil {
		t.Fatalf("FetchRecord failed: %v", err)
	}

	f001, ok := record.FirstField("001")
	if !ok || f001.Value != "123" {
		t.Errorf("Expected 001 of 123, got %q", f001.Value)
	}
	f245, _ := record.FirstField("245")
	if v, _ := f245.FirstSubfield("a"); v != "Title of 123" {
		t.Errorf("Expected title 'Title of 123', got %q", v)
	}
}

func TestFetchRecords(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewClient(server.URL)
	records, err := client.FetchRecords(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("FetchRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if f, _ := records[1].FirstField("001"); f.Value != "b" {
		t.Errorf("Expected second record b, got %q", f.Value)
	}
}

func TestFetchRecordErrors(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewClient(server.URL)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "empty id", id: ""},
		{name: "not found", id: "missing"},
		{name: "undecodable body", id: "garbage", wantErr: marc.ErrInvalidISO2709},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.FetchRecord(context.Background(), tt.id)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := client.FetchRecords(context.Background(), "a", "missing"); err == nil {
		t.Error("Expected FetchRecords to fail on a missing record")
	}
}

func TestFetchRecordCanceled(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewClient(server.URL).FetchRecord(ctx, "123"); err == nil {
		t.Error("Expected error for canceled context, got nil")
	}
}

func TestWithRateLimit(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		data, _ := marc.EncodeISO2709(testRecord("123"))
		_, _ = w.Write(data)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRateLimit(1, 1), WithHTTPClient(server.Client()))
	if _, err := client.FetchRecord(context.Background(), "123"); err != nil {
		t.Fatalf("FetchRecord failed: %v", err)
	}

	// The burst is spent, so the next request cannot start before the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.FetchRecord(ctx, "123"); err == nil {
		t.Error("Expected rate limit error, got nil")
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("Expected 1 request to reach the server, got %d", got)
	}

	unlimited := NewClient(server.URL, WithRateLimit(0, 0))
	if unlimited.limiter != nil {
		t.Error("Expected no limiter for a zero rate")
	}
}
