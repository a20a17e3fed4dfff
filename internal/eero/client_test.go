package eero

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eero-drew/eero-business-dashboard/internal/config"
)

const networkPayload = `{
  "data": {
    "eeros": [
      {"serial": "A1", "status": "green", "signal_dbm": -60, "os_version": "v7.1"},
      {"serial": "B2", "status": "red", "signal_dbm": -90, "os_version": "v7.1"}
    ],
    "clients": {"total": 42, "wireless": 30, "wired": 12},
    "bandwidth": {"usage_mbps": 120.5, "capacity_mbps": 500},
    "timestamp": "2026-03-02T12:00:00Z"
  }
}`

func TestFetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2.2/networks/net-1" {
			t.Errorf("path=%s", r.URL.Path)
		}
		w.Write([]byte(networkPayload))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), config.EeroConfig{BaseURL: srv.URL})
	snap, err := client.FetchSnapshot(context.Background(), "net-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if snap.NetworkID != "net-1" {
		t.Fatalf("network id=%s", snap.NetworkID)
	}
	if len(snap.Nodes) != 2 {
		t.Fatalf("nodes=%d want=2", len(snap.Nodes))
	}
	if !snap.Nodes[0].Online || snap.Nodes[1].Online {
		t.Fatalf("online flags=%v/%v want true/false", snap.Nodes[0].Online, snap.Nodes[1].Online)
	}
	// -60 dBm maps to the midpoint of the 0-100 scale.
	if snap.Nodes[0].Signal != 50 {
		t.Fatalf("signal=%v want=50", snap.Nodes[0].Signal)
	}
	if snap.Nodes[1].Signal != 0 {
		t.Fatalf("signal=%v want=0 at -90 dBm", snap.Nodes[1].Signal)
	}
	if snap.TotalDevices != 42 || snap.WirelessDevices != 30 || snap.WiredDevices != 12 {
		t.Fatalf("devices=%d/%d/%d", snap.TotalDevices, snap.WirelessDevices, snap.WiredDevices)
	}
	if snap.BandwidthUsageMbps != 120.5 || snap.BandwidthCapacityMbps != 500 {
		t.Fatalf("bandwidth=%v/%v", snap.BandwidthUsageMbps, snap.BandwidthCapacityMbps)
	}
	want := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	if !snap.Timestamp.Equal(want) {
		t.Fatalf("timestamp=%s want=%s", snap.Timestamp, want)
	}
}

func TestFetchSnapshot_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), config.EeroConfig{BaseURL: srv.URL})
	if _, err := client.FetchSnapshot(context.Background(), "net-1"); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []string{
		"2026-03-02T12:00:00Z",
		"2026-03-02T12:00:00.123456Z",
		"2026-03-02T12:00:00",
	}
	want := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for _, raw := range cases {
		ts, err := parseTimestamp(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !ts.Truncate(time.Second).Equal(want) {
			t.Fatalf("parse %q = %s want %s", raw, ts, want)
		}
	}
	if _, err := parseTimestamp("last tuesday"); err == nil {
		t.Fatalf("expected error for junk timestamp")
	}
}
