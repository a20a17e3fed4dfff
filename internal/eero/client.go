// Package eero is the thin HTTP boundary to the eero cloud API. The engine
// only ever sees the Snapshot the client assembles; routing, sessions and
// everything else about the upstream stays in here.
package eero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/eero-drew/eero-business-dashboard/internal/config"
	"github.com/eero-drew/eero-business-dashboard/internal/health"
)

type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(httpClient *http.Client, cfg config.EeroConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		http:    httpClient,
		baseURL: cfg.BaseURL,
		token:   os.Getenv(cfg.TokenEnv),
	}
}

type networkResponse struct {
	Data struct {
		Eeros []struct {
			Serial   string  `json:"serial"`
			Status   string  `json:"status"`
			Signal   float64 `json:"signal_dbm"`
			Firmware string  `json:"os_version"`
		} `json:"eeros"`
		Clients struct {
			Total    int `json:"total"`
			Wireless int `json:"wireless"`
			Wired    int `json:"wired"`
		} `json:"clients"`
		Bandwidth struct {
			UsageMbps    float64 `json:"usage_mbps"`
			CapacityMbps float64 `json:"capacity_mbps"`
		} `json:"bandwidth"`
		Timestamp string `json:"timestamp"`
	} `json:"data"`
}

// FetchSnapshot pulls the current reading for one network. Any transport or
// decode failure surfaces as an error; the poller treats that as "skip this
// cycle", never as an offline signal.
func (c *Client) FetchSnapshot(ctx context.Context, networkID string) (health.Snapshot, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/2.2/networks/%s", networkID))
	if err != nil {
		return health.Snapshot{}, err
	}

	var resp networkResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return health.Snapshot{}, fmt.Errorf("decode network %s: %w", networkID, err)
	}

	snap := health.Snapshot{
		NetworkID:             networkID,
		TotalDevices:          resp.Data.Clients.Total,
		WirelessDevices:       resp.Data.Clients.Wireless,
		WiredDevices:          resp.Data.Clients.Wired,
		BandwidthUsageMbps:    resp.Data.Bandwidth.UsageMbps,
		BandwidthCapacityMbps: resp.Data.Bandwidth.CapacityMbps,
	}
	for _, node := range resp.Data.Eeros {
		snap.Nodes = append(snap.Nodes, health.NodeStatus{
			ID:       node.Serial,
			Online:   node.Status == "green",
			Signal:   health.SignalScoreFromDBm(node.Signal),
			Firmware: node.Firmware,
		})
	}
	if ts, err := parseTimestamp(resp.Data.Timestamp); err == nil {
		snap.Timestamp = ts
	}
	return snap, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Cookie", "s="+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eero api %s %s: %s", method, path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
