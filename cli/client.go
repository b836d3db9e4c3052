package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles API requests to the brigade routing API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("BRIGADE_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		Token:   os.Getenv("BRIGADE_API_TOKEN"),
	}
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}
	return true, nil
}

// Station mirrors the API's station snapshot
type Station struct {
	ID             uint     `json:"id"`
	Name           string   `json:"name"`
	StationType    string   `json:"station_type"`
	Capacity       int      `json:"capacity"`
	CurrentLoad    int      `json:"current_load"`
	Efficiency     int      `json:"efficiency_score"`
	AvgPrepMinutes float64  `json:"avg_preparation_minutes"`
	Equipment      []string `json:"equipment"`
	LoadPercentage float64  `json:"load_percentage"`
	IsAvailable    bool     `json:"is_available"`
	IsActive       bool     `json:"is_active"`
}

// ListStations fetches all stations
func (c *ApiClient) ListStations() ([]Station, error) {
	var stations []Station
	if err := c.get("/api/v1/stations", &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// RouteOrder triggers routing for the given order
func (c *ApiClient) RouteOrder(orderID string) (map[string]interface{}, error) {
	return c.postMap(fmt.Sprintf("/api/v1/orders/%s/route", orderID), nil)
}

// Rebalance triggers a rebalancing pass
func (c *ApiClient) Rebalance() (map[string]interface{}, error) {
	return c.postMap("/api/v1/stations/rebalance", nil)
}

// Optimize triggers a performance tuning pass
func (c *ApiClient) Optimize() (map[string]interface{}, error) {
	return c.postMap("/api/v1/stations/optimize", nil)
}

// SetStatus transitions an assignment to a new status
func (c *ApiClient) SetStatus(assignmentID, status string) (map[string]interface{}, error) {
	body := map[string]string{"status": status}
	return c.postMap(fmt.Sprintf("/api/v1/routing/%s/status", assignmentID), body)
}

func (c *ApiClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *ApiClient) postMap(path string, body interface{}) (map[string]interface{}, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out map[string]interface{}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ApiClient) do(req *http.Request, out interface{}) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
