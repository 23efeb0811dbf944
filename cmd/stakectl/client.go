package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a node's HTTP API
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(path string, out any) error {
	resp, err := c.HTTP.Get(c.BaseURL + path)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (c *Client) post(path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Post(c.BaseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("node returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("node returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) Chain() (map[string]any, error) {
	var out map[string]any
	err := c.get("/chain", &out)
	return out, err
}

func (c *Client) Accounts() ([]map[string]any, error) {
	var out []map[string]any
	err := c.get("/accounts", &out)
	return out, err
}

func (c *Client) Account(id string) (map[string]any, error) {
	var out map[string]any
	err := c.get("/accounts/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) NextForger() (map[string]any, error) {
	var out map[string]any
	err := c.get("/forger/next", &out)
	return out, err
}

func (c *Client) Mempool() (map[string]any, error) {
	var out map[string]any
	err := c.get("/mempool", &out)
	return out, err
}

func (c *Client) SubmitTransaction(tx map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.post("/transactions", tx, &out)
	return out, err
}
