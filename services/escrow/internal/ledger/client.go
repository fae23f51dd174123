package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client talks to the value-transfer rail. The rail owns all balance
// bookkeeping; this service only ever asks it to move funds into or out of
// the escrow account and checks the binary outcome.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Bearer  string
}

func New(baseURL, bearer string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Bearer:  bearer,
	}
}

type transferRequest struct {
	Party  string `json:"party_id"`
	Amount int64  `json:"amount"`
}

type transferResponse struct {
	RequestID string `json:"request_id"`
	Result    string `json:"result"`
}

// Pull moves amount from a party's balance into escrow custody.
func (c *Client) Pull(ctx context.Context, from string, amount int64) error {
	return c.post(ctx, "/ledger/transfers:pull", transferRequest{Party: from, Amount: amount})
}

// Push releases amount from escrow custody to a party.
func (c *Client) Push(ctx context.Context, to string, amount int64) error {
	return c.post(ctx, "/ledger/transfers:push", transferRequest{Party: to, Amount: amount})
}

func (c *Client) post(ctx context.Context, path string, in transferRequest) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("ledger returned %d", resp.StatusCode)
	}
	var out transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if out.Result != "OK" {
		return fmt.Errorf("ledger result %q", out.Result)
	}
	return nil
}
