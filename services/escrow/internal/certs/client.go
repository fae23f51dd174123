package certs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client talks to the certificate registry. The registry owns certificate
// identifiers and artifact storage; issuance happens exactly once per
// submission, as the last step before the PUBLISHED commit.
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

func (c *Client) Issue(ctx context.Context, owner, reference string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"owner_id":  owner,
		"reference": reference,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/certificates:issue", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("certificate registry returned %d", resp.StatusCode)
	}
	var out struct {
		CertificateID string `json:"certificate_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.CertificateID == "" {
		return "", fmt.Errorf("certificate registry returned empty id")
	}
	return out.CertificateID, nil
}
