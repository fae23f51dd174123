package scholarchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Scholar-Chain/smart-contract/pkg/domain"
)

// Error is the decoded wire error envelope.
type Error struct {
	StatusCode int
	ErrorCode  string
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("scholarchain sdk error: status=%d code=%s message=%s", e.StatusCode, e.ErrorCode, e.Message)
}

// Client is a typed client for the escrow service API. The bearer token
// identifies the calling party; role checks happen server side.
type Client struct {
	BaseURL string
	Bearer  string
	HTTP    *http.Client
}

func New(baseURL, bearer string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Bearer:  bearer,
		HTTP:    &http.Client{},
	}
}

type CreateSubmissionRequest struct {
	SubmissionID   string `json:"submission_id"`
	PublisherID    string `json:"publisher_id"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type submissionEnvelope struct {
	RequestID  string            `json:"request_id"`
	Submission domain.Submission `json:"submission"`
}

func (c *Client) CreateSubmission(ctx context.Context, in CreateSubmissionRequest) (domain.Submission, error) {
	var out submissionEnvelope
	if err := c.do(ctx, http.MethodPost, "/escrow/submissions", in, &out); err != nil {
		return domain.Submission{}, err
	}
	return out.Submission, nil
}

func (c *Client) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	var out submissionEnvelope
	if err := c.do(ctx, http.MethodGet, "/escrow/submissions/"+id, nil, &out); err != nil {
		return domain.Submission{}, err
	}
	return out.Submission, nil
}

func (c *Client) Decide(ctx context.Context, id string, decision domain.Decision) (domain.Submission, error) {
	var out submissionEnvelope
	body := map[string]string{"decision": string(decision)}
	if err := c.do(ctx, http.MethodPost, "/escrow/submissions/"+id+":decide", body, &out); err != nil {
		return domain.Submission{}, err
	}
	return out.Submission, nil
}

func (c *Client) Cancel(ctx context.Context, id string) (domain.Submission, error) {
	var out submissionEnvelope
	if err := c.do(ctx, http.MethodPost, "/escrow/submissions/"+id+":cancel", struct{}{}, &out); err != nil {
		return domain.Submission{}, err
	}
	return out.Submission, nil
}

func (c *Client) Timeout(ctx context.Context, id string) (domain.Submission, error) {
	var out submissionEnvelope
	if err := c.do(ctx, http.MethodPost, "/escrow/submissions/"+id+":timeout", struct{}{}, &out); err != nil {
		return domain.Submission{}, err
	}
	return out.Submission, nil
}

type PublishResult struct {
	Submission           domain.Submission `json:"submission"`
	CertificateID        string            `json:"certificate_id"`
	CertificateReference string            `json:"certificate_reference"`
}

func (c *Client) Publish(ctx context.Context, id, certificateReference, idempotencyKey string) (PublishResult, error) {
	body := map[string]string{"certificate_reference": certificateReference}
	if idempotencyKey != "" {
		body["idempotency_key"] = idempotencyKey
	}
	var out PublishResult
	if err := c.do(ctx, http.MethodPost, "/escrow/submissions/"+id+":publish", body, &out); err != nil {
		return PublishResult{}, err
	}
	return out, nil
}

func (c *Client) OverdueSubmissions(ctx context.Context) ([]domain.Submission, error) {
	var out struct {
		Submissions []domain.Submission `json:"submissions"`
	}
	if err := c.do(ctx, http.MethodGet, "/escrow/submissions/overdue", nil, &out); err != nil {
		return nil, err
	}
	return out.Submissions, nil
}

func (c *Client) ReviewerShare(ctx context.Context) (int64, error) {
	var out struct {
		Pct int64 `json:"reviewer_share_pct"`
	}
	if err := c.do(ctx, http.MethodGet, "/escrow/config/reviewer-share", nil, &out); err != nil {
		return 0, err
	}
	return out.Pct, nil
}

func (c *Client) SetReviewerShare(ctx context.Context, pct int64) error {
	return c.do(ctx, http.MethodPost, "/escrow/config/reviewer-share", map[string]int64{"pct": pct}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		sdkErr := &Error{StatusCode: resp.StatusCode}
		var envelope struct {
			RequestID string `json:"request_id"`
			Err       struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil {
			sdkErr.ErrorCode = envelope.Err.Code
			sdkErr.Message = envelope.Err.Message
			sdkErr.RequestID = envelope.RequestID
		}
		return sdkErr
	}
	if dst == nil {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
