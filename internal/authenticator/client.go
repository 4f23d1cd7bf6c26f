package authenticator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls a local authenticator agent running next to the sensor.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// NewClient creates an agent client. With skip set every call succeeds
// without touching the network.
func NewClient(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 60 * time.Second, // the agent waits for the student's finger
		},
	}
}

type capability struct {
	HasHardware bool `json:"has_hardware"`
	Enrolled    bool `json:"enrolled"`
}

func (c *Client) capability(ctx context.Context) (capability, error) {
	if c.Skip {
		return capability{HasHardware: true, Enrolled: true}, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/capability", nil)
	if err != nil {
		return capability{}, err
	}
	var out capability
	if err := c.do(req, &out); err != nil {
		return capability{}, err
	}
	return out, nil
}

// HasCapability reports whether biometric hardware is present.
func (c *Client) HasCapability(ctx context.Context) (bool, error) {
	cp, err := c.capability(ctx)
	return cp.HasHardware, err
}

// IsEnrolled reports whether at least one biometric is enrolled on the device.
func (c *Client) IsEnrolled(ctx context.Context) (bool, error) {
	cp, err := c.capability(ctx)
	return cp.Enrolled, err
}

// Authenticate shows prompt on the device and waits for the outcome.
func (c *Client) Authenticate(ctx context.Context, prompt string) (Result, error) {
	if c.Skip {
		return Result{Success: true}, nil
	}
	body, _ := json.Marshal(map[string]string{"prompt": prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/authenticate", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out Result
	if err := c.do(req, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

// Health checks if the agent is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("authenticator unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("authenticator unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("authenticator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("authenticator error %s: %s", resp.Status, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
