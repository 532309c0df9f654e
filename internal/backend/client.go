package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/notify"
	"github.com/pesansayur/storefront/pkg/circuitbreaker"
)

const DefaultTimeout = 10 * time.Second

const maxBody = 8 << 20

// Client talks to the remote order backend. Every action goes to the same URL,
// selected by the action field or query parameter.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Breaker
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration, breaker *circuitbreaker.Breaker) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if breaker == nil {
		breaker = circuitbreaker.New(5, 30*time.Second)
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		breaker: breaker,
		timeout: timeout,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

func (c *Client) SubmitOrder(ctx context.Context, o domain.Order) error {
	_, err := c.post(ctx, ToSubmission(o))
	return err
}

func (c *Client) TrackCouponUsage(ctx context.Context, code string, subtotal int64) error {
	_, err := c.post(ctx, CouponUsageRequest{Action: ActionValidateCoupon, Code: code, Subtotal: subtotal})
	return err
}

func (c *Client) GetOrder(ctx context.Context, id string) (*RemoteOrder, error) {
	resp, err := c.get(ctx, url.Values{"action": {ActionGetOrder}, "id": {id}})
	if err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, &RemoteError{Message: "order missing from response"}
	}
	return resp.Order, nil
}

// SearchOrders looks orders up by the digits of a phone number.
func (c *Client) SearchOrders(ctx context.Context, phoneDigits string) ([]RemoteOrder, error) {
	resp, err := c.get(ctx, url.Values{"action": {ActionSearchOrders}, "telepon": {phoneDigits}})
	if err != nil {
		return nil, err
	}
	if resp.Orders == nil {
		return []RemoteOrder{}, nil
	}
	return resp.Orders, nil
}

// FetchAll returns the whole catalog snapshot keyed by collection name.
func (c *Client) FetchAll(ctx context.Context) (map[string]json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, url.Values{"action": {ActionAll}}, nil)
	if err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return all, nil
}

// Deliver lets the client act as a notification sink.
func (c *Client) Deliver(ctx context.Context, ev notify.Event) error {
	switch ev.Type {
	case notify.EventOrderPlaced:
		o, ok := ev.Payload.(domain.Order)
		if !ok {
			return fmt.Errorf("backend: unexpected %s payload %T", ev.Type, ev.Payload)
		}
		return c.SubmitOrder(ctx, o)
	case notify.EventCouponApplied:
		u, ok := ev.Payload.(notify.CouponUsage)
		if !ok {
			return fmt.Errorf("backend: unexpected %s payload %T", ev.Type, ev.Payload)
		}
		return c.TrackCouponUsage(ctx, u.Code, u.Subtotal)
	default:
		return nil
	}
}

func (c *Client) post(ctx context.Context, payload any) (*Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, nil, data)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		// Some deployments answer writes with an HTML redirect page; the write
		// itself went through.
		return &Response{Success: true}, nil
	}
	if !resp.Success {
		return nil, &RemoteError{Message: resp.Error}
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, query url.Values) (*Response, error) {
	body, err := c.do(ctx, http.MethodGet, query, nil)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !resp.Success {
		return nil, &RemoteError{Message: resp.Error}
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method string, query url.Values, payload []byte) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	var body []byte
	err := c.breaker.Execute(func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "text/plain")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, actionOf(query, payload), err)
	}
	return body, nil
}

// actionOf names the action of a request for error messages.
func actionOf(query url.Values, payload []byte) string {
	if a := query.Get("action"); a != "" {
		return a
	}
	var probe struct {
		Action string `json:"action"`
	}
	_ = json.Unmarshal(payload, &probe)
	return probe.Action
}
