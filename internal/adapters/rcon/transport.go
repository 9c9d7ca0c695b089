package rcon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   Cache
	ttl     time.Duration
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		ttl:     5 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// envelope es la respuesta estándar del API de CRCON.
type envelope struct {
	Result  json.RawMessage `json:"result"`
	Command string          `json:"command"`
	Failed  bool            `json:"failed"`
	Error   *string         `json:"error"`
}

// call hace POST /api/<endpoint> con body JSON (o GET si body es nil),
// maneja 429 con Retry-After y desarma el envelope.
func (c *Client) call(ctx context.Context, endpoint string, body any, out any) error {
	return c.do(ctx, endpoint, body, out, true)
}

func (c *Client) do(ctx context.Context, endpoint string, body any, out any, retry bool) error {
	method := http.MethodGet
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		method = http.MethodPost
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/"+endpoint, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rcon http %s: %w", endpoint, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests && retry {
		if ra := res.Header.Get("Retry-After"); ra != "" {
			if sec, _ := strconv.Atoi(ra); sec > 0 {
				select {
				case <-time.After(time.Duration(sec) * time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
				// un reintento
				return c.do(ctx, endpoint, body, out, false)
			}
		}
	}
	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{Endpoint: endpoint, Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("rcon decode %s: %w", endpoint, err)
	}
	if env.Failed {
		msg := ""
		if env.Error != nil {
			msg = *env.Error
		}
		return &CommandFailedError{Command: endpoint, Message: msg}
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	return json.Unmarshal(env.Result, out)
}
