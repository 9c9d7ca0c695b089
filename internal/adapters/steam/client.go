package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jose-valero/hll-hooks/internal/domain"
)

const defaultBase = "https://api.steampowered.com"

var (
	ErrNotFound   = errors.New("steam: player not found")
	ErrNoAPIKey   = errors.New("steam: no api key configured")
	ErrNotSteamID = errors.New("steam: not a steam id")
)

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("steam api status %d: %s", e.Status, e.Body)
}

type Client struct {
	apiKey  string
	http    *http.Client
	baseURL string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithBaseURL(u string) Option         { return func(c *Client) { c.baseURL = u } }

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBase,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsSteamID64: 17 dígitos que empiezan con 7656. Los ids de Windows Store
// / Epic no pasan por Steam.
func IsSteamID64(id string) bool {
	if len(id) != 17 || !strings.HasPrefix(id, "7656") {
		return false
	}
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}

type bansDTO struct {
	Players []domain.BanInfo `json:"players"`
}

type summariesDTO struct {
	Response struct {
		Players []domain.SteamProfile `json:"players"`
	} `json:"response"`
}

// GetPlayerBans devuelve el historial de bans del jugador.
func (c *Client) GetPlayerBans(ctx context.Context, steamID string) (*domain.BanInfo, error) {
	if err := c.check(steamID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("steamids", steamID)
	var dto bansDTO
	if err := c.doJSON(ctx, "/ISteamUser/GetPlayerBans/v1/", q, &dto); err != nil {
		return nil, err
	}
	for i := range dto.Players {
		if dto.Players[i].SteamID == steamID || len(dto.Players) == 1 {
			return &dto.Players[i], nil
		}
	}
	return nil, ErrNotFound
}

func (c *Client) GetPlayerSummary(ctx context.Context, steamID string) (*domain.SteamProfile, error) {
	if err := c.check(steamID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("steamids", steamID)
	var dto summariesDTO
	if err := c.doJSON(ctx, "/ISteamUser/GetPlayerSummaries/v2/", q, &dto); err != nil {
		return nil, err
	}
	if len(dto.Response.Players) == 0 {
		return nil, ErrNotFound
	}
	return &dto.Response.Players[0], nil
}

func (c *Client) check(steamID string) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}
	if !IsSteamID64(steamID) {
		return ErrNotSteamID
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("steam http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return json.NewDecoder(res.Body).Decode(out)
}
