package rcon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/hll-hooks/internal/infra/cache"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "secret")
}

func writeResult(w http.ResponseWriter, result any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "failed": false, "error": nil})
}

func TestGetMap_StringAndLayerObject(t *testing.T) {
	calls := 0
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/get_map", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		calls++
		if calls == 1 {
			writeResult(w, "foy_warfare")
			return
		}
		writeResult(w, map[string]any{"id": "kursk_offensive_ger", "pretty_name": "Kursk"})
	})

	m, err := c.GetMap(context.Background())
	require.NoError(t, err)
	require.Equal(t, "foy_warfare", m)

	m, err = c.GetMap(context.Background())
	require.NoError(t, err)
	require.Equal(t, "kursk_offensive_ger", m)
}

func TestCall_FailedEnvelopeIsCommandError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": nil, "failed": true, "error": "server busy"})
	})

	_, err := c.GetVIPsCount(context.Background())
	var cf *CommandFailedError
	require.True(t, errors.As(err, &cf))
	require.Equal(t, "get_vips_count", cf.Command)
	require.True(t, IsServerError(err))
}

func TestCall_HTTPErrors(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/get_gamestate" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, "nope", http.StatusBadGateway)
	})

	_, err := c.GetGamestate(context.Background())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetBroadcast(context.Background())
	var ae *APIError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, http.StatusBadGateway, ae.Status)
	require.True(t, IsServerError(err))
}

func TestMessagePlayer_PostsBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/message_player", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		var got messagePlayerRequest
		require.NoError(t, json.Unmarshal(b, &got))
		require.Equal(t, messagePlayerRequest{PlayerID: "76561198000000001", Message: "hola", By: "CRcon"}, got)
		writeResult(w, true)
	})

	require.NoError(t, c.MessagePlayer(context.Background(), "76561198000000001", "hola", "CRcon", false))
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) GetJSON(ctx context.Context, key string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, out)
}

func (m *memCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memCache) Invalidate(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestGetPlayers_CachedUntilInvalidated(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		writeResult(w, []PlayerInfo{{Name: "Bob", PlayerID: "1"}})
	}))
	defer srv.Close()

	c := New(srv.URL, "t", WithCache(&memCache{data: map[string][]byte{}}, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ps, err := c.GetPlayers(ctx)
		require.NoError(t, err)
		require.Len(t, ps, 1)
	}
	require.Equal(t, 1, hits)

	require.NoError(t, c.InvalidatePlayers(ctx))
	_, err := c.GetPlayers(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, hits)
}

func TestGetPlayerInfo_CachedPerNameUntilInvalidated(t *testing.T) {
	var asked []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PlayerName string `json:"player_name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		asked = append(asked, body.PlayerName)
		writeResult(w, PlayerInfo{Name: body.PlayerName, PlayerID: "1", Team: "axis"})
	}))
	defer srv.Close()

	mc := &memCache{data: map[string][]byte{}}
	c := New(srv.URL, "t", WithCache(mc, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		p, err := c.GetPlayerInfo(ctx, "Bob")
		require.NoError(t, err)
		require.Equal(t, "axis", p.Team)
	}
	_, err := c.GetPlayerInfo(ctx, "Ann")
	require.NoError(t, err)
	require.Equal(t, []string{"Bob", "Ann"}, asked)

	require.NoError(t, c.InvalidatePlayerInfo(ctx, "Bob"))
	_, err = c.GetPlayerInfo(ctx, "Bob")
	require.NoError(t, err)
	_, err = c.GetPlayerInfo(ctx, "Ann")
	require.NoError(t, err)
	require.Equal(t, []string{"Bob", "Ann", "Bob"}, asked)
}
