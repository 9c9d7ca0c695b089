package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const sid = "76561198000000001"

func TestGetPlayerBans_TolerantFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ISteamUser/GetPlayerBans/v1/", r.URL.Path)
		require.Equal(t, "k", r.URL.Query().Get("key"))
		require.Equal(t, sid, r.URL.Query().Get("steamids"))
		_, _ = w.Write([]byte(`{"players":[{"SteamId":"` + sid + `","VACBanned":true,"NumberOfVACBans":1,"DaysSinceLastBan":null,"NumberOfGameBans":"2","EconomyBan":"none"}]}`))
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL))
	bans, err := c.GetPlayerBans(context.Background(), sid)
	require.NoError(t, err)
	require.True(t, bans.VACBanned)

	_, err = bans.DaysSinceLastBan.Int()
	require.Error(t, err, "null no es un entero")

	n, err := bans.NumberOfGameBans.Int()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestGetPlayerBans_EmptyIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"players":[]}`))
	}))
	defer srv.Close()

	_, err := New("k", WithBaseURL(srv.URL)).GetPlayerBans(context.Background(), sid)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetPlayerSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"players":[{"steamid":"` + sid + `","personaname":"Bob","profileurl":"https://steamcommunity.com/id/bob","loccountrycode":"AR"}]}}`))
	}))
	defer srv.Close()

	p, err := New("k", WithBaseURL(srv.URL)).GetPlayerSummary(context.Background(), sid)
	require.NoError(t, err)
	require.Equal(t, "Bob", p.PersonaName)
	require.Equal(t, "AR", p.Country)
}

func TestGuards(t *testing.T) {
	_, err := New("").GetPlayerBans(context.Background(), sid)
	require.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New("k").GetPlayerBans(context.Background(), "a1b2c3d4e5f6")
	require.ErrorIs(t, err, ErrNotSteamID)

	require.True(t, IsSteamID64(sid))
	require.False(t, IsSteamID64("1234"))
}
