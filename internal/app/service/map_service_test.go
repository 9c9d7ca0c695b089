package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/hll-hooks/internal/app/settings"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

func matchEvent(h *harness, kind domain.EventKind, sub string, age time.Duration) domain.LogEvent {
	evt := h.event(kind, age)
	evt.SubContent = sub
	return evt
}

func TestOnMatchStart_BackfillsOpenEntryAndAppends(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.rcon.currentMap = "stmariedumont_warfare"
	_, _ = h.history.SaveNew(ctx, "foy_warfare", epoch.Add(-time.Hour).Unix(), false)

	evt := matchEvent(h, domain.EventMatchStart, "ST MARIE DU MONT WARFARE", 10*time.Second)
	require.NoError(t, h.hooks.Maps.OnMatchStart(ctx, evt))

	require.Len(t, h.history.entries, 2)
	head, prev := h.history.entries[0], h.history.entries[1]
	require.Equal(t, "stmariedumont_warfare", head.Name)
	require.False(t, head.Guessed)
	require.Nil(t, head.End)
	require.NotNil(t, prev.End)
	require.Equal(t, evt.UnixSeconds()-100, *prev.End)

	// stats del mapa anterior
	require.Len(t, h.stats.recorded, 1)
	require.Equal(t, "foy_warfare", h.stats.recorded[0].Name)
}

func TestOnMatchStart_GetMapFailureStillAppends(t *testing.T) {
	h := newHarness(t)
	h.rcon.mapErr = errors.New("server busy")

	evt := matchEvent(h, domain.EventMatchStart, "FOY WARFARE", 0)
	require.NoError(t, h.hooks.Maps.OnMatchStart(context.Background(), evt))

	require.Len(t, h.history.entries, 1)
	require.Equal(t, "foy_warfare", h.history.entries[0].Name, "se queda con el nombre del log")
	require.True(t, h.history.entries[0].Guessed)
}

func TestOnMatchStart_UnknownLogNameUsesLiveMap(t *testing.T) {
	h := newHarness(t)
	h.rcon.currentMap = "elsenbornridge_warfare_day_RESTART"

	evt := matchEvent(h, domain.EventMatchStart, "SOMETHING NEW", 0)
	require.NoError(t, h.hooks.Maps.OnMatchStart(context.Background(), evt))
	require.Equal(t, "elsenbornridge_warfare_day", h.history.entries[0].Name)
	require.True(t, h.history.entries[0].Guessed)
}

func TestOnMatchStart_StaleEventKeepsLogName(t *testing.T) {
	h := newHarness(t)
	h.rcon.currentMap = "foy_offensive_ger"

	evt := matchEvent(h, domain.EventMatchStart, "FOY WARFARE", 6*time.Minute)
	require.NoError(t, h.hooks.Maps.OnMatchStart(context.Background(), evt))
	require.Equal(t, "foy_warfare", h.history.entries[0].Name)
	require.True(t, h.history.entries[0].Guessed)
}

func TestOnMatchStart_MismatchKeepsLogName(t *testing.T) {
	h := newHarness(t)
	h.rcon.currentMap = "kursk_warfare"

	evt := matchEvent(h, domain.EventMatchStart, "FOY WARFARE", 0)
	require.NoError(t, h.hooks.Maps.OnMatchStart(context.Background(), evt))
	require.Equal(t, "foy_warfare", h.history.entries[0].Name)
}

// votemap con votos viejos, para ver que el cleanup del match start corre
func withPendingVotes(t *testing.T, h *harness, excludeLastN int) {
	t.Helper()
	h.setConfig(t, settings.KeyVoteMap, settings.VoteMap{
		Enabled:      true,
		Whitelist:    []string{"foy_warfare", "kursk_warfare", "utahbeach_warfare"},
		ExcludeLastN: excludeLastN,
	})
	h.votes.selection = []string{"omahabeach_warfare"}
	h.votes.votes["p9"] = "omahabeach_warfare"
}

func TestOnMatchStart_HistoryErrorStillSavesAndRunsCleanup(t *testing.T) {
	h := newHarness(t)
	withPendingVotes(t, h, 0)
	h.history.listErr = errors.New("db timeout")

	evt := matchEvent(h, domain.EventMatchStart, "FOY WARFARE", 0)
	err := h.hooks.Maps.OnMatchStart(context.Background(), evt)
	require.ErrorContains(t, err, "db timeout")
	require.Len(t, h.history.entries, 1)

	require.Empty(t, h.votes.votes)
	require.ElementsMatch(t, []string{"foy_warfare", "kursk_warfare", "utahbeach_warfare"}, h.votes.selection)
	require.Equal(t, epoch, h.votes.lastReminder)
}

func TestOnMatchStart_SaveErrorStillRunsCleanup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	withPendingVotes(t, h, 1)
	_, _ = h.history.SaveNew(ctx, "foy_warfare", epoch.Add(-time.Hour).Unix(), false)
	h.history.saveNewErr = errors.New("conn reset")

	evt := matchEvent(h, domain.EventMatchStart, "KURSK WARFARE", 0)
	err := h.hooks.Maps.OnMatchStart(ctx, evt)
	require.ErrorContains(t, err, "save new map")
	require.ErrorContains(t, err, "conn reset")

	// el backfill sí quedó
	require.Len(t, h.history.entries, 1)
	require.NotNil(t, h.history.entries[0].End)

	// la selección nueva excluye el último mapa del historial
	require.Empty(t, h.votes.votes)
	require.ElementsMatch(t, []string{"kursk_warfare", "utahbeach_warfare"}, h.votes.selection)
	require.Equal(t, epoch, h.votes.lastReminder)
}

func TestOnMatchEnd_Freshness(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		live    string
		sub     string
		age     time.Duration
		updated bool
	}{
		{"fresh and matching", "foy_warfare", "FOY WARFARE", 30 * time.Second, true},
		{"too old", "foy_warfare", "FOY WARFARE", 61 * time.Second, false},
		{"family mismatch", "kursk_warfare", "FOY WARFARE", 0, false},
		{"unknown log name", "foy_warfare", "???", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.rcon.currentMap = tc.live
			_, _ = h.history.SaveNew(ctx, tc.live, epoch.Add(-time.Hour).Unix(), false)

			evt := matchEvent(h, domain.EventMatchEnded, tc.sub, tc.age)
			require.NoError(t, h.hooks.Maps.OnMatchEnd(ctx, evt))
			if tc.updated {
				require.NotNil(t, h.history.entries[0].End)
				require.Equal(t, evt.UnixSeconds(), *h.history.entries[0].End)
			} else {
				require.Nil(t, h.history.entries[0].End)
			}
		})
	}
}
