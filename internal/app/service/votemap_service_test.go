package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/hll-hooks/internal/adapters/rcon"
	"github.com/jose-valero/hll-hooks/internal/app/settings"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

func enableVoteMap(t *testing.T, h *harness, whitelist ...string) {
	t.Helper()
	h.setConfig(t, settings.KeyVoteMap, settings.VoteMap{
		Enabled:              true,
		NumOptions:           3,
		Whitelist:            whitelist,
		ExcludeLastN:         1,
		ReminderIntervalSecs: 600,
		ReminderText:         "Vote:",
	})
	h.hooks.VoteMaps.shuffle = func([]string) {}
}

func chat(h *harness, text string) domain.LogEvent {
	evt := h.event(domain.EventChat, 0)
	evt.Player, evt.PlayerID, evt.SubContent = "Bob", pid, text
	return evt
}

func TestCountVote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	enableVoteMap(t, h)
	h.votes.selection = []string{"foy_warfare", "kursk_warfare"}

	require.NoError(t, h.hooks.VoteMaps.CountVote(ctx, chat(h, "!votemap 1")))
	require.Equal(t, map[string]string{pid: "kursk_warfare"}, h.votes.votes)

	require.NoError(t, h.hooks.VoteMaps.CountVote(ctx, chat(h, "!VoteMap 7")))
	require.Equal(t, map[string]string{pid: "kursk_warfare"}, h.votes.votes)

	require.NoError(t, h.hooks.VoteMaps.CountVote(ctx, chat(h, " 2 ")))
	msgs := h.rcon.sent()
	require.Equal(t, "Vote registered for kursk_warfare", msgs[0].Message)
	require.Contains(t, msgs[1].Message, "between 0 and 1")
	require.Equal(t, "INVALID VOTE\n\nUse: !votemap 2", msgs[2].Message)

	require.NoError(t, h.hooks.VoteMaps.CountVote(ctx, chat(h, "gg 2")))
	require.Len(t, h.rcon.sent(), 3)
}

func TestCountVote_DisabledIgnoresEverything(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.hooks.VoteMaps.CountVote(context.Background(), chat(h, "2")))
	require.Empty(t, h.rcon.sent())
}

func TestInitialiseExcludesCurrentMap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	enableVoteMap(t, h, "foy_warfare", "kursk_warfare", "hurtgenforest_warfare_V2", "omahabeach_warfare")
	_, _ = h.history.SaveNew(ctx, "foy_warfare", epoch.Unix(), false)
	h.votes.votes[pid] = "old"

	h.hooks.VoteMaps.Initialise(ctx)
	require.Equal(t, []string{"kursk_warfare", "hurtgenforest_warfare_V2", "omahabeach_warfare"}, h.votes.selection)
	require.Empty(t, h.votes.votes)
	require.Equal(t, epoch, h.votes.lastReminder)
	require.Empty(t, h.rcon.setRotations, "sin votos no se toca la rotación")
}

func TestInitialise_FallsBackToRotation(t *testing.T) {
	h := newHarness(t)
	enableVoteMap(t, h)
	h.rcon.rotation = []string{"a_warfare", "b_warfare"}

	h.hooks.VoteMaps.Initialise(context.Background())
	require.Equal(t, []string{"a_warfare", "b_warfare"}, h.votes.selection)
}

func TestApplyResults_WinnerAndTies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.votes.selection = []string{"a", "b", "c"}
	h.votes.votes = map[string]string{"1": "b", "2": "c", "3": "gone"}

	winner, err := h.hooks.VoteMaps.ApplyResults(ctx)
	require.NoError(t, err)
	require.Equal(t, "b", winner, "empate: gana el primero de la selección")
	require.Equal(t, [][]string{{"b"}}, h.rcon.setRotations)
}

func TestRemind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	enableVoteMap(t, h)
	h.votes.selection = []string{"a", "b"}
	h.votes.votes = map[string]string{"x": "b"}
	h.votes.lastReminder = epoch
	h.rcon.players = []rcon.PlayerInfo{{Name: "Bob", PlayerID: "1"}, {Name: "Ann", PlayerID: "2"}}

	require.NoError(t, h.hooks.VoteMaps.Remind(ctx, false))
	require.Empty(t, h.rcon.sent(), "todavía no pasó el intervalo")

	h.vc.Advance(10 * time.Minute)
	require.NoError(t, h.hooks.VoteMaps.Remind(ctx, false))
	msgs := h.rcon.sent()
	require.Len(t, msgs, 2)
	require.Equal(t, "Vote:\n[0] a (0)\n[1] b (1)", msgs[0].Message)
	require.Equal(t, h.vc.Now(), h.votes.lastReminder)

	require.NoError(t, h.hooks.VoteMaps.Remind(ctx, true))
	require.Len(t, h.rcon.sent(), 4)
}

func TestOnMatchEnded_AppliesAndForcesReminder(t *testing.T) {
	h := newHarness(t)
	enableVoteMap(t, h)
	h.votes.selection = []string{"a"}
	h.votes.votes = map[string]string{"x": "a"}
	h.votes.lastReminder = epoch
	h.rcon.players = []rcon.PlayerInfo{{PlayerID: "1"}}

	require.NoError(t, h.hooks.VoteMaps.OnMatchEnded(context.Background(), domain.LogEvent{}))
	require.Equal(t, [][]string{{"a"}}, h.rcon.setRotations)
	require.Len(t, h.rcon.sent(), 1)
}
