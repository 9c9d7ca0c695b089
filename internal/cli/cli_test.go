package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/hll-hooks/internal/adapters/httpapi"
	"github.com/jose-valero/hll-hooks/internal/app/events"
	"github.com/jose-valero/hll-hooks/internal/app/settings"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

const sid = "76561198000000001"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestReadLines_SkipsBlankAndComments(t *testing.T) {
	lines, err := readLines(strings.NewReader("# grabado el sábado\n\n{\"action\":\"CONNECTED\"}\n  \n{\"action\":\"CHAT\"}\n"))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, `{"action":"CHAT"}`, string(lines[1]))
}

func TestReplay_DryRun(t *testing.T) {
	p := writeFile(t, `{"action":"CONNECTED","player":"Bob","player_id_1":"p1"}`+"\n"+`{"action":"MATCH START","sub_content":"FOY WARFARE"}`)
	out, err := run(t, "replay", p, "--dry-run")
	require.NoError(t, err)
	require.Contains(t, out, `[1] CONNECTED player="Bob" id=p1`)
	require.Contains(t, out, "[2] MATCH START")
	require.Contains(t, out, "2 events")
}

func TestReplay_BadLineStops(t *testing.T) {
	p := writeFile(t, `{"player":"Bob"}`)
	_, err := run(t, "replay", p, "--dry-run")
	require.ErrorContains(t, err, "line 1")
}

func TestReplay_PostsToRunningBot(t *testing.T) {
	router := events.NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	var seen []domain.LogEvent
	router.Subscribe(domain.EventConnected, "handle_on_connect", func(ctx context.Context, evt domain.LogEvent) error {
		seen = append(seen, evt)
		return nil
	})
	router.Subscribe(domain.EventConnected, "real_vip", func(ctx context.Context, evt domain.LogEvent) error {
		return errors.New("rcon down")
	})
	web := httpapi.New("s3cret", httpapi.Deps{Router: router})
	srv := httptest.NewServer(web.Handler())
	defer srv.Close()

	p := writeFile(t, `{"action":"CONNECTED","player":"Bob","player_id_1":"p1"}`)
	out, err := run(t, "replay", p, "--addr", srv.URL, "--secret", "s3cret")
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.Equal(t, "p1", seen[0].PlayerID)
	require.Contains(t, out, "[OK  ] handle_on_connect")
	require.Contains(t, out, "[FAIL] real_vip")
	require.Contains(t, out, "1 handler failures")

	_, err = run(t, "replay", p, "--addr", srv.URL, "--secret", "wrong")
	require.ErrorContains(t, err, "status 403")
}

func TestVacCheck_DefaultsWithoutDB(t *testing.T) {
	steamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"players":[{"SteamId":"` + sid + `","VACBanned":true,"NumberOfVACBans":1,"DaysSinceLastBan":100,"NumberOfGameBans":0}]}`))
	}))
	defer steamSrv.Close()

	// sin DB el feature queda apagado (vac_history_days = 0)
	out, err := run(t, "vac-check", sid, "--steam-key", "k", "--steam-base-url", steamSrv.URL)
	require.NoError(t, err)
	require.Contains(t, out, "NO_BAN")
	require.Contains(t, out, "hook is disabled")

	out, err = run(t, "vac-check", sid, "--steam-key", "k", "--steam-base-url", steamSrv.URL, "--days", "365", "--json")
	require.NoError(t, err)
	var rep vacReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Equal(t, "ban", rep.Verdict)
	require.Equal(t, 365, rep.Config.VacHistoryDays)

	out, err = run(t, "vac-check", sid, "--steam-key", "k", "--steam-base-url", steamSrv.URL, "--days", "365", "--whitelist", "vip", "--flag", "vip", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Equal(t, "no_ban", rep.Verdict)
}

func TestEvaluate_GameBanThreshold(t *testing.T) {
	bans := &domain.BanInfo{DaysSinceLastBan: "10", NumberOfGameBans: "3"}
	cfg := settings.VacGameBans{VacHistoryDays: 30}
	require.Equal(t, "no_ban", evaluate(sid, bans, cfg, nil).Verdict, "threshold 0 ignora game bans")

	cfg.GameBanThreshold = 3
	require.Equal(t, "ban", evaluate(sid, bans, cfg, nil).Verdict)
}

func TestConfigKeys(t *testing.T) {
	out, err := run(t, "config", "keys")
	require.NoError(t, err)
	require.Equal(t, strings.Join(settings.Keys(), "\n")+"\n", out)
}

func TestMigrate_NeedsDSN(t *testing.T) {
	_, err := run(t, "migrate", "up")
	require.ErrorContains(t, err, "DATABASE_URL")
}
