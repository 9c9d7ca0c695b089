package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jose-valero/hll-hooks/internal/adapters/logstream"
)

type replayResult struct {
	Handler string `json:"handler"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	TookMS  int64  `json:"took_ms"`
}

type replayResponse struct {
	ID      string         `json:"id"`
	Kind    string         `json:"kind"`
	Results []replayResult `json:"results"`
	Error   string         `json:"error"`
}

// readLines devuelve las líneas no vacías que no son comentarios (#).
func readLines(r io.Reader) ([][]byte, error) {
	var out [][]byte
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		out = append(out, bytes.Clone(line))
	}
	return out, sc.Err()
}

func postEvent(ctx context.Context, hc *http.Client, addr, secret string, line []byte) (replayResponse, error) {
	var out replayResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(addr, "/")+"/events", bytes.NewReader(line))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hooks-Secret", secret)

	res, err := hc.Do(req)
	if err != nil {
		return out, err
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("status %d: %w", res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK {
		return out, fmt.Errorf("status %d: %s", res.StatusCode, out.Error)
	}
	return out, nil
}

func newReplayCmd() *cobra.Command {
	var (
		addr   string
		secret string
		dryRun bool
		delay  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "replay <file.jsonl>",
		Short: "Replay recorded log lines into a running bot",
		Long: `Reads one CRCON log object per line and posts each one to the bot's
/events endpoint, in file order. Every handler result is printed.
With --dry-run lines are only parsed.`,
		Example: `  hookctl replay match.jsonl --addr http://localhost:8080
  hookctl replay match.jsonl --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			lines, err := readLines(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			hc := &http.Client{Timeout: 30 * time.Second}

			var failed int
			for i, line := range lines {
				evt, err := logstream.ParseLine(line)
				if err != nil {
					return fmt.Errorf("line %d: %w", i+1, err)
				}
				if dryRun {
					fmt.Fprintf(out, "  [%d] %s player=%q id=%s\n", i+1, evt.Kind, evt.Player, evt.PlayerID)
					continue
				}

				res, err := postEvent(cmd.Context(), hc, addr, secret, line)
				if err != nil {
					return fmt.Errorf("line %d: %w", i+1, err)
				}
				fmt.Fprintf(out, "  [%d] %s\n", i+1, res.Kind)
				for _, r := range res.Results {
					status := "OK  "
					if !r.OK {
						status = "FAIL"
						failed++
					}
					fmt.Fprintf(out, "      [%s] %s %dms %s\n", status, r.Handler, r.TookMS, r.Error)
				}
				if delay > 0 && i < len(lines)-1 {
					time.Sleep(delay)
				}
			}

			fmt.Fprintf(out, "\n--- %d events, %d handler failures ---\n", len(lines), failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "bot HTTP address")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("HOOKS_HTTP_SECRET"), "X-Hooks-Secret value")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only parse the file")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between events")
	return cmd
}
