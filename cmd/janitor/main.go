package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
)

// retención en días, pisable por env
type retention struct {
	Sessions int
	Audit    int
	MapStats int
}

func loadRetention() retention {
	days := func(k string, def int) int {
		if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
			return n
		}
		return def
	}
	return retention{
		Sessions: days("RETENTION_SESSIONS_DAYS", 90),
		Audit:    days("RETENTION_AUDIT_DAYS", 30),
		MapStats: days("RETENTION_MAP_STATS_DAYS", 180),
	}
}

type pruneQuery struct {
	name string
	sql  string
	days int
}

func queries(r retention) []pruneQuery {
	return []pruneQuery{
		// sólo sesiones cerradas; una abierta es un jugador conectado
		{"player_sessions", `DELETE FROM player_sessions WHERE ended_at IS NOT NULL AND ended_at < now() - make_interval(days => $1)`, r.Sessions},
		// lo no entregado a Discord se queda para revisarlo a mano
		{"audit_log", `DELETE FROM audit_log WHERE delivered AND created_at < now() - make_interval(days => $1)`, r.Audit},
		{"map_stats", `DELETE FROM map_stats WHERE recorded_at < now() - make_interval(days => $1)`, r.MapStats},
	}
}

func handler(ctx context.Context) (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Sprintf("parse: %v", err), nil
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("pool: %v", err), nil
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	var out []string
	for _, q := range queries(loadRetention()) {
		tag, err := pool.Exec(cctx, q.sql, q.days)
		if err != nil {
			out = append(out, fmt.Sprintf("%s: %v", q.name, err))
			continue
		}
		out = append(out, fmt.Sprintf("%s=%d", q.name, tag.RowsAffected()))
	}
	res := strings.Join(out, " ")
	fmt.Println("janitor:", res)
	return res, nil
}

func main() { lambda.Start(handler) }
