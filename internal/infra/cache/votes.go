package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// VoteStore guarda el estado del votemap: selección actual, votos
// (player id -> mapa) y el último recordatorio.
type VoteStore struct {
	rdb redis.UniversalClient
}

func NewVoteStore(rdb redis.UniversalClient) *VoteStore { return &VoteStore{rdb: rdb} }

func (v *VoteStore) Clear(ctx context.Context) error {
	return v.rdb.Del(ctx, voteVotesKey).Err()
}

func (v *VoteStore) SetSelection(ctx context.Context, maps []string) error {
	pipe := v.rdb.TxPipeline()
	pipe.Del(ctx, voteSelectionKey)
	if len(maps) > 0 {
		vals := make([]any, len(maps))
		for i, m := range maps {
			vals[i] = m
		}
		pipe.RPush(ctx, voteSelectionKey, vals...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (v *VoteStore) Selection(ctx context.Context) ([]string, error) {
	return v.rdb.LRange(ctx, voteSelectionKey, 0, -1).Result()
}

// AddVote pisa el voto anterior del jugador.
func (v *VoteStore) AddVote(ctx context.Context, playerID, mapName string) error {
	return v.rdb.HSet(ctx, voteVotesKey, playerID, mapName).Err()
}

func (v *VoteStore) Votes(ctx context.Context) (map[string]string, error) {
	return v.rdb.HGetAll(ctx, voteVotesKey).Result()
}

func (v *VoteStore) SetLastReminder(ctx context.Context, t time.Time) error {
	return v.rdb.Set(ctx, voteReminderKey, t.Unix(), 0).Err()
}

// LastReminder devuelve el zero time si nunca hubo recordatorio.
func (v *VoteStore) LastReminder(ctx context.Context) (time.Time, error) {
	s, err := v.rdb.Get(ctx, voteReminderKey).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}
