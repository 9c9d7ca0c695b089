package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "hllhooks:"

	PlayersKey       = keyPrefix + "rcon:get_players"
	PlayerInfoPrefix = keyPrefix + "rcon:get_player_info:%s"

	voteSelectionKey = keyPrefix + "votemap:selection"
	voteVotesKey     = keyPrefix + "votemap:votes"
	voteReminderKey  = keyPrefix + "votemap:last_reminder"
)

var ErrMiss = errors.New("cache miss")

// NewClient conecta a un redis single-node y hace ping.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Printf("[cache] connected to redis %s db=%d", addr, db)
	return rdb, nil
}

// PlayerInfoKey arma la key del cache por nombre de jugador.
func PlayerInfoKey(name string) string {
	return fmt.Sprintf(PlayerInfoPrefix, name)
}
