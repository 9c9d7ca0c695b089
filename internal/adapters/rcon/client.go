package rcon

import (
	"context"
	"encoding/json"
	"log"

	"github.com/jose-valero/hll-hooks/internal/domain"
	"github.com/jose-valero/hll-hooks/internal/infra/cache"
)

// GetMap devuelve el id del mapa actual. Acepta tanto string como objeto layer.
func (c *Client) GetMap(ctx context.Context) (string, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "get_map", nil, &raw); err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var l layerDTO
	if err := json.Unmarshal(raw, &l); err != nil {
		return "", err
	}
	return l.ID, nil
}

func (c *Client) GetGamestate(ctx context.Context) (domain.Gamestate, error) {
	var g domain.Gamestate
	err := c.call(ctx, "get_gamestate", nil, &g)
	return g, err
}

func (c *Client) GetVIPsCount(ctx context.Context) (int, error) {
	var n int
	err := c.call(ctx, "get_vips_count", nil, &n)
	return n, err
}

func (c *Client) SetVIPSlotsNum(ctx context.Context, count int) error {
	return c.call(ctx, "set_vip_slots_num", vipSlotsRequest{Count: count}, nil)
}

func (c *Client) MessagePlayer(ctx context.Context, playerID, message, by string, save bool) error {
	return c.call(ctx, "message_player", messagePlayerRequest{
		PlayerID:    playerID,
		Message:     message,
		By:          by,
		SaveMessage: save,
	}, nil)
}

func (c *Client) PermaBan(ctx context.Context, playerName, playerID, reason, by string) error {
	return c.call(ctx, "perma_ban", permaBanRequest{
		PlayerName: playerName,
		PlayerID:   playerID,
		Reason:     reason,
		By:         by,
	}, nil)
}

func (c *Client) GetBroadcast(ctx context.Context) (string, error) {
	var s string
	err := c.call(ctx, "get_broadcast_message", nil, &s)
	return s, err
}

func (c *Client) SetBroadcast(ctx context.Context, msg string) error {
	return c.call(ctx, "set_broadcast", messageRequest{Message: msg}, nil)
}

func (c *Client) GetWelcomeMessage(ctx context.Context) (string, error) {
	var s string
	err := c.call(ctx, "get_welcome_message", nil, &s)
	return s, err
}

func (c *Client) SetWelcomeMessage(ctx context.Context, msg string) error {
	return c.call(ctx, "set_welcome_message", messageRequest{Message: msg}, nil)
}

func (c *Client) GetMapRotation(ctx context.Context) ([]string, error) {
	var raw []json.RawMessage
	if err := c.call(ctx, "get_map_rotation", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if json.Unmarshal(r, &s) == nil {
			out = append(out, s)
			continue
		}
		var l layerDTO
		if json.Unmarshal(r, &l) == nil && l.ID != "" {
			out = append(out, l.ID)
		}
	}
	return out, nil
}

func (c *Client) SetMapRotation(ctx context.Context, maps []string) error {
	return c.call(ctx, "set_map_rotation", mapRotationRequest{MapNames: maps}, nil)
}

// GetPlayers pasa por el cache si hay uno configurado.
func (c *Client) GetPlayers(ctx context.Context) ([]PlayerInfo, error) {
	var out []PlayerInfo
	if c.cache != nil {
		if err := c.cache.GetJSON(ctx, cache.PlayersKey, &out); err == nil {
			return out, nil
		}
	}
	if err := c.call(ctx, "get_players", nil, &out); err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, cache.PlayersKey, out, c.ttl); err != nil {
			log.Printf("[rcon] cache set get_players: %v", err)
		}
	}
	return out, nil
}

func (c *Client) GetPlayerInfo(ctx context.Context, name string) (PlayerInfo, error) {
	var out PlayerInfo
	key := cache.PlayerInfoKey(name)
	if c.cache != nil {
		if err := c.cache.GetJSON(ctx, key, &out); err == nil {
			return out, nil
		}
	}
	if err := c.call(ctx, "get_player_info", playerInfoRequest{PlayerName: name}, &out); err != nil {
		return PlayerInfo{}, err
	}
	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, out, c.ttl); err != nil {
			log.Printf("[rcon] cache set get_player_info: %v", err)
		}
	}
	return out, nil
}

func (c *Client) InvalidatePlayers(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Invalidate(ctx, cache.PlayersKey)
}

func (c *Client) InvalidatePlayerInfo(ctx context.Context, name string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Invalidate(ctx, cache.PlayerInfoKey(name))
}
