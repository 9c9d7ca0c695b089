package rcon

// --- requests ---
type messagePlayerRequest struct {
	PlayerID    string `json:"player_id"`
	Message     string `json:"message"`
	By          string `json:"by"`
	SaveMessage bool   `json:"save_message"`
}

type permaBanRequest struct {
	PlayerName string `json:"player_name"`
	PlayerID   string `json:"player_id,omitempty"`
	Reason     string `json:"reason"`
	By         string `json:"by"`
}

type vipSlotsRequest struct {
	Count int `json:"count"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type playerInfoRequest struct {
	PlayerName string `json:"player_name"`
}

type mapRotationRequest struct {
	MapNames []string `json:"map_names"`
}

// --- responses ---

// PlayerInfo es lo que devuelven get_players / get_player_info.
type PlayerInfo struct {
	Name     string `json:"name"`
	PlayerID string `json:"player_id"`
	Team     string `json:"team,omitempty"`
	Unit     string `json:"unit_name,omitempty"`
	Role     string `json:"role,omitempty"`
	Level    int    `json:"level,omitempty"`
}

// layerDTO es la forma nueva de get_map (objeto en vez de string).
type layerDTO struct {
	ID string `json:"id"`
}
