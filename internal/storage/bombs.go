package storage

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/ktane-tracker/tracker/internal/models"
)

// ParseBombs normalises the raw bombs column. It accepts a JSON array of bombs
// or a JSON string holding such an array, as older imports stored it. Anything
// else yields no bombs. Pools with a missing or non-positive count draw one
// module.
func ParseBombs(raw []byte) []models.Bomb {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []models.Bomb{}
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			slog.Debug("discarding malformed bombs string", "error", err)
			return []models.Bomb{}
		}
		raw = bytes.TrimSpace([]byte(inner))
	}

	var bombs []models.Bomb
	if err := json.Unmarshal(raw, &bombs); err != nil {
		slog.Debug("discarding malformed bombs", "error", err)
		return []models.Bomb{}
	}

	for i := range bombs {
		if bombs[i].Pools == nil {
			bombs[i].Pools = []models.Pool{}
		}
		for j := range bombs[i].Pools {
			if bombs[i].Pools[j].Count <= 0 {
				bombs[i].Pools[j].Count = 1
			}
		}
	}
	if bombs == nil {
		bombs = []models.Bomb{}
	}

	return bombs
}
