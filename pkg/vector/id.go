package vector

import (
	"strconv"
	"strings"
)

func formatEntryID(table string, id int64) string {
	return table + "_" + strconv.FormatInt(id, 10)
}

// ParseEntryID splits a canonical entry ID back into its source table and
// row id. Table names themselves contain underscores, so the split happens
// at the last one.
func ParseEntryID(entryID string) (table string, id int64, ok bool) {
	idx := strings.LastIndex(entryID, "_")
	if idx <= 0 || idx == len(entryID)-1 {
		return "", 0, false
	}

	id, err := strconv.ParseInt(entryID[idx+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}

	return entryID[:idx], id, true
}

// ScoreFromDistance converts a cosine distance in [0, 2] to a similarity
// score, clamped to [0, 1]. Clamping keeps float jitter from pushing scores
// outside the published range.
func ScoreFromDistance(distance float64) float32 {
	score := 1.0 - distance/2.0
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return float32(score)
}
