package ingest

import (
	"fmt"
	"strings"

	"github.com/geocampo/wellflow/internal/models"
)

// Vendor files carry 16 lines of logger metadata, a column header on line 17
// and data from line 18 onward.
const (
	headerLineIndex = 16
	dataLineIndex   = 17
	minFileLines    = 18
)

// DetectChannels inspects a vendor file's header row and returns the
// measurement channels it advertises. Header tokens starting with "ch" or
// containing "canal" (case-insensitive) are channels; each defaults to
// enabled, water flow, kg/s, and the caller may reconfigure before import.
// When no channel-named token exists but the header has more than two
// columns, a single fallback channel at column index 2 is synthesized.
func DetectChannels(text string) ([]models.Channel, error) {
	lines := strings.Split(text, "\n")
	if len(lines) < minFileLines {
		return nil, fmt.Errorf("file too short: %d lines, need at least %d", len(lines), minFileLines)
	}

	var channels []models.Channel
	headers := splitColumns(strings.TrimSpace(lines[headerLineIndex]))
	for idx, header := range headers {
		name := strings.TrimSuffix(strings.TrimSpace(header), ":")
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "ch") || strings.Contains(lower, "canal") {
			channels = append(channels, models.Channel{
				Name:       name,
				Index:      idx,
				Enabled:    true,
				MetricType: models.MetricWaterFlow,
				Unit:       models.UnitKgPerSec,
			})
		}
	}

	if len(channels) == 0 && len(headers) > 2 {
		channels = append(channels, models.Channel{
			Name:       "Valor (Col 3)",
			Index:      2,
			Enabled:    true,
			MetricType: models.MetricWaterFlow,
			Unit:       models.UnitKgPerSec,
		})
	}

	return channels, nil
}
