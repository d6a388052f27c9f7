package ndbc

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
)

//go:embed buoys.json
var defaultStations []byte

// LoadStations reads the buoy station list from path, or the built-in Great
// Lakes list when path is empty.
func LoadStations(path string) ([]domain.Station, error) {
	data := defaultStations
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read station list: %w", err)
		}
	}

	var stations []domain.Station
	if err := json.Unmarshal(data, &stations); err != nil {
		return nil, fmt.Errorf("decode station list: %w", err)
	}
	for i, s := range stations {
		if s.ID == "" {
			return nil, fmt.Errorf("station list: entry %d has no id", i)
		}
	}
	return stations, nil
}
