package domain

import "time"

// ArtifactEvent announces that a new artifact file was written.
type ArtifactEvent struct {
	Region    string    `json:"region"`
	Month     string    `json:"month"`
	Samples   int       `json:"samples"`
	Path      string    `json:"path"`
	WrittenAt time.Time `json:"written_at"`
}

// NewArtifactEvent stamps an event for the given pair with the current time.
func NewArtifactEvent(region Region, month MonthKey, samples int, path string) ArtifactEvent {
	return ArtifactEvent{
		Region:    region.Name,
		Month:     month.String(),
		Samples:   samples,
		Path:      path,
		WrittenAt: clock.Now().UTC(),
	}
}

// Key is the message key for the event: region/YYYY-MM.
func (e ArtifactEvent) Key() string {
	return e.Region + "/" + e.Month
}
