package runesmith

import (
	"context"
	"time"

	"github.com/CTAG07/Runesmith/pkg/document"
)

// MapEntry describes one compiled file.
type MapEntry struct {
	Target       string             `json:"target"`
	Namespace    document.Namespace `json:"namespace"`
	OutputLength int                `json:"output_length"`
	Created      time.Time          `json:"created"`
}

// Recorder receives every MapEntry as it is produced, typically to persist it.
type Recorder interface {
	Record(ctx context.Context, entry MapEntry) error
}
