// Package events defines the notifications emitted after a dataset load.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotSubject is the routing key / subject of snapshot events.
const SnapshotSubject = "dataset.snapshot"

// SnapshotEvent announces that a freshly loaded table was written out.
type SnapshotEvent struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Path        string    `json:"path"`
	RawRows     int       `json:"raw_rows"`
	KeptRows    int       `json:"kept_rows"`
	DroppedRows int       `json:"dropped_rows"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e SnapshotEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func SnapshotEventFromJSON(data []byte) (SnapshotEvent, error) {
	var e SnapshotEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return SnapshotEvent{}, fmt.Errorf("decode snapshot event: %w", err)
	}
	return e, nil
}

// Publisher delivers snapshot events to a broker.
type Publisher interface {
	PublishSnapshot(ctx context.Context, evt SnapshotEvent) error
	Close() error
}
