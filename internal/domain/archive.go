package domain

import (
	"encoding/json"
	"time"
)

// ArchiveRecord is an immutable snapshot of a content record, taken
// before a destructive mutation. Records are append-only: they carry no
// version and are never updated.
type ArchiveRecord struct {
	ArchiveID  string    `json:"archive_id"`
	ArchivedAt time.Time `json:"archived_at"`
	Content    Content   `json:"content"`
}

// NewArchiveRecord snapshots c with the version stripped.
func NewArchiveRecord(archiveID string, c *Content) *ArchiveRecord {
	snapshot := *c
	snapshot.Version = 0
	return &ArchiveRecord{
		ArchiveID:  archiveID,
		ArchivedAt: time.Now().UTC(),
		Content:    snapshot,
	}
}

// MarshalJSON omits the stripped version field from the snapshot.
func (r *ArchiveRecord) MarshalJSON() ([]byte, error) {
	type alias ArchiveRecord
	type contentNoVersion struct {
		Content
		Version int64 `json:"version,omitempty"`
	}
	return json.Marshal(struct {
		*alias
		Content contentNoVersion `json:"content"`
	}{
		alias:   (*alias)(r),
		Content: contentNoVersion{Content: r.Content},
	})
}
