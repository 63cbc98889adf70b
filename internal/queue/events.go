package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the imports stream
const (
	EventImportCompleted = "import_completed"
	EventImportDeleted   = "import_deleted"
)

// Stream names
const (
	StreamImports = "stream:imports"
)

// Consumer group name for avatar archive workers
const (
	ConsumerGroupAvatars = "avatar_workers"
)

// ImportEvent represents an event published to the imports stream.
type ImportEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	ImportID int64 `json:"import_id,omitempty"`
	UserID   int64 `json:"user_id,omitempty"`

	// Archived avatar object keys to clean up (import_deleted only)
	AvatarKeys []string `json:"avatar_keys,omitempty"`
}

// NewImportCompletedEvent creates the event fired after an import reaches
// completed. Workers archive the imported comments' avatars off-request.
func NewImportCompletedEvent(importID, userID int64) ImportEvent {
	return ImportEvent{
		Type:      EventImportCompleted,
		Timestamp: time.Now().Unix(),
		ImportID:  importID,
		UserID:    userID,
	}
}

// NewImportDeletedEvent creates the event fired when an import is removed,
// so workers can clean up the archived avatar objects its comments owned.
func NewImportDeletedEvent(importID, userID int64, avatarKeys []string) ImportEvent {
	return ImportEvent{
		Type:       EventImportDeleted,
		Timestamp:  time.Now().Unix(),
		ImportID:   importID,
		UserID:     userID,
		AvatarKeys: avatarKeys,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e ImportEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseImportEvent parses an ImportEvent from Redis stream message values.
func ParseImportEvent(values map[string]interface{}) (ImportEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ImportEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ImportEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ImportEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
