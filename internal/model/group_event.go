package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// GroupEvent records one committed membership transition.
type GroupEvent struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GroupID   uuid.UUID  `json:"group_id" gorm:"type:uuid;not null;index"`
	Action    string     `json:"action" gorm:"type:text;not null"`
	ActorID   uuid.UUID  `json:"actor_id" gorm:"type:uuid;not null"`
	SubjectID *uuid.UUID `json:"subject_id,omitempty" gorm:"type:uuid"`
	Details   JSONMap    `json:"details" gorm:"type:jsonb"`
	RequestID string     `json:"request_id"`
	ClientIP  string     `json:"client_ip"`
	CreatedAt time.Time  `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for GroupEvent
func (GroupEvent) TableName() string {
	return "group_events"
}

// JSONMap represents a generic map stored as JSONB in the database
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion failed: failed to decode JSONB")
	}

	return json.Unmarshal(bytes, m)
}

// Group event actions
const (
	ActionGroupCreated         = "group_created"
	ActionGroupUpdated         = "group_updated"
	ActionGroupDeleted         = "group_deleted"
	ActionMemberJoined         = "member_joined"
	ActionJoinRequested        = "join_requested"
	ActionRequestApproved      = "request_approved"
	ActionRequestDenied        = "request_denied"
	ActionRequestDropped       = "request_dropped"
	ActionMemberLeft           = "member_left"
	ActionMemberRemoved        = "member_removed"
	ActionRoleChanged          = "role_changed"
	ActionOwnershipTransferred = "ownership_transferred"
)
