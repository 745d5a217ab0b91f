// internal/model/join_request.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestDenied   JoinRequestStatus = "denied"
)

type JoinRequest struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	GroupID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"group_id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null" json:"user_id"`
	Status    JoinRequestStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

func (JoinRequest) TableName() string {
	return "group_join_requests"
}
