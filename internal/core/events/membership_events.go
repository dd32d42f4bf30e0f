package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeMembershipCreated = "membership.created"
	EventTypeMembershipHeld    = "membership.held"
	EventTypeMembershipResumed = "membership.resumed"
)

type MembershipEvent struct {
	BaseEvent
	CompanyID    int64 `json:"company_id"`
	MembershipID int64 `json:"membership_id"`
	MemberID     int64 `json:"member_id"`
}

func NewMembershipEvent(eventType string, companyID, membershipID, memberID int64, extra map[string]interface{}) *MembershipEvent {
	data := map[string]interface{}{
		"company_id":    companyID,
		"membership_id": membershipID,
		"member_id":     memberID,
	}
	for k, v := range extra {
		data[k] = v
	}
	return &MembershipEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		CompanyID:    companyID,
		MembershipID: membershipID,
		MemberID:     memberID,
	}
}

func (e *MembershipEvent) Company() int64 {
	return e.CompanyID
}
