package audit

import "time"

// Entry is one append-only audit row. Details holds a JSON object.
type Entry struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	CompanyID  int64     `gorm:"column:company_id;not null;index" json:"company_id"`
	UserID     int64     `gorm:"column:user_id" json:"user_id"`
	UserRole   string    `gorm:"column:user_role;not null" json:"user_role"`
	Action     string    `gorm:"column:action;not null" json:"action"`
	EntityType string    `gorm:"column:entity_type;not null" json:"entity_type"`
	EntityID   int64     `gorm:"column:entity_id;not null" json:"entity_id"`
	Details    string    `gorm:"column:details" json:"details,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Entry) TableName() string {
	return "audit_logs"
}
