// Package models defines the persisted records.
package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
)

// SprintStatus is the payment/delivery state of a sprint.
type SprintStatus string

const (
	StatusDraft          SprintStatus = "draft"
	StatusPaymentPending SprintStatus = "payment_pending"
	StatusActive         SprintStatus = "active"
	StatusCompleted      SprintStatus = "completed"
)

// Rank orders statuses; status only moves to a higher rank.
func (s SprintStatus) Rank() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusPaymentPending:
		return 1
	case StatusActive:
		return 2
	case StatusCompleted:
		return 3
	default:
		return -1
	}
}

// User is an auth account; clients are created implicitly when a consultant
// opens a sprint for them.
type User struct {
	ID           string    `gorm:"primaryKey;type:text" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:320;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;size:120;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:120" json:"name"`
	IsClient     bool      `gorm:"not null;default:false" json:"isClient"`
	IsConsultant bool      `gorm:"not null;default:false" json:"isConsultant"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Sprint is one paid engagement.
type Sprint struct {
	ID                      string       `gorm:"primaryKey;type:text" json:"id"`
	ClientID                string       `gorm:"type:text;index" json:"clientId"`
	ConsultantID            *string      `gorm:"type:text;index" json:"consultantId,omitempty"`
	Tier                    catalog.Tier `gorm:"type:text;not null" json:"tier"`
	Status                  SprintStatus `gorm:"type:text;not null;default:'draft';index" json:"status"`
	CompanyName             string       `gorm:"size:255;not null" json:"companyName"`
	IsPartnershipEvaluation bool         `gorm:"not null;default:false" json:"isPartnershipEvaluation"`
	Progress                int          `gorm:"not null;default:0" json:"progress"`
	Price                   int64        `gorm:"not null" json:"price"`
	PaidAt                  *time.Time   `json:"paidAt,omitempty"`
	StripePaymentURL        *string      `gorm:"column:stripe_payment_url" json:"stripePaymentUrl,omitempty"`
	ModulesVersion          int64        `gorm:"not null;default:0" json:"-"`
	CreatedAt               time.Time    `json:"createdAt"`
	UpdatedAt               time.Time    `json:"updatedAt"`
}

// IntakeData holds the client's venture description; one row per sprint.
type IntakeData struct {
	ID                      string         `gorm:"primaryKey;type:text" json:"id"`
	SprintID                string         `gorm:"type:text;uniqueIndex;not null" json:"sprintId"`
	BusinessModel           string         `gorm:"type:text" json:"businessModel"`
	ProductType             string         `gorm:"type:text" json:"productType"`
	Stage                   string         `gorm:"type:text" json:"stage"`
	Industry                string         `gorm:"type:text" json:"industry"`
	TargetCustomer          string         `gorm:"type:text" json:"targetCustomer"`
	ProblemStatement        string         `gorm:"type:text" json:"problemStatement"`
	Solution                string         `gorm:"type:text" json:"solution"`
	Competitors             datatypes.JSON `json:"competitors"`
	Assumptions             datatypes.JSON `json:"assumptions"`
	ValidationGoals         datatypes.JSON `json:"validationGoals"`
	IsPartnershipEvaluation bool           `gorm:"not null;default:false" json:"isPartnershipEvaluation"`
	PartnerName             string         `gorm:"type:text" json:"partnerName,omitempty"`
	PartnershipGoals        string         `gorm:"type:text" json:"partnershipGoals,omitempty"`
	CreatedAt               time.Time      `json:"createdAt"`
	UpdatedAt               time.Time      `json:"updatedAt"`
}

func (IntakeData) TableName() string { return "intake_data" }

// SprintModule is one analysis module instance of a sprint.
type SprintModule struct {
	ID          string             `gorm:"primaryKey;type:text" json:"id"`
	SprintID    string             `gorm:"type:text;not null;index:idx_sprint_module_type,unique,priority:1" json:"sprintId"`
	ModuleType  catalog.ModuleType `gorm:"type:text;not null;index:idx_sprint_module_type,unique,priority:2" json:"moduleType"`
	IsLocked    bool               `gorm:"not null;default:false" json:"isLocked"`
	IsCompleted bool               `gorm:"not null;default:false" json:"isCompleted"`
	AIAnalysis  datatypes.JSON     `gorm:"column:ai_analysis" json:"aiAnalysis"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// HasAnalysis reports whether generated content is stored.
func (m SprintModule) HasAnalysis() bool {
	return UsableAnalysis(m.AIAnalysis)
}

// UsableAnalysis reports whether raw can be stored as a module's analysis:
// valid JSON other than null.
func UsableAnalysis(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && json.Valid(raw)
}

// Comment is an immutable note on a sprint or one of its modules.
type Comment struct {
	ID         string              `gorm:"primaryKey;type:text" json:"id"`
	SprintID   string              `gorm:"type:text;not null;index" json:"sprintId"`
	ModuleType *catalog.ModuleType `gorm:"type:text" json:"moduleType,omitempty"`
	AuthorID   string              `gorm:"type:text;not null" json:"authorId"`
	Content    string              `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// NewID returns a fresh primary key.
func NewID() string { return uuid.NewString() }

func (u *User) BeforeCreate(*gorm.DB) error         { return ensureID(&u.ID) }
func (s *Sprint) BeforeCreate(*gorm.DB) error       { return ensureID(&s.ID) }
func (i *IntakeData) BeforeCreate(*gorm.DB) error   { return ensureID(&i.ID) }
func (m *SprintModule) BeforeCreate(*gorm.DB) error { return ensureID(&m.ID) }
func (c *Comment) BeforeCreate(*gorm.DB) error      { return ensureID(&c.ID) }

func ensureID(id *string) error {
	if *id == "" {
		*id = NewID()
	}
	return nil
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Sprint{},
		&IntakeData{},
		&SprintModule{},
		&Comment{},
	}
}
