package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы цели жалобы
const (
	ReportTargetItem = "item"
	ReportTargetUser = "user"
)

// Статусы агрегированной жалобы
const (
	ReportStatusReviewing = "reviewing" // в очереди на рассмотрение
	ReportStatusAccepted  = "accepted"  // жалоба принята, цель забанена
	ReportStatusRejected  = "rejected"  // жалоба отклонена
)

// Причины жалоб
const (
	ReasonSpam                = "spam"
	ReasonAmoral              = "amoral"
	ReasonFraud               = "fraud"
	ReasonIllegal             = "illegal"
	ReasonPriceIssue          = "price_issue"
	ReasonContactIssue        = "contact_issue"
	ReasonCategoryIssue       = "category_issue"
	ReasonResponsivenessIssue = "responsiveness_issue"
	ReasonOther               = "other"
)

// userReportReasons причины, допустимые для жалоб на пользователей
var userReportReasons = map[string]bool{
	ReasonSpam:         true,
	ReasonAmoral:       true,
	ReasonFraud:        true,
	ReasonIllegal:      true,
	ReasonContactIssue: true,
	ReasonOther:        true,
}

// itemReportReasons причины, допустимые для жалоб на айтемы.
// Включают все пользовательские плюс специфичные для айтемов.
var itemReportReasons = map[string]bool{
	ReasonSpam:                true,
	ReasonAmoral:              true,
	ReasonFraud:               true,
	ReasonIllegal:             true,
	ReasonContactIssue:        true,
	ReasonPriceIssue:          true,
	ReasonCategoryIssue:       true,
	ReasonResponsivenessIssue: true,
	ReasonOther:               true,
}

// IsValidReportReason проверяет, допустима ли причина для данного типа цели
func IsValidReportReason(targetType, reason string) bool {
	switch targetType {
	case ReportTargetItem:
		return itemReportReasons[reason]
	case ReportTargetUser:
		return userReportReasons[reason]
	default:
		return false
	}
}

// ReportTarget идентифицирует цель жалобы: айтем или пользователь
type ReportTarget struct {
	Type string    `json:"type"` // item | user
	ID   uuid.UUID `json:"id"`
}

// Report представляет агрегированную жалобу на айтем или пользователя.
// Для каждой цели существует не более одной записи, счетчики причин
// накапливаются по мере поступления новых жалоб.
type Report struct {
	ID     uuid.UUID    `json:"id"`
	Target ReportTarget `json:"target"`

	Spam                 int `json:"spam"`
	Amoral               int `json:"amoral"`
	Fraud                int `json:"fraud"`
	Illegal              int `json:"illegal"`
	PriceIssue           int `json:"price_issue"`
	ContactIssue         int `json:"contact_issue"`
	CategoryIssue        int `json:"category_issue"`
	ResponsivenessIssue  int `json:"responsiveness_issue"`
	Other                int `json:"other"`

	Status    string    `json:"status"`
	AdminNote string    `json:"admin_note,omitempty"` // причина финального решения
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
