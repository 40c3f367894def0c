package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidReportReason(t *testing.T) {
	// Общие причины допустимы для обеих целей
	for _, reason := range []string{ReasonSpam, ReasonAmoral, ReasonFraud, ReasonIllegal, ReasonContactIssue, ReasonOther} {
		assert.True(t, IsValidReportReason(ReportTargetItem, reason), reason)
		assert.True(t, IsValidReportReason(ReportTargetUser, reason), reason)
	}

	// Причины, специфичные для товаров, не применимы к пользователям
	for _, reason := range []string{ReasonPriceIssue, ReasonCategoryIssue, ReasonResponsivenessIssue} {
		assert.True(t, IsValidReportReason(ReportTargetItem, reason), reason)
		assert.False(t, IsValidReportReason(ReportTargetUser, reason), reason)
	}

	assert.False(t, IsValidReportReason(ReportTargetItem, "unknown"))
	assert.False(t, IsValidReportReason(ReportTargetUser, ""))
	assert.False(t, IsValidReportReason("listing", ReasonSpam))
}
