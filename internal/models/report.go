package models

import "time"

// ReportType names the kind of content a report targets.
type ReportType string

const (
	ReportTypePost    ReportType = "POST"
	ReportTypeComment ReportType = "COMMENT"
)

func (t ReportType) Valid() bool {
	return t == ReportTypePost || t == ReportTypeComment
}

// ReportStatus is the moderation state of a report.
type ReportStatus string

const (
	ReportPending   ReportStatus = "PENDING"
	ReportReviewed  ReportStatus = "REVIEWED"
	ReportResolved  ReportStatus = "RESOLVED"
	ReportDismissed ReportStatus = "DISMISSED"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportReviewed, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s ReportStatus) Terminal() bool {
	return s == ReportResolved || s == ReportDismissed
}

// DismissedPlaceholder is stored as action_taken when a dismissal carries no text.
const DismissedPlaceholder = "Report dismissed"

// Report flags a post or a comment for moderator attention. The content
// references are nulled when the reported content is deleted so the report
// history survives moderation.
type Report struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Type        ReportType   `gorm:"size:20;not null" json:"type"`
	ReporterID  uint         `gorm:"not null;index" json:"reporter_id"`
	Reporter    *User        `gorm:"foreignKey:ReporterID;constraint:OnDelete:CASCADE" json:"reporter,omitempty"`
	PostID      *uint        `gorm:"index" json:"post_id"`
	Post        *Post        `gorm:"foreignKey:PostID;constraint:OnDelete:SET NULL" json:"-"`
	CommentID   *uint        `gorm:"index" json:"comment_id"`
	Comment     *Comment     `gorm:"foreignKey:CommentID;constraint:OnDelete:SET NULL" json:"-"`
	Reason      string       `gorm:"type:text;not null" json:"reason"`
	Status      ReportStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	ReviewerID  *uint        `gorm:"index" json:"reviewer_id"`
	Reviewer    *User        `gorm:"foreignKey:ReviewerID;constraint:OnDelete:SET NULL" json:"reviewer,omitempty"`
	ActionTaken *string      `gorm:"type:text" json:"action_taken"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ReviewedAt  *time.Time   `json:"reviewed_at"`
}
