package models

import "time"

// OpportunityType classifies an opportunity.
type OpportunityType string

const (
	OpportunityTypeJob       OpportunityType = "job"
	OpportunityTypeInterview OpportunityType = "interview"
	OpportunityTypeDemand    OpportunityType = "demand"
)

// Valid reports whether t is a known type.
func (t OpportunityType) Valid() bool {
	switch t {
	case OpportunityTypeJob, OpportunityTypeInterview, OpportunityTypeDemand:
		return true
	}
	return false
}

// OpportunityStatus is the publication state of an opportunity.
type OpportunityStatus string

const (
	OpportunityStatusOpen   OpportunityStatus = "open"
	OpportunityStatusClosed OpportunityStatus = "closed"
	OpportunityStatusPaused OpportunityStatus = "paused"
)

// Valid reports whether s is a known status.
func (s OpportunityStatus) Valid() bool {
	switch s {
	case OpportunityStatusOpen, OpportunityStatusClosed, OpportunityStatusPaused:
		return true
	}
	return false
}

// Opportunity is a job posting, interview slot or demand on the board.
type Opportunity struct {
	SoftDeleteModel
	Title        string            `gorm:"type:varchar(200);not null" json:"title"`
	Description  string            `gorm:"type:text;not null" json:"description"`
	Type         OpportunityType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Status       OpportunityStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Company      string            `gorm:"type:varchar(200)" json:"company,omitempty"`
	Location     string            `gorm:"type:varchar(200)" json:"location,omitempty"`
	WorkMode     string            `gorm:"type:varchar(50)" json:"work_mode,omitempty"`
	Salary       string            `gorm:"type:varchar(100)" json:"salary,omitempty"`
	Requirements string            `gorm:"type:text" json:"requirements,omitempty"`
	Skills       string            `gorm:"type:text" json:"skills,omitempty"`
	Deadline     *time.Time        `gorm:"type:date" json:"deadline,omitempty"`
	CreatedByID  uint              `gorm:"not null;index" json:"created_by_id"`
}

// TableName sets the table name for Opportunity.
func (Opportunity) TableName() string {
	return "opportunities"
}

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusReviewing ApplicationStatus = "reviewing"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusReviewing, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

// Application is a user's application to an opportunity. One per (opportunity, user).
type Application struct {
	BaseModel
	OpportunityID uint              `gorm:"not null;uniqueIndex:idx_application_pair" json:"opportunity_id"`
	UserID        uint              `gorm:"not null;uniqueIndex:idx_application_pair;index" json:"user_id"`
	CoverLetter   string            `gorm:"type:text" json:"cover_letter"`
	Resume        string            `gorm:"type:varchar(255)" json:"resume,omitempty"`
	Status        ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AdminNotes    string            `gorm:"type:text" json:"admin_notes,omitempty"`
}

// TableName sets the table name for Application.
func (Application) TableName() string {
	return "applications"
}

// OpportunityView is an opportunity annotated for a particular viewer.
type OpportunityView struct {
	Opportunity
	IsExpired        bool  `json:"is_expired"`
	HasApplied       bool  `json:"has_applied"`
	ApplicationID    uint  `json:"application_id,omitempty"`
	ApplicationCount int64 `json:"application_count"`
}

// ApplicationView is an application joined with its opportunity title and applicant.
type ApplicationView struct {
	Application
	OpportunityTitle string        `json:"opportunity_title"`
	Applicant        UserBasicInfo `json:"applicant"`
}
