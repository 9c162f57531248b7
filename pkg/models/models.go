package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopops/roster-api-go/pkg/dates"
)

// Role is an employee's position on the roster.
type Role string

const (
	RoleStaff   Role = "staff"
	RoleTech    Role = "tech"
	RoleManager Role = "manager"
)

// AvailabilityStatus is the tri-state day-of-week availability. The
// zero value means no entry exists for that day: the employee is
// excluded from automatic fills but is not shown as RED.
type AvailabilityStatus string

const (
	AvailabilityUnknown AvailabilityStatus = ""
	AvailabilityGreen   AvailabilityStatus = "GREEN"
	AvailabilityYellow  AvailabilityStatus = "YELLOW"
	AvailabilityRed     AvailabilityStatus = "RED"
)

// Employee represents a person on the roster
type Employee struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FullName       string    `gorm:"not null" json:"full_name"`
	DisplayName    string    `json:"display_name"`
	Role           Role      `gorm:"not null;default:staff" json:"role"`
	MinHours       float64   `json:"min_hours"`
	PreferredHours float64   `json:"preferred_hours"`
	MaxHours       float64   `json:"max_hours"`
	Active         bool      `gorm:"default:true" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AvailabilityEntry is one employee's standing availability for one
// day of week (0=Sunday .. 6=Saturday). At most one row per
// employee+weekday. PartialStatus is the separate tri-state consulted
// only by the partial-shift fill.
type AvailabilityEntry struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	EmployeeID    uint               `gorm:"uniqueIndex:idx_emp_weekday;not null" json:"employee_id"`
	Weekday       int                `gorm:"uniqueIndex:idx_emp_weekday;not null" json:"weekday"`
	Status        AvailabilityStatus `gorm:"not null" json:"status"`
	PartialStatus AvailabilityStatus `json:"partial_status,omitempty"`
	EarliestStart string             `json:"earliest_start,omitempty"`
	LatestEnd     string             `json:"latest_end,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

// TimeOffType distinguishes whole-day blocks from single-day partial
// windows.
type TimeOffType string

const (
	// TimeOffFullDays blocks every day in [StartDate, EndDate].
	TimeOffFullDays TimeOffType = "FULL_DAYS"
	// TimeOffPartialDay marks one day where the employee is available
	// only inside [StartTime, EndTime] and off outside it.
	TimeOffPartialDay TimeOffType = "PARTIAL_DAY"
)

// RecurrencePattern is the stepping rule for recurring time off.
type RecurrencePattern string

const (
	RecurWeekly   RecurrencePattern = "weekly"
	RecurBiweekly RecurrencePattern = "biweekly"
	RecurMonthly  RecurrencePattern = "monthly"
)

// TimeOffRequest is either a standalone request, a recurring parent
// (Pattern set, ParentRequestID nil), or a materialized instance of a
// parent (ParentRequestID set, never recursive). A parent and its
// instances share SeriesID.
type TimeOffRequest struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	EmployeeID uint        `gorm:"index;not null" json:"employee_id"`
	StartDate  dates.Date  `gorm:"type:date;not null" json:"start_date"`
	EndDate    dates.Date  `gorm:"type:date;not null" json:"end_date"`
	Type       TimeOffType `gorm:"not null" json:"type"`
	StartTime  string      `json:"start_time,omitempty"`
	EndTime    string      `json:"end_time,omitempty"`
	Reason     string      `json:"reason,omitempty"`

	Pattern    RecurrencePattern `json:"pattern,omitempty"`
	Interval   int               `json:"interval,omitempty"`
	PatternEnd dates.Date        `gorm:"type:date" json:"pattern_end,omitempty"`

	ParentRequestID *uint     `gorm:"index" json:"parent_request_id,omitempty"`
	SeriesID        uuid.UUID `gorm:"type:uuid" json:"series_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRecurringParent reports whether the request defines a recurrence
// and is not itself an instance.
func (r *TimeOffRequest) IsRecurringParent() bool {
	return r.Pattern != "" && r.ParentRequestID == nil
}

// IsInstance reports whether the request was materialized from a
// recurring parent.
func (r *TimeOffRequest) IsInstance() bool {
	return r.ParentRequestID != nil
}

// StaffingTemplate is the standing requirement for one day of week. A
// missing or inactive row means the store has no staffing need that
// day.
type StaffingTemplate struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Weekday          int       `gorm:"uniqueIndex;not null" json:"weekday"`
	OpenTime         string    `json:"open_time"`
	CloseTime        string    `json:"close_time"`
	RequiredManagers int       `json:"required_managers"`
	RequiredStaff    int       `json:"required_staff"`
	RequiredPartial  int       `json:"required_partial"`
	Active           bool      `gorm:"default:true" json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AssignmentSource records how a shift came to exist.
type AssignmentSource string

const (
	SourceBaseTemplate  AssignmentSource = "from_base_template"
	SourceManuallyAdded AssignmentSource = "manually_added"
)

// ShiftAssignment is one employee working one span on one date.
// FullDayConflict and PartialTimeOff are derived at generation/load
// time and never stored.
type ShiftAssignment struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	WeekStart  dates.Date       `gorm:"type:date;index;not null" json:"week_start"`
	Date       dates.Date       `gorm:"type:date;not null" json:"date"`
	EmployeeID uint             `gorm:"index;not null" json:"employee_id"`
	StartTime  string           `gorm:"not null" json:"start_time"`
	EndTime    string           `gorm:"not null" json:"end_time"`
	Position   string           `json:"position"`
	Notes      string           `json:"notes,omitempty"`
	Source     AssignmentSource `gorm:"not null;default:from_base_template" json:"source"`

	FullDayConflict bool            `gorm:"-" json:"full_day_conflict"`
	PartialTimeOff  *TimeOffRequest `gorm:"-" json:"partial_time_off,omitempty"`
}

// ConflictType names the staffing problems the engine can report.
type ConflictType string

const (
	ConflictManagerShortage      ConflictType = "MANAGER_SHORTAGE"
	ConflictStaffShortage        ConflictType = "STAFF_SHORTAGE"
	ConflictYellowAssignment     ConflictType = "YELLOW_ASSIGNMENT"
	ConflictPartialStaffShortage ConflictType = "PARTIAL_STAFF_SHORTAGE"
)

// Severity ranks conflicts for display.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// ConflictRecord is a single classified staffing problem. Conflicts
// are engine output, not errors, and are never persisted.
type ConflictRecord struct {
	WeekStart  dates.Date   `json:"week_start"`
	Date       dates.Date   `json:"date"`
	Type       ConflictType `json:"type"`
	Severity   Severity     `json:"severity"`
	EmployeeID uint         `json:"employee_id,omitempty"`
	Message    string       `json:"message"`
}

// AssignmentPolicy makes the engine's fill order and fallback shift
// hours explicit instead of baked-in globals.
type AssignmentPolicy struct {
	// RolePriority orders the non-manager fill; roles listed first are
	// taken first.
	RolePriority []Role `json:"role_priority"`
	// DefaultOpen/DefaultClose cover template rows missing hours.
	DefaultOpen  string `json:"default_open"`
	DefaultClose string `json:"default_close"`
}

// DefaultPolicy is the stock retail fill order: techs ahead of generic
// staff, 9-to-5 fallback hours.
func DefaultPolicy() AssignmentPolicy {
	return AssignmentPolicy{
		RolePriority: []Role{RoleTech, RoleStaff},
		DefaultOpen:  "09:00",
		DefaultClose: "17:00",
	}
}

// WeekResult is the engine's output for one week.
type WeekResult struct {
	WeekStart   dates.Date        `json:"week_start"`
	Assignments []ShiftAssignment `json:"assignments"`
	Conflicts   []ConflictRecord  `json:"conflicts"`
	Generated   bool              `json:"generated"`
}
