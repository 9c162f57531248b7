package scheduler

import (
	"fmt"

	"github.com/shopops/roster-api-go/pkg/dates"
	"github.com/shopops/roster-api-go/pkg/models"
)

// TimeOffChecker answers the per-employee-per-date questions the
// engine asks while filling a week. Implemented by timeoff.Service;
// tests supply an in-memory fake.
type TimeOffChecker interface {
	IsFullDayOff(employeeID uint, date dates.Date) (bool, error)
	PartialWindowFor(employeeID uint, date dates.Date) (*models.TimeOffRequest, error)
}

// Engine turns (template x availability x time off x roster) into the
// week's shift assignments and conflicts. It is a deterministic,
// priority-ordered greedy fill, not a solver: roster order breaks ties
// and every run over the same inputs yields the same output.
type Engine struct {
	Roster       []models.Employee
	Availability map[uint]map[int]models.AvailabilityEntry
	Templates    map[int]models.StaffingTemplate
	TimeOff      TimeOffChecker
	Policy       models.AssignmentPolicy
}

// NewEngine creates an engine over loaded inputs. Availability is
// keyed employee id -> weekday, templates by weekday.
func NewEngine(roster []models.Employee, availability []models.AvailabilityEntry, templates []models.StaffingTemplate, timeOff TimeOffChecker, policy models.AssignmentPolicy) *Engine {
	avail := make(map[uint]map[int]models.AvailabilityEntry)
	for _, a := range availability {
		if avail[a.EmployeeID] == nil {
			avail[a.EmployeeID] = make(map[int]models.AvailabilityEntry)
		}
		avail[a.EmployeeID][a.Weekday] = a
	}
	tmpl := make(map[int]models.StaffingTemplate, len(templates))
	for _, t := range templates {
		tmpl[t.Weekday] = t
	}
	return &Engine{
		Roster:       roster,
		Availability: avail,
		Templates:    tmpl,
		TimeOff:      timeOff,
		Policy:       policy,
	}
}

// statusFor returns the tri-state for an employee on a weekday; no
// entry is AvailabilityUnknown, which matches neither fill tier.
func (e *Engine) statusFor(employeeID uint, weekday int) models.AvailabilityStatus {
	if days, ok := e.Availability[employeeID]; ok {
		if entry, ok := days[weekday]; ok {
			return entry.Status
		}
	}
	return models.AvailabilityUnknown
}

func (e *Engine) partialStatusFor(employeeID uint, weekday int) models.AvailabilityStatus {
	if days, ok := e.Availability[employeeID]; ok {
		if entry, ok := days[weekday]; ok {
			return entry.PartialStatus
		}
	}
	return models.AvailabilityUnknown
}

// shiftSpan resolves the hours an assignment covers: template hours
// (policy defaults when blank), narrowed by the employee's optional
// earliest-start/latest-end bounds.
func (e *Engine) shiftSpan(t models.StaffingTemplate, employeeID uint, weekday int) (string, string) {
	start := t.OpenTime
	if start == "" {
		start = e.Policy.DefaultOpen
	}
	end := t.CloseTime
	if end == "" {
		end = e.Policy.DefaultClose
	}

	if days, ok := e.Availability[employeeID]; ok {
		if entry, ok := days[weekday]; ok {
			if entry.EarliestStart != "" && clockAfter(entry.EarliestStart, start) {
				start = entry.EarliestStart
			}
			if entry.LatestEnd != "" && clockAfter(end, entry.LatestEnd) {
				end = entry.LatestEnd
			}
		}
	}
	return start, end
}

func clockAfter(a, b string) bool {
	am, errA := dates.ParseClock(a)
	bm, errB := dates.ParseClock(b)
	if errA != nil || errB != nil {
		return false
	}
	return am > bm
}

// priorityIndex orders non-manager candidates; roles earlier in the
// policy list fill first, unlisted roles last.
func (e *Engine) priorityIndex(role models.Role) int {
	for i, r := range e.Policy.RolePriority {
		if r == role {
			return i
		}
	}
	return len(e.Policy.RolePriority)
}

func displayName(emp models.Employee) string {
	if emp.DisplayName != "" {
		return emp.DisplayName
	}
	return emp.FullName
}

// GenerateWeek computes the seven days starting at weekStart. Each day
// is independent; days with no active template contribute nothing.
// Conflicts are output, never errors — an error return means a store
// call failed, and the week result is unusable.
func (e *Engine) GenerateWeek(weekStart dates.Date) (*models.WeekResult, error) {
	result := &models.WeekResult{
		WeekStart:   weekStart,
		Assignments: []models.ShiftAssignment{},
		Conflicts:   []models.ConflictRecord{},
		Generated:   true,
	}

	for offset := 0; offset < 7; offset++ {
		date := weekStart.AddDays(offset)
		assignments, conflicts, err := e.generateDay(weekStart, date)
		if err != nil {
			return nil, err
		}
		result.Assignments = append(result.Assignments, assignments...)
		result.Conflicts = append(result.Conflicts, conflicts...)
	}
	return result, nil
}

func (e *Engine) generateDay(weekStart, date dates.Date) ([]models.ShiftAssignment, []models.ConflictRecord, error) {
	weekday := date.Weekday()
	tmpl, ok := e.Templates[weekday]
	if !ok || !tmpl.Active {
		return nil, nil, nil
	}

	// Pool: everyone on the active roster without a full day off.
	var managers, others []models.Employee
	for _, emp := range e.Roster {
		if !emp.Active {
			continue
		}
		off, err := e.TimeOff.IsFullDayOff(emp.ID, date)
		if err != nil {
			return nil, nil, err
		}
		if off {
			continue
		}
		if emp.Role == models.RoleManager {
			managers = append(managers, emp)
		} else {
			others = append(others, emp)
		}
	}

	var assignments []models.ShiftAssignment
	var conflicts []models.ConflictRecord
	assigned := make(map[uint]bool)

	// Manager fill: GREEN managers in roster order.
	managersPlaced := 0
	for _, emp := range managers {
		if managersPlaced == tmpl.RequiredManagers {
			break
		}
		if e.statusFor(emp.ID, weekday) != models.AvailabilityGreen {
			continue
		}
		assignments = append(assignments, e.newAssignment(weekStart, date, tmpl, emp, "manager"))
		assigned[emp.ID] = true
		managersPlaced++
	}
	if managersPlaced < tmpl.RequiredManagers {
		conflicts = append(conflicts, models.ConflictRecord{
			WeekStart: weekStart,
			Date:      date,
			Type:      models.ConflictManagerShortage,
			Severity:  SeverityFor(models.ConflictManagerShortage),
			Message:   fmt.Sprintf("%d manager(s) required, %d available", tmpl.RequiredManagers, managersPlaced),
		})
	}

	// Full-staff fill: GREEN candidates by role priority, stable
	// within a priority tier by roster order. Managers the manager
	// fill did not take remain candidates, after every non-manager.
	ordered := make([]models.Employee, len(others))
	copy(ordered, others)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && e.priorityIndex(ordered[j].Role) < e.priorityIndex(ordered[j-1].Role); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	candidates := append(ordered, managers...)

	staffPlaced := 0
	for _, emp := range candidates {
		if staffPlaced == tmpl.RequiredStaff {
			break
		}
		if assigned[emp.ID] || e.statusFor(emp.ID, weekday) != models.AvailabilityGreen {
			continue
		}
		assignments = append(assignments, e.newAssignment(weekStart, date, tmpl, emp, string(emp.Role)))
		assigned[emp.ID] = true
		staffPlaced++
	}

	// YELLOW fallback for the remainder, each one reported.
	for _, emp := range candidates {
		if staffPlaced == tmpl.RequiredStaff {
			break
		}
		if assigned[emp.ID] || e.statusFor(emp.ID, weekday) != models.AvailabilityYellow {
			continue
		}
		assignments = append(assignments, e.newAssignment(weekStart, date, tmpl, emp, string(emp.Role)))
		assigned[emp.ID] = true
		staffPlaced++
		conflicts = append(conflicts, models.ConflictRecord{
			WeekStart:  weekStart,
			Date:       date,
			Type:       models.ConflictYellowAssignment,
			Severity:   SeverityFor(models.ConflictYellowAssignment),
			EmployeeID: emp.ID,
			Message:    fmt.Sprintf("%s assigned on a limited-availability day", displayName(emp)),
		})
	}
	if staffPlaced < tmpl.RequiredStaff {
		conflicts = append(conflicts, models.ConflictRecord{
			WeekStart: weekStart,
			Date:      date,
			Type:      models.ConflictStaffShortage,
			Severity:  SeverityFor(models.ConflictStaffShortage),
			Message:   fmt.Sprintf("%d staff required, %d available", tmpl.RequiredStaff, staffPlaced),
		})
	}

	// Partial fill: GREEN partial availability only, no YELLOW
	// fallback.
	if tmpl.RequiredPartial > 0 {
		partialPlaced := 0
		for _, emp := range candidates {
			if partialPlaced == tmpl.RequiredPartial {
				break
			}
			if assigned[emp.ID] || e.partialStatusFor(emp.ID, weekday) != models.AvailabilityGreen {
				continue
			}
			assignments = append(assignments, e.newAssignment(weekStart, date, tmpl, emp, "partial"))
			assigned[emp.ID] = true
			partialPlaced++
		}
		if partialPlaced < tmpl.RequiredPartial {
			conflicts = append(conflicts, models.ConflictRecord{
				WeekStart: weekStart,
				Date:      date,
				Type:      models.ConflictPartialStaffShortage,
				Severity:  SeverityFor(models.ConflictPartialStaffShortage),
				Message:   fmt.Sprintf("%d partial-shift staff required, %d available", tmpl.RequiredPartial, partialPlaced),
			})
		}
	}

	// Annotate: partial windows for display, plus the full-day
	// re-check. The pool already removed full-day-off employees, so a
	// true value here is an engine bug, not a schedule conflict.
	for i := range assignments {
		window, err := e.TimeOff.PartialWindowFor(assignments[i].EmployeeID, date)
		if err != nil {
			return nil, nil, err
		}
		assignments[i].PartialTimeOff = window

		off, err := e.TimeOff.IsFullDayOff(assignments[i].EmployeeID, date)
		if err != nil {
			return nil, nil, err
		}
		assignments[i].FullDayConflict = off
	}

	return assignments, conflicts, nil
}

func (e *Engine) newAssignment(weekStart, date dates.Date, tmpl models.StaffingTemplate, emp models.Employee, position string) models.ShiftAssignment {
	start, end := e.shiftSpan(tmpl, emp.ID, date.Weekday())
	return models.ShiftAssignment{
		WeekStart:  weekStart,
		Date:       date,
		EmployeeID: emp.ID,
		StartTime:  start,
		EndTime:    end,
		Position:   position,
		Source:     models.SourceBaseTemplate,
	}
}
