package scheduler

import (
	"reflect"
	"strings"
	"testing"

	"github.com/shopops/roster-api-go/pkg/dates"
	"github.com/shopops/roster-api-go/pkg/models"
)

// weekStart is a Sunday; Monday of this week is 2024-01-08.
var weekStart = dates.Date{Year: 2024, Month: 1, Day: 7}
var monday = dates.Date{Year: 2024, Month: 1, Day: 8}

type fakeTimeOff struct {
	fullDays map[string]bool
	partial  map[string]*models.TimeOffRequest
}

func key(employeeID uint, date dates.Date) string {
	return date.String() + "#" + string(rune('0'+employeeID))
}

func (f *fakeTimeOff) IsFullDayOff(employeeID uint, date dates.Date) (bool, error) {
	return f.fullDays[key(employeeID, date)], nil
}

func (f *fakeTimeOff) PartialWindowFor(employeeID uint, date dates.Date) (*models.TimeOffRequest, error) {
	return f.partial[key(employeeID, date)], nil
}

func emptyTimeOff() *fakeTimeOff {
	return &fakeTimeOff{
		fullDays: map[string]bool{},
		partial:  map[string]*models.TimeOffRequest{},
	}
}

func green(employeeID uint, weekday int) models.AvailabilityEntry {
	return models.AvailabilityEntry{EmployeeID: employeeID, Weekday: weekday, Status: models.AvailabilityGreen}
}

func mondayTemplate(managers, staff int) models.StaffingTemplate {
	return models.StaffingTemplate{
		Weekday:          1,
		OpenTime:         "09:00",
		CloseTime:        "17:00",
		RequiredManagers: managers,
		RequiredStaff:    staff,
		Active:           true,
	}
}

func emp(id uint, name string, role models.Role) models.Employee {
	return models.Employee{ID: id, FullName: name, Role: role, Active: true}
}

func conflictsOfType(conflicts []models.ConflictRecord, t models.ConflictType) []models.ConflictRecord {
	var out []models.ConflictRecord
	for _, c := range conflicts {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func TestGenerateWeek_FullyStaffedMonday(t *testing.T) {
	roster := []models.Employee{
		emp(1, "Morgan", models.RoleManager),
		emp(2, "Avery", models.RoleStaff),
		emp(3, "Blake", models.RoleStaff),
	}
	availability := []models.AvailabilityEntry{
		green(1, 1), green(2, 1), green(3, 1),
	}
	e := NewEngine(roster, availability, []models.StaffingTemplate{mondayTemplate(1, 2)}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	if len(result.Assignments) != 3 {
		t.Errorf("Expected 3 assignments, got %d", len(result.Assignments))
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Expected no conflicts, got %v", result.Conflicts)
	}
	for _, a := range result.Assignments {
		if a.Date != monday {
			t.Errorf("Assignment on %s, only Monday has a template", a.Date)
		}
		if a.StartTime != "09:00" || a.EndTime != "17:00" {
			t.Errorf("Shift should span open/close, got %s-%s", a.StartTime, a.EndTime)
		}
		if a.Source != models.SourceBaseTemplate {
			t.Errorf("Generated shift should come from the base template, got %s", a.Source)
		}
		if a.FullDayConflict {
			t.Errorf("Unexpected full day conflict for employee %d", a.EmployeeID)
		}
	}
}

func TestGenerateWeek_YellowFallback(t *testing.T) {
	// 1 GREEN manager, 3 GREEN staff, 1 YELLOW staff, 1 RED staff;
	// template requires 1 manager + 4 staff.
	roster := []models.Employee{
		emp(1, "Morgan", models.RoleManager),
		emp(2, "Avery", models.RoleStaff),
		emp(3, "Blake", models.RoleStaff),
		emp(4, "Casey", models.RoleStaff),
		emp(5, "Drew", models.RoleStaff),
		emp(6, "Ellis", models.RoleStaff),
	}
	availability := []models.AvailabilityEntry{
		green(1, 1), green(2, 1), green(3, 1), green(4, 1),
		{EmployeeID: 5, Weekday: 1, Status: models.AvailabilityYellow},
		{EmployeeID: 6, Weekday: 1, Status: models.AvailabilityRed},
	}
	e := NewEngine(roster, availability, []models.StaffingTemplate{mondayTemplate(1, 4)}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	if len(result.Assignments) != 5 {
		t.Fatalf("Expected 1 manager + 4 staff assigned, got %d", len(result.Assignments))
	}

	yellow := conflictsOfType(result.Conflicts, models.ConflictYellowAssignment)
	if len(yellow) != 1 {
		t.Fatalf("Expected exactly one YELLOW_ASSIGNMENT, got %d", len(yellow))
	}
	if yellow[0].EmployeeID != 5 {
		t.Errorf("YELLOW_ASSIGNMENT should name employee 5, got %d", yellow[0].EmployeeID)
	}
	if yellow[0].Severity != models.SeverityMedium {
		t.Errorf("YELLOW_ASSIGNMENT severity should be MEDIUM, got %s", yellow[0].Severity)
	}
	if len(conflictsOfType(result.Conflicts, models.ConflictStaffShortage)) != 0 {
		t.Errorf("Expected no staff shortage, got %v", result.Conflicts)
	}
	for _, a := range result.Assignments {
		if a.EmployeeID == 6 {
			t.Errorf("RED employee 6 must not be assigned")
		}
	}
}

func TestGenerateWeek_StaffShortage(t *testing.T) {
	roster := []models.Employee{
		emp(1, "Morgan", models.RoleManager),
		emp(2, "Avery", models.RoleStaff),
		emp(3, "Blake", models.RoleStaff),
	}
	availability := []models.AvailabilityEntry{
		green(1, 1), green(2, 1),
		{EmployeeID: 3, Weekday: 1, Status: models.AvailabilityYellow},
	}
	e := NewEngine(roster, availability, []models.StaffingTemplate{mondayTemplate(1, 4)}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}

	staffAssigned := 0
	for _, a := range result.Assignments {
		if a.Position != "manager" {
			staffAssigned++
		}
	}
	if staffAssigned != 2 {
		t.Errorf("Expected 2 staff assigned, got %d", staffAssigned)
	}

	shortages := conflictsOfType(result.Conflicts, models.ConflictStaffShortage)
	if len(shortages) != 1 {
		t.Fatalf("Expected one STAFF_SHORTAGE, got %d", len(shortages))
	}
	if shortages[0].Severity != models.SeverityHigh {
		t.Errorf("STAFF_SHORTAGE severity should be HIGH, got %s", shortages[0].Severity)
	}
	if !strings.Contains(shortages[0].Message, "4 staff required") || !strings.Contains(shortages[0].Message, "2 available") {
		t.Errorf("Shortage message should state required=4 available=2, got %q", shortages[0].Message)
	}
}

func TestGenerateWeek_ManagerShortage_EmptyRoster(t *testing.T) {
	// A day with a template but no managers at all reports available=0
	// rather than crashing.
	roster := []models.Employee{emp(2, "Avery", models.RoleStaff)}
	availability := []models.AvailabilityEntry{green(2, 1)}
	e := NewEngine(roster, availability, []models.StaffingTemplate{mondayTemplate(1, 1)}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	shortages := conflictsOfType(result.Conflicts, models.ConflictManagerShortage)
	if len(shortages) != 1 {
		t.Fatalf("Expected one MANAGER_SHORTAGE, got %d", len(shortages))
	}
	if !strings.Contains(shortages[0].Message, "0 available") {
		t.Errorf("Expected available=0 in message, got %q", shortages[0].Message)
	}
}

func TestGenerateWeek_FullDayOffExcluded(t *testing.T) {
	roster := []models.Employee{
		emp(1, "Morgan", models.RoleManager),
		emp(2, "Avery", models.RoleStaff),
	}
	availability := []models.AvailabilityEntry{green(1, 1), green(2, 1)}
	timeOff := emptyTimeOff()
	timeOff.fullDays[key(2, monday)] = true

	e := NewEngine(roster, availability, []models.StaffingTemplate{mondayTemplate(1, 1)}, timeOff, models.DefaultPolicy())
	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	for _, a := range result.Assignments {
		if a.EmployeeID == 2 {
			t.Errorf("Employee 2 has a full day off on Monday and must not be assigned")
		}
	}
	if len(conflictsOfType(result.Conflicts, models.ConflictStaffShortage)) != 1 {
		t.Errorf("Removing the only staff member should raise a staff shortage")
	}
}

func TestGenerateWeek_PartialTimeOffAnnotates(t *testing.T) {
	roster := []models.Employee{emp(2, "Avery", models.RoleStaff)}
	availability := []models.AvailabilityEntry{green(2, 1)}
	window := &models.TimeOffRequest{
		EmployeeID: 2,
		StartDate:  monday,
		EndDate:    monday,
		Type:       models.TimeOffPartialDay,
		StartTime:  "14:00",
		EndTime:    "18:00",
	}
	timeOff := emptyTimeOff()
	timeOff.partial[key(2, monday)] = window

	e := NewEngine(roster, availability, []models.StaffingTemplate{mondayTemplate(0, 1)}, timeOff, models.DefaultPolicy())
	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	if len(result.Assignments) != 1 {
		t.Fatalf("Partial time off must not block assignment, got %d assignments", len(result.Assignments))
	}
	a := result.Assignments[0]
	if a.PartialTimeOff == nil || a.PartialTimeOff.StartTime != "14:00" || a.PartialTimeOff.EndTime != "18:00" {
		t.Errorf("Expected partial window 14:00-18:00 annotation, got %+v", a.PartialTimeOff)
	}
	if a.FullDayConflict {
		t.Errorf("Partial window must not set full_day_conflict")
	}
}

func TestGenerateWeek_RolePriorityOrdering(t *testing.T) {
	// Techs fill before generic staff under the default policy.
	roster := []models.Employee{
		emp(2, "Avery", models.RoleStaff),
		emp(3, "Blake", models.RoleTech),
	}
	availability := []models.AvailabilityEntry{green(2, 1), green(3, 1)}
	e := NewEngine(roster, availability, []models.StaffingTemplate{mondayTemplate(0, 1)}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	if len(result.Assignments) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(result.Assignments))
	}
	if result.Assignments[0].EmployeeID != 3 {
		t.Errorf("Tech should be taken before generic staff, got employee %d", result.Assignments[0].EmployeeID)
	}
}

func TestGenerateWeek_UnknownAvailabilityExcluded(t *testing.T) {
	// No availability entry means unknown: matched by neither the
	// GREEN fill nor the YELLOW fallback.
	roster := []models.Employee{emp(2, "Avery", models.RoleStaff)}
	e := NewEngine(roster, nil, []models.StaffingTemplate{mondayTemplate(0, 1)}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	if len(result.Assignments) != 0 {
		t.Errorf("Unknown availability must not be auto-assigned, got %d assignments", len(result.Assignments))
	}
	if len(conflictsOfType(result.Conflicts, models.ConflictStaffShortage)) != 1 {
		t.Errorf("Expected a staff shortage when nobody is assignable")
	}
}

func TestGenerateWeek_PartialFill(t *testing.T) {
	roster := []models.Employee{
		emp(2, "Avery", models.RoleStaff),
		emp(3, "Blake", models.RoleStaff),
	}
	availability := []models.AvailabilityEntry{
		green(2, 1),
		{EmployeeID: 3, Weekday: 1, Status: models.AvailabilityYellow, PartialStatus: models.AvailabilityGreen},
	}
	tmpl := mondayTemplate(0, 1)
	tmpl.RequiredPartial = 2
	e := NewEngine(roster, availability, []models.StaffingTemplate{tmpl}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	// Avery takes the staff slot; Blake has GREEN partial status and
	// takes one partial slot; the second partial slot is short, with
	// no YELLOW fallback applied there.
	partialCount := 0
	for _, a := range result.Assignments {
		if a.Position == "partial" {
			partialCount++
			if a.EmployeeID != 3 {
				t.Errorf("Partial slot should go to employee 3, got %d", a.EmployeeID)
			}
		}
	}
	if partialCount != 1 {
		t.Errorf("Expected 1 partial assignment, got %d", partialCount)
	}
	shortages := conflictsOfType(result.Conflicts, models.ConflictPartialStaffShortage)
	if len(shortages) != 1 {
		t.Fatalf("Expected one PARTIAL_STAFF_SHORTAGE, got %d", len(shortages))
	}
	if shortages[0].Severity != models.SeverityMedium {
		t.Errorf("PARTIAL_STAFF_SHORTAGE severity should be MEDIUM, got %s", shortages[0].Severity)
	}
}

func TestGenerateWeek_SurplusManagerFillsPartialSlot(t *testing.T) {
	// Two GREEN managers, one manager slot: the manager the manager
	// fill does not take stays in the pool and covers the partial slot.
	roster := []models.Employee{
		emp(1, "Morgan", models.RoleManager),
		emp(2, "Riley", models.RoleManager),
	}
	availability := []models.AvailabilityEntry{
		green(1, 1),
		{EmployeeID: 2, Weekday: 1, Status: models.AvailabilityGreen, PartialStatus: models.AvailabilityGreen},
	}
	tmpl := mondayTemplate(1, 0)
	tmpl.RequiredPartial = 1
	e := NewEngine(roster, availability, []models.StaffingTemplate{tmpl}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	partialCount := 0
	for _, a := range result.Assignments {
		if a.Position == "partial" {
			partialCount++
			if a.EmployeeID != 2 {
				t.Errorf("Partial slot should go to employee 2, got %d", a.EmployeeID)
			}
		}
	}
	if partialCount != 1 {
		t.Errorf("Expected 1 partial assignment, got %d", partialCount)
	}
	if got := conflictsOfType(result.Conflicts, models.ConflictPartialStaffShortage); len(got) != 0 {
		t.Errorf("Surplus manager covers the partial slot, got %v", got)
	}
}

func TestGenerateWeek_SurplusManagerFillsStaffSlot(t *testing.T) {
	// One manager slot, two staff slots, only one staff member: the
	// leftover GREEN manager fills the second staff slot, after every
	// non-manager.
	roster := []models.Employee{
		emp(1, "Morgan", models.RoleManager),
		emp(2, "Riley", models.RoleManager),
		emp(3, "Avery", models.RoleStaff),
	}
	availability := []models.AvailabilityEntry{
		green(1, 1), green(2, 1), green(3, 1),
	}
	e := NewEngine(roster, availability, []models.StaffingTemplate{mondayTemplate(1, 2)}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	if len(result.Assignments) != 3 {
		t.Fatalf("Expected 3 assignments, got %d", len(result.Assignments))
	}
	if got := conflictsOfType(result.Conflicts, models.ConflictStaffShortage); len(got) != 0 {
		t.Errorf("Surplus manager covers the staff slot, got %v", got)
	}
	// Manager fill takes employee 1; the staff fill then places the
	// staff member before the leftover manager.
	var order []uint
	for _, a := range result.Assignments {
		order = append(order, a.EmployeeID)
	}
	if !reflect.DeepEqual(order, []uint{1, 3, 2}) {
		t.Errorf("Expected fill order [1 3 2], got %v", order)
	}
}

func TestGenerateWeek_AssignedAtMostOncePerDay(t *testing.T) {
	roster := []models.Employee{
		emp(1, "Morgan", models.RoleManager),
		emp(2, "Avery", models.RoleStaff),
	}
	availability := []models.AvailabilityEntry{
		{EmployeeID: 1, Weekday: 1, Status: models.AvailabilityGreen, PartialStatus: models.AvailabilityGreen},
		{EmployeeID: 2, Weekday: 1, Status: models.AvailabilityGreen, PartialStatus: models.AvailabilityGreen},
	}
	tmpl := mondayTemplate(1, 2)
	tmpl.RequiredPartial = 1
	e := NewEngine(roster, availability, []models.StaffingTemplate{tmpl}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	seen := map[uint]int{}
	for _, a := range result.Assignments {
		seen[a.EmployeeID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("Employee %d assigned %d times on one day", id, n)
		}
	}
}

func TestGenerateWeek_Deterministic(t *testing.T) {
	roster := []models.Employee{
		emp(1, "Morgan", models.RoleManager),
		emp(2, "Avery", models.RoleStaff),
		emp(3, "Blake", models.RoleTech),
		emp(4, "Casey", models.RoleStaff),
	}
	availability := []models.AvailabilityEntry{
		green(1, 1), green(2, 1), green(3, 1),
		{EmployeeID: 4, Weekday: 1, Status: models.AvailabilityYellow},
	}
	templates := []models.StaffingTemplate{mondayTemplate(1, 3)}

	first := func() *models.WeekResult {
		e := NewEngine(roster, availability, templates, emptyTimeOff(), models.DefaultPolicy())
		r, err := e.GenerateWeek(weekStart)
		if err != nil {
			t.Fatalf("GenerateWeek returned error: %v", err)
		}
		return r
	}

	a, b := first(), first()
	if !reflect.DeepEqual(a.Assignments, b.Assignments) {
		t.Errorf("Two runs over unchanged inputs produced different assignments")
	}
	if !reflect.DeepEqual(a.Conflicts, b.Conflicts) {
		t.Errorf("Two runs over unchanged inputs produced different conflicts")
	}
}

func TestGenerateWeek_InactiveTemplateSkipsDay(t *testing.T) {
	tmpl := mondayTemplate(1, 2)
	tmpl.Active = false
	roster := []models.Employee{emp(1, "Morgan", models.RoleManager)}
	e := NewEngine(roster, []models.AvailabilityEntry{green(1, 1)}, []models.StaffingTemplate{tmpl}, emptyTimeOff(), models.DefaultPolicy())

	result, err := e.GenerateWeek(weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek returned error: %v", err)
	}
	if len(result.Assignments) != 0 || len(result.Conflicts) != 0 {
		t.Errorf("Inactive template day should produce nothing, got %d assignments, %d conflicts",
			len(result.Assignments), len(result.Conflicts))
	}
}

func TestClassify_RanksBySeverity(t *testing.T) {
	conflicts := []models.ConflictRecord{
		{Type: models.ConflictYellowAssignment, Date: monday},
		{Type: "SOMETHING_NEW", Date: monday},
		{Type: models.ConflictStaffShortage, Date: monday.AddDays(1)},
		{Type: models.ConflictManagerShortage, Date: monday},
		{Type: models.ConflictPartialStaffShortage, Date: monday},
	}

	ranked := Classify(conflicts)

	wantOrder := []models.ConflictType{
		models.ConflictStaffShortage,
		models.ConflictManagerShortage,
		models.ConflictYellowAssignment,
		models.ConflictPartialStaffShortage,
		"SOMETHING_NEW",
	}
	for i, want := range wantOrder {
		if ranked[i].Type != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, ranked[i].Type)
		}
	}
	if ranked[4].Severity != models.SeverityLow {
		t.Errorf("Unknown conflict type should classify LOW, got %s", ranked[4].Severity)
	}
	if conflicts[0].Severity != "" {
		t.Errorf("Classify must not modify its input")
	}
}
