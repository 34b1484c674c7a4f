package domain

import "time"

// Plan is the contracted subscription. The set is closed: anything else is a
// validation failure, never a default.
type Plan string

const (
	PlanMensual    Plan = "Plan Mensual"
	PlanTrimestral Plan = "Plan Trimestral"
	PlanSemestral  Plan = "Plan Semestral"
	PlanAnual      Plan = "Plan Anual"
)

var planMonths = map[Plan]int{
	PlanMensual:    1,
	PlanTrimestral: 3,
	PlanSemestral:  6,
	PlanAnual:      12,
}

func ParsePlan(s string) (Plan, bool) {
	p := Plan(s)
	_, ok := planMonths[p]
	return p, ok
}

// Months returns the plan duration. Zero for an unknown plan.
func (p Plan) Months() int {
	return planMonths[p]
}

// ComputeExpiration advances the inscription date by the plan's month count
// using calendar arithmetic: the day of month is clamped to the last day of
// the target month, so Jan 31 + 1 month lands on Feb 29 in a leap year
// rather than rolling into March.
func ComputeExpiration(inscription time.Time, plan Plan) (time.Time, error) {
	months, ok := planMonths[plan]
	if !ok {
		return time.Time{}, ErrInvalidPlan
	}
	return addMonthsClamped(inscription, months), nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	anchor := time.Date(year, month, 1, hour, min, sec, t.Nanosecond(), t.Location())
	anchor = anchor.AddDate(0, months, 0)

	if last := daysInMonth(anchor.Year(), anchor.Month()); day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Status is derived from expiration vs a point in time, never stored as
// authoritative truth on its own.
type Status string

const (
	StatusActivo   Status = "activo"
	StatusInactivo Status = "inactivo"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActivo, StatusInactivo:
		return Status(s), true
	default:
		return "", false
	}
}

// DeriveStatus reports activo iff the expiration is strictly in the future.
// An expiration equal to now is already expired.
func DeriveStatus(expiration, now time.Time) Status {
	if expiration.After(now) {
		return StatusActivo
	}
	return StatusInactivo
}
