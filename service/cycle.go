package service

import (
	"time"

	"github.com/DEFRA/water-abstraction-ui-sub001/model"
)

// ReturnCycle is one standard annual return-reporting cycle. Summer cycles
// run 1 November to 31 October; winter/all-year cycles run 1 April to
// 31 March.
type ReturnCycle struct {
	Start    model.Date
	End      model.Date
	IsSummer bool
}

// CurrentCycle returns the cycle that most recently ended on or before the
// reference date. Operators upload returns for the cycle that has just
// closed, so the cycle boundary nearest in the past wins.
func CurrentCycle(ref time.Time) ReturnCycle {
	summerEnd := mostRecent(ref, time.October, 31)
	winterEnd := mostRecent(ref, time.March, 31)

	end := winterEnd
	isSummer := false
	if summerEnd.After(winterEnd) {
		end = summerEnd
		isSummer = true
	}

	return ReturnCycle{
		Start:    model.Date{Time: end.AddDate(-1, 0, 1)},
		End:      model.Date{Time: end},
		IsSummer: isSummer,
	}
}

// mostRecent returns the latest occurrence of the given month/day on or
// before ref.
func mostRecent(ref time.Time, month time.Month, day int) time.Time {
	candidate := time.Date(ref.Year(), month, day, 0, 0, 0, 0, time.UTC)
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	if candidate.After(refDay) {
		candidate = candidate.AddDate(-1, 0, 0)
	}
	return candidate
}

// RequiredLines generates the reporting lines a return at the given frequency
// must cover between start and end inclusive. Weekly lines are Sunday to
// Saturday weeks fully inside the period; monthly lines are whole calendar
// months.
func RequiredLines(start, end model.Date, frequency string) []model.ReturnLine {
	var lines []model.ReturnLine

	switch frequency {
	case model.FrequencyDay:
		for d := start; !d.After(end); d = d.AddDays(1) {
			lines = append(lines, model.ReturnLine{StartDate: d, EndDate: d, TimePeriod: model.FrequencyDay})
		}

	case model.FrequencyWeek:
		// Advance to the first Sunday on or after the period start.
		weekStart := start
		for weekStart.Weekday() != time.Sunday {
			weekStart = weekStart.AddDays(1)
		}
		for !weekStart.AddDays(6).After(end) {
			lines = append(lines, model.ReturnLine{
				StartDate:  weekStart,
				EndDate:    weekStart.AddDays(6),
				TimePeriod: model.FrequencyWeek,
			})
			weekStart = weekStart.AddDays(7)
		}

	case model.FrequencyMonth:
		monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		for {
			monthEnd := monthStart.AddDate(0, 1, -1)
			if monthEnd.After(end.Time) {
				break
			}
			lines = append(lines, model.ReturnLine{
				StartDate:  model.Date{Time: monthStart},
				EndDate:    model.Date{Time: monthEnd},
				TimePeriod: model.FrequencyMonth,
			})
			monthStart = monthStart.AddDate(0, 1, 0)
		}
	}

	return lines
}

// LineLabel renders the human-readable period description used as a CSV row
// heading.
func LineLabel(line model.ReturnLine, frequency string) string {
	switch frequency {
	case model.FrequencyWeek:
		return "Week ending " + line.EndDate.Format("2 January 2006")
	case model.FrequencyMonth:
		return line.EndDate.Format("January 2006")
	default:
		return line.StartDate.Format("2 January 2006")
	}
}
