package service

import (
	"fmt"
	"net/url"

	"github.com/DEFRA/water-abstraction-ui-sub001/model"
)

// ReviewReturn is a parsed return record shaped for the operator review page.
// Path is only set for records with no validation errors; an erroring record
// cannot be drilled into for line-level review.
type ReviewReturn struct {
	model.ParsedReturnRecord
	ReturnRequirement string
	Path              string
}

// GroupedReturns partitions a validated batch for operator review.
type GroupedReturns struct {
	ReturnsWithErrors    []ReviewReturn
	ReturnsWithoutErrors []ReviewReturn
}

// GroupReturns partitions parsed return records into "with errors" and
// "without errors" groups. The partition is computed solely from whether a
// record carries validation errors.
func GroupReturns(records []model.ParsedReturnRecord, eventID string) GroupedReturns {
	var grouped GroupedReturns

	for _, record := range records {
		review := ReviewReturn{
			ParsedReturnRecord: record,
			ReturnRequirement:  record.ReturnRequirement(),
		}

		if record.HasErrors() {
			grouped.ReturnsWithErrors = append(grouped.ReturnsWithErrors, review)
		} else {
			review.Path = fmt.Sprintf("/returns/upload-summary/%s/%s", eventID, url.PathEscape(record.ReturnID))
			grouped.ReturnsWithoutErrors = append(grouped.ReturnsWithoutErrors, review)
		}
	}

	return grouped
}

// LineGroup is a display grouping of return lines.
type LineGroup struct {
	Title string
	Lines []model.ReturnLine
}

// GroupLines shapes a record's line items for display. Non-daily returns get
// a single group holding all lines. Daily returns are grouped by the calendar
// month of each line's start date, one group per month, in first-seen order.
func GroupLines(record model.ParsedReturnRecord) []LineGroup {
	if record.Frequency != model.FrequencyDay {
		return []LineGroup{{Lines: record.Lines}}
	}

	var groups []LineGroup
	index := make(map[string]int)

	for _, line := range record.Lines {
		title := line.StartDate.Format("January 2006")
		i, seen := index[title]
		if !seen {
			i = len(groups)
			index[title] = i
			groups = append(groups, LineGroup{Title: title})
		}
		groups[i].Lines = append(groups[i].Lines, line)
	}

	return groups
}
