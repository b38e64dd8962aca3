package service

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/DEFRA/water-abstraction-ui-sub001/model"
)

// Cell value for cycle lines outside a specific return's requirement window.
const doNotEdit = "Do not edit"

// Fixed header rows of every template grid, one label per row, in order.
var gridHeaderLabels = []string{
	"Licence number",
	"Return reference",
	"Nil return Y/N",
	"Did you use a meter Y/N",
	"Meter make",
	"Meter serial number",
}

const uniqueReturnLabel = "Unique return reference"

const readmeText = `Returns CSV templates

Each CSV file in this archive covers one reporting frequency (daily, weekly
or monthly). Each column after the first is one of your current due returns.

How to fill in a template:
 - Enter Y or N in the "Nil return" row. For a nil return leave all
   quantities blank.
 - Enter Y or N in the "Did you use a meter" row, and the meter make and
   serial number if you did.
 - Enter your abstraction quantities in cubic metres against each date.
 - Leave cells marked "Do not edit" unchanged. They fall outside the period
   of that return.
 - Do not change the "Unique return reference" row.

When you are done, upload each completed file on the returns upload page.
`

// Human frequency labels used in CSV filenames.
var frequencyLabels = map[string]string{
	model.FrequencyDay:   "daily",
	model.FrequencyWeek:  "weekly",
	model.FrequencyMonth: "monthly",
}

// Frequency order for deterministic archive layout.
var frequencyOrder = []string{model.FrequencyDay, model.FrequencyWeek, model.FrequencyMonth}

// InitialiseGrid builds the fixed header rows of one CSV template, then one
// row per required reporting line in the cycle at the given frequency, and a
// trailing unique-reference row. Each row starts with its label cell; return
// columns are appended with AddColumn.
func InitialiseGrid(frequency string, cycle ReturnCycle) [][]string {
	lines := RequiredLines(cycle.Start, cycle.End, frequency)

	rows := make([][]string, 0, len(gridHeaderLabels)+len(lines)+1)
	for _, label := range gridHeaderLabels {
		rows = append(rows, []string{label})
	}
	for _, line := range lines {
		rows = append(rows, []string{LineLabel(line, frequency)})
	}
	rows = append(rows, []string{uniqueReturnLabel})

	return rows
}

// BuildColumn produces one return's template column against the full cycle
// line list: licence number, return requirement, four blank entry fields, one
// cell per cycle line (blank when the date belongs to this return's own
// requirement window, "Do not edit" otherwise), and the return id last.
func BuildColumn(record model.ParsedReturnRecord, cycleLines []model.ReturnLine) []string {
	column := make([]string, 0, len(cycleLines)+len(gridHeaderLabels)+1)
	column = append(column, record.LicenceNumber, record.ReturnRequirement(), "", "", "", "")

	required := make(map[string]bool)
	for _, line := range RequiredLines(record.StartDate, record.EndDate, record.Frequency) {
		required[lineKey(line)] = true
	}

	for _, line := range cycleLines {
		if required[lineKey(line)] {
			column = append(column, "")
		} else {
			column = append(column, doNotEdit)
		}
	}

	return append(column, record.ReturnID)
}

func lineKey(line model.ReturnLine) string {
	return line.StartDate.String() + "_" + line.EndDate.String()
}

// AddColumn appends a column to a grid. The column length must match the
// grid's row count.
func AddColumn(grid [][]string, column []string) error {
	if len(column) != len(grid) {
		return fmt.Errorf("column has %d cells, grid has %d rows", len(column), len(grid))
	}
	for i := range grid {
		grid[i] = append(grid[i], column[i])
	}
	return nil
}

// CreateCSVData groups due returns by reporting frequency and builds one
// template grid per frequency present, appending one column per return in
// input order.
func CreateCSVData(returns []model.ParsedReturnRecord, cycle ReturnCycle) (map[string][][]string, error) {
	grids := make(map[string][][]string)
	cycleLines := make(map[string][]model.ReturnLine)

	for _, record := range returns {
		freq := record.Frequency
		if _, ok := frequencyLabels[freq]; !ok {
			return nil, fmt.Errorf("return %s has unknown frequency %q", record.ReturnID, freq)
		}

		if _, ok := grids[freq]; !ok {
			grids[freq] = InitialiseGrid(freq, cycle)
			cycleLines[freq] = RequiredLines(cycle.Start, cycle.End, freq)
		}

		column := BuildColumn(record, cycleLines[freq])
		if err := AddColumn(grids[freq], column); err != nil {
			return nil, fmt.Errorf("return %s: %w", record.ReturnID, err)
		}
	}

	return grids, nil
}

// CSVFilename composes the in-archive filename for one frequency's template.
// "return" is pluralised when the grid holds more than one due return.
func CSVFilename(companyName, frequency string, isMultiple bool) string {
	noun := "return"
	if isMultiple {
		noun = "returns"
	}
	return fmt.Sprintf("%s %s %s.csv", strings.ToLower(companyName), frequencyLabels[frequency], noun)
}

// ZipFilename composes the download filename for the whole archive. dueYear
// is the 4-digit year of the first due return's end date.
func ZipFilename(companyName string, dueYear int) string {
	return fmt.Sprintf("%s return templates %d.zip", strings.ToLower(companyName), dueYear)
}

// BuildZip serialises every frequency grid to CSV, bundles them with the
// README, and returns the finished archive bytes.
func BuildZip(csvData map[string][][]string, companyName string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, freq := range frequencyOrder {
		grid, ok := csvData[freq]
		if !ok {
			continue
		}

		// More than one data column after the label column means plural.
		isMultiple := len(grid) > 0 && len(grid[0]) > 2

		entry, err := zw.Create(CSVFilename(companyName, freq, isMultiple))
		if err != nil {
			return nil, fmt.Errorf("failed to add %s template to archive: %w", freq, err)
		}

		writer := csv.NewWriter(entry)
		if err := writer.WriteAll(grid); err != nil {
			return nil, fmt.Errorf("failed to write %s template: %w", freq, err)
		}
	}

	readme, err := zw.Create("readme.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to add readme to archive: %w", err)
	}
	if _, err := readme.Write([]byte(readmeText)); err != nil {
		return nil, fmt.Errorf("failed to write readme: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalise archive: %w", err)
	}

	return buf.Bytes(), nil
}
