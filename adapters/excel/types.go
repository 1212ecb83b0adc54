package excel

import "strings"

// RawRowData represents a row of raw sheet data as header -> cell text
type RawRowData map[string]string

// ExcelData represents the complete sheet
type ExcelData struct {
	Headers    []string     // Column headers, lower-cased and trimmed
	Rows       []RawRowData // Data rows, blank rows dropped
	RowNumbers []int        // 1-based sheet row of each entry in Rows
}

// Get returns the trimmed cell for header, or "" when absent
func (r RawRowData) Get(header string) string {
	return strings.TrimSpace(r[strings.ToLower(header)])
}

// Batch sheet columns
const (
	ColumnName          = "name"
	ColumnTestType      = "test_type"
	ColumnTail          = "tail"
	ColumnTestValue     = "test_value"
	ColumnControlValue  = "control_value"
	ColumnNTest         = "n_test"
	ColumnNControl      = "n_control"
	ColumnStdTest       = "std_test"
	ColumnStdControl    = "std_control"
	ColumnConfidence    = "confidence"
	ColumnPooled        = "pooled"
	ColumnOneTailedMode = "one_tailed_mode"
)

// requiredColumns must appear in the header row
var requiredColumns = []string{
	ColumnTestType, ColumnTestValue, ColumnControlValue, ColumnNTest, ColumnNControl,
}

// resultColumns are appended by the result writer
var resultColumns = []string{"z_score", "p_value", "significant", "error"}
