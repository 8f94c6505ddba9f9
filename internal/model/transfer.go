package model

import (
	"fmt"
	"strings"
	"time"
)

// Transfer defaults.
const (
	// DefaultCellCeiling keeps a single values.update well below the Sheets
	// API request payload limit.
	DefaultCellCeiling = 80_000
	// DefaultMaxRetries is the number of attempts made for each API call.
	DefaultMaxRetries = 8
)

// WipeMode controls whether destination tabs are cleared before writing.
type WipeMode string

// Wipe modes.
const (
	WipeNone WipeMode = "none"
	WipeAll  WipeMode = "all"
)

// ParseWipeMode converts user input into a WipeMode. Empty input means none.
func ParseWipeMode(s string) (WipeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return WipeNone, nil
	case "all":
		return WipeAll, nil
	default:
		return "", fmt.Errorf("unknown wipe mode %q (want none or all)", s)
	}
}

// ValueInputOption controls how the Sheets API interprets written values.
type ValueInputOption string

// Value input options understood by the Sheets API.
const (
	ValueInputRaw         ValueInputOption = "RAW"
	ValueInputUserEntered ValueInputOption = "USER_ENTERED"
)

// ParseValueInputOption accepts RAW or USER_ENTERED in any case, with - or _.
// Empty input means RAW.
func ParseValueInputOption(s string) (ValueInputOption, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch normalized {
	case "", string(ValueInputRaw):
		return ValueInputRaw, nil
	case string(ValueInputUserEntered):
		return ValueInputUserEntered, nil
	default:
		return "", fmt.Errorf("unknown value input option %q (want RAW or USER_ENTERED)", s)
	}
}

// TransferRequest describes one copy from a Drive workbook into a spreadsheet.
type TransferRequest struct {
	SourceFileID             string           `json:"source_file_id"`
	DestinationSpreadsheetID string           `json:"destination_spreadsheet_id,omitempty"`
	DestinationFolderID      string           `json:"destination_folder_id,omitempty"`
	NewSpreadsheetName       string           `json:"new_spreadsheet_name,omitempty"`
	WipeMode                 WipeMode         `json:"wipe_mode,omitempty"`
	ValueInputOption         ValueInputOption `json:"value_input_option,omitempty"`
	SelectedTabs             []string         `json:"selected_tabs"`
	CellCeiling              int              `json:"cell_ceiling,omitempty"`
	MaxRetries               int              `json:"max_retries,omitempty"`
	MaxRowsPerBatch          int              `json:"max_rows_per_batch,omitempty"`
}

// WithDefaults fills every unset field of r from defaults and returns the result.
func (r TransferRequest) WithDefaults(defaults TransferRequest) TransferRequest {
	if r.SourceFileID == "" {
		r.SourceFileID = defaults.SourceFileID
	}
	if r.DestinationSpreadsheetID == "" {
		r.DestinationSpreadsheetID = defaults.DestinationSpreadsheetID
	}
	if r.DestinationFolderID == "" {
		r.DestinationFolderID = defaults.DestinationFolderID
	}
	if r.NewSpreadsheetName == "" {
		r.NewSpreadsheetName = defaults.NewSpreadsheetName
	}
	if len(r.SelectedTabs) == 0 {
		r.SelectedTabs = append([]string(nil), defaults.SelectedTabs...)
	}
	if r.WipeMode == "" {
		r.WipeMode = defaults.WipeMode
	}
	if r.ValueInputOption == "" {
		r.ValueInputOption = defaults.ValueInputOption
	}
	if r.CellCeiling == 0 {
		r.CellCeiling = defaults.CellCeiling
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = defaults.MaxRetries
	}
	if r.MaxRowsPerBatch == 0 {
		r.MaxRowsPerBatch = defaults.MaxRowsPerBatch
	}
	return r
}

// Normalize canonicalizes enum spellings and applies built-in defaults.
func (r TransferRequest) Normalize() (TransferRequest, error) {
	wipe, err := ParseWipeMode(string(r.WipeMode))
	if err != nil {
		return r, err
	}
	r.WipeMode = wipe

	option, err := ParseValueInputOption(string(r.ValueInputOption))
	if err != nil {
		return r, err
	}
	r.ValueInputOption = option

	if r.CellCeiling == 0 {
		r.CellCeiling = DefaultCellCeiling
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = DefaultMaxRetries
	}

	r.SourceFileID = strings.TrimSpace(r.SourceFileID)
	r.DestinationSpreadsheetID = strings.TrimSpace(r.DestinationSpreadsheetID)
	r.DestinationFolderID = strings.TrimSpace(r.DestinationFolderID)

	return r, nil
}

// Validate checks a normalized request.
func (r TransferRequest) Validate() error {
	if r.SourceFileID == "" {
		return fmt.Errorf("source_file_id is required")
	}
	if len(r.SelectedTabs) == 0 {
		return fmt.Errorf("selected_tabs must name at least one tab")
	}

	seen := make(map[string]bool, len(r.SelectedTabs))
	for _, tab := range r.SelectedTabs {
		if tab == "" {
			return fmt.Errorf("selected_tabs contains an empty name")
		}
		if seen[tab] {
			return fmt.Errorf("tab %q selected more than once", tab)
		}
		seen[tab] = true
	}

	if r.WipeMode != WipeNone && r.WipeMode != WipeAll {
		return fmt.Errorf("unknown wipe mode %q", r.WipeMode)
	}
	if r.ValueInputOption != ValueInputRaw && r.ValueInputOption != ValueInputUserEntered {
		return fmt.Errorf("unknown value input option %q", r.ValueInputOption)
	}
	if r.CellCeiling <= 0 {
		return fmt.Errorf("cell_ceiling must be positive")
	}
	if r.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive")
	}
	if r.MaxRowsPerBatch < 0 {
		return fmt.Errorf("max_rows_per_batch cannot be negative")
	}

	return nil
}

// TabResult reports what was written for one tab.
type TabResult struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Batches int    `json:"batches"`
	Cleared bool   `json:"cleared"`
}

// TransferResult summarizes a completed transfer.
type TransferResult struct {
	SpreadsheetID  string        `json:"spreadsheet_id"`
	SpreadsheetURL string        `json:"spreadsheet_url"`
	SourceName     string        `json:"source_name,omitempty"`
	Tabs           []TabResult   `json:"tabs"`
	Duration       time.Duration `json:"duration_ns"`
	Created        bool          `json:"created"`
}

// SpreadsheetURL returns the browser link for a spreadsheet id.
func SpreadsheetURL(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id
}
