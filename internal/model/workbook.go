package model

// Mime types of the files a transfer reads and creates.
const (
	GoogleSheetsMimeType = "application/vnd.google-apps.spreadsheet"
	XLSXMimeType         = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileMetadata describes a file on the source drive.
type FileMetadata struct {
	ID       string
	Name     string
	MimeType string
	Parents  []string
	Size     int64
}

// Sheet holds one tab of a parsed workbook.
type Sheet struct {
	Name    string
	Rows    [][]any
	Columns int
}

// Workbook is an in-memory parsed workbook restricted to the tabs that were asked for.
type Workbook struct {
	sheets map[string]*Sheet
	// Names lists every tab in the source file, in workbook order.
	Names []string
}

// NewWorkbook creates an empty workbook listing the given tab names.
func NewWorkbook(names []string) *Workbook {
	return &Workbook{
		Names:  names,
		sheets: make(map[string]*Sheet),
	}
}

// Add stores a parsed sheet.
func (w *Workbook) Add(sheet *Sheet) {
	w.sheets[sheet.Name] = sheet
}

// Sheet returns the parsed sheet with the given name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := w.sheets[name]
	return s, ok
}

// Tab describes a tab of a destination spreadsheet.
type Tab struct {
	Title   string
	SheetID int64
}

// Batch is a contiguous run of rows written in a single API call.
type Batch struct {
	Tab      string
	Rows     [][]any
	Index    int
	StartRow int
}
