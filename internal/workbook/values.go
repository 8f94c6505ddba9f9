package workbook

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// maxExactInt is the largest integer a float64 cell holds exactly.
	maxExactInt   = 1 << 53
	secondsPerDay = 24 * 60 * 60
)

// Number format kinds, decided per cell style.
type formatKind int

const (
	formatNumber formatKind = iota
	formatDate
	formatTime
	formatDateTime
)

// Built-in number format ids that render dates or times.
var builtinFormats = map[int]formatKind{
	14: formatDate, 15: formatDate, 16: formatDate, 17: formatDate,
	18: formatTime, 19: formatTime, 20: formatTime, 21: formatTime,
	22: formatDateTime,
	27: formatDate, 28: formatDate, 29: formatDate, 30: formatDate, 31: formatDate,
	32: formatTime, 33: formatTime, 34: formatTime, 35: formatTime, 36: formatDate,
	45: formatTime, 46: formatTime, 47: formatTime,
	50: formatDate, 51: formatDate, 52: formatDate, 53: formatDate, 54: formatDate,
	55: formatDate, 56: formatDate, 57: formatDate, 58: formatDate,
}

// cellReader turns raw cell values of one tab into typed values: numbers stay
// numbers whatever their display format, booleans become bool, dates and
// times become ISO-8601 text and text cells are passed through untouched.
type cellReader struct {
	f        *excelize.File
	formats  map[int]formatKind
	sheet    string
	date1904 bool
}

func newCellReader(f *excelize.File, sheet string) *cellReader {
	r := &cellReader{f: f, sheet: sheet, formats: make(map[int]formatKind)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

// value converts the raw text of the cell at col, row (both 1-based).
func (r *cellReader) value(col, row int, raw string) (any, error) {
	if raw == "" {
		return "", nil
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}

	typ, err := r.f.GetCellType(r.sheet, cell)
	if err != nil {
		return nil, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
	default:
		return raw, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw, nil
	}

	kind, err := r.format(cell)
	if err != nil {
		return nil, err
	}
	if kind != formatNumber {
		if s, ok := r.dateValue(v, kind); ok {
			return s, nil
		}
	}

	return numberValue(v), nil
}

func (r *cellReader) format(cell string) (formatKind, error) {
	styleID, err := r.f.GetCellStyle(r.sheet, cell)
	if err != nil {
		return formatNumber, err
	}
	if kind, ok := r.formats[styleID]; ok {
		return kind, nil
	}

	kind := formatNumber
	if style, err := r.f.GetStyle(styleID); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			kind = customFormatKind(*style.CustomNumFmt)
		} else {
			kind = builtinFormats[style.NumFmt]
		}
	}

	r.formats[styleID] = kind
	return kind, nil
}

func (r *cellReader) dateValue(v float64, kind formatKind) (string, bool) {
	if v < 0 {
		return "", false
	}

	if kind == formatTime {
		secs := int(math.Round((v-math.Floor(v))*secondsPerDay)) % secondsPerDay
		return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60), true
	}

	t, err := excelize.ExcelDateToTime(v, r.date1904)
	if err != nil {
		return "", false
	}

	if kind == formatDate {
		return t.Format("2006-01-02"), true
	}
	return t.Format("2006-01-02T15:04:05"), true
}

// numberValue returns whole numbers as int64 and everything else as float64.
func numberValue(v float64) any {
	if v == math.Trunc(v) && math.Abs(v) <= maxExactInt {
		return int64(v)
	}
	return v
}

// customFormatKind classifies a custom number format code by its date and
// time tokens, ignoring quoted literals, escapes and [color] sections.
func customFormatKind(code string) formatKind {
	// Only the positive section decides.
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}

	var hasDate, hasTime bool
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			switch c {
			case ']':
				inBracket = false
			case 'h', 'H', 's', 'S':
				hasTime = true
			}
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			switch c {
			case 'y', 'Y', 'd', 'D':
				hasDate = true
			case 'h', 'H', 's', 'S':
				hasTime = true
			}
		}
	}

	switch {
	case hasDate && hasTime:
		return formatDateTime
	case hasDate:
		return formatDate
	case hasTime:
		return formatTime
	default:
		return formatNumber
	}
}
