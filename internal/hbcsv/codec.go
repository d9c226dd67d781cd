// Package hbcsv encodes and decodes the semicolon-delimited CSV layouts
// used by HomeBank: eight columns for transactions, three for payees and
// categories. All functions are pure; handlers do the store work.
package hbcsv

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Delimiter separates fields; rows end with CRLF.
const Delimiter = ';'

// TransactionHeader is the header line emitted on export and skipped on
// import when recognized.
const TransactionHeader = "date;paymode;info;payee;memo;amount;category;tags"

// DateOrder selects how day/month/year are laid out in the date column.
type DateOrder int

const (
	DayMonthYear DateOrder = iota
	MonthDayYear
	YearMonthDay
)

// ParseDateOrder maps the wire names ("dmy", "mdy", "ymd") to a DateOrder.
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dmy":
		return DayMonthYear, nil
	case "mdy":
		return MonthDayYear, nil
	case "ymd":
		return YearMonthDay, nil
	}
	return DayMonthYear, fmt.Errorf("unknown date order %q", s)
}

// Options controls formatting variants on both directions.
type Options struct {
	DateOrder    DateOrder
	DecimalComma bool // comma as decimal separator (HomeBank default)
}

// DefaultOptions matches the HomeBank conventions: day-month-year dates
// and comma decimals.
func DefaultOptions() Options {
	return Options{DateOrder: DayMonthYear, DecimalComma: true}
}

// Row is one transaction line of the eight-column layout.
type Row struct {
	Date     time.Time
	Paymode  int
	Info     string
	Payee    string
	Memo     string
	Amount   float64
	Category string // "Parent:Child", bare name, or ""
	Tags     string
}

// EncodeTransactions serializes rows to the eight-column layout, header
// line included.
func EncodeTransactions(rows []Row, opts Options) string {
	var b strings.Builder
	b.WriteString(TransactionHeader)
	b.WriteString("\r\n")
	for i := range rows {
		r := &rows[i]
		fields := []string{
			FormatDate(r.Date, opts.DateOrder),
			strconv.Itoa(r.Paymode),
			r.Info,
			r.Payee,
			r.Memo,
			FormatAmount(r.Amount, opts.DecimalComma),
			r.Category,
			r.Tags,
		}
		writeRecord(&b, fields)
	}
	return b.String()
}

// DecodeTransactions parses raw CSV text. Blank lines and the header are
// ignored; lines whose date or amount cannot be parsed are skipped and
// counted, never fatal.
func DecodeTransactions(raw string, opts Options) (rows []Row, skipped int) {
	for _, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" || isTransactionHeader(line) {
			continue
		}
		fields := splitRecord(line)
		for len(fields) < 8 {
			fields = append(fields, "")
		}

		date, err := ParseDate(fields[0], opts.DateOrder)
		if err != nil {
			skipped++
			continue
		}
		amount, err := ParseAmount(fields[5])
		if err != nil {
			skipped++
			continue
		}
		paymode, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			paymode = 0
		}

		rows = append(rows, Row{
			Date:     date,
			Paymode:  paymode,
			Info:     fields[2],
			Payee:    fields[3],
			Memo:     fields[4],
			Amount:   amount,
			Category: strings.TrimSpace(fields[6]),
			Tags:     fields[7],
		})
	}
	return rows, skipped
}

// FormatAmount renders amount with two decimals and the selected
// decimal separator.
func FormatAmount(amount float64, comma bool) string {
	s := decimal.NewFromFloat(amount).StringFixed(2)
	if comma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// ParseAmount accepts both comma and period decimal separators.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

var dateLayouts = map[DateOrder]string{
	DayMonthYear: "02-01-2006",
	MonthDayYear: "01-02-2006",
	YearMonthDay: "2006-01-02",
}

// FormatDate renders a date in the selected field order.
func FormatDate(t time.Time, order DateOrder) string {
	return t.Format(dateLayouts[order])
}

// ParseDate splits on -, / or . and detects year-first layouts by the
// width of the leading group; two-digit groups fall back to the caller's
// day/month order.
func ParseDate(s string, fallback DateOrder) (time.Time, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}

	var dayS, monS, yearS string
	switch {
	case len(parts[0]) == 4:
		yearS, monS, dayS = parts[0], parts[1], parts[2]
	case fallback == MonthDayYear:
		monS, dayS, yearS = parts[0], parts[1], parts[2]
	default:
		dayS, monS, yearS = parts[0], parts[1], parts[2]
	}

	day, err1 := strconv.Atoi(dayS)
	mon, err2 := strconv.Atoi(monS)
	year, err3 := strconv.Atoi(yearS)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	if year < 100 {
		year += 2000
	}
	if mon < 1 || mon > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t := time.Date(year, time.Month(mon), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(mon) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// ---------- record-level quoting ----------

// writeRecord joins escaped fields with the delimiter and terminates the
// row with CRLF.
func writeRecord(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(Delimiter)
		}
		b.WriteString(escape(f))
	}
	b.WriteString("\r\n")
}

func escape(field string) string {
	if !strings.ContainsAny(field, ";\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// splitRecord splits one line on the delimiter, honoring double-quoted
// fields with doubled inner quotes.
func splitRecord(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == Delimiter && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, strings.TrimRight(l, "\r"))
	}
	return out
}

func isTransactionHeader(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), TransactionHeader)
}
