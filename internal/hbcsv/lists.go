package hbcsv

import (
	"strconv"
	"strings"
)

// PayeeRow is one line of the payee list layout: name;category;paymode.
type PayeeRow struct {
	Name     string
	Category string // default category path, may be ""
	Paymode  int    // 0 when unset
}

// PayeeHeader is emitted on export and skipped on import.
const PayeeHeader = "name;category;paymode"

// EncodePayees serializes payee rows, header included.
func EncodePayees(rows []PayeeRow) string {
	var b strings.Builder
	b.WriteString(PayeeHeader)
	b.WriteString("\r\n")
	for _, r := range rows {
		paymode := ""
		if r.Paymode != 0 {
			paymode = strconv.Itoa(r.Paymode)
		}
		writeRecord(&b, []string{r.Name, r.Category, paymode})
	}
	return b.String()
}

// DecodePayees parses the payee list layout. Lines without a name are
// skipped and counted.
func DecodePayees(raw string) (rows []PayeeRow, skipped int) {
	for _, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" ||
			strings.EqualFold(strings.TrimSpace(line), PayeeHeader) {
			continue
		}
		fields := splitRecord(line)
		for len(fields) < 3 {
			fields = append(fields, "")
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			skipped++
			continue
		}
		paymode, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			paymode = 0
		}
		rows = append(rows, PayeeRow{
			Name:     name,
			Category: strings.TrimSpace(fields[1]),
			Paymode:  paymode,
		})
	}
	return rows, skipped
}

// CategoryRow is one line of the category list layout: level;type;name.
// Level 1 is a root category, level 2 a child of the preceding level-1
// row. Type is "+" for income, "-" for expense, "" for neutral.
type CategoryRow struct {
	Level int
	Type  string
	Name  string
}

// CategoryHeader is emitted on export and skipped on import.
const CategoryHeader = "level;type;name"

// EncodeCategories serializes category rows, header included.
func EncodeCategories(rows []CategoryRow) string {
	var b strings.Builder
	b.WriteString(CategoryHeader)
	b.WriteString("\r\n")
	for _, r := range rows {
		writeRecord(&b, []string{strconv.Itoa(r.Level), r.Type, r.Name})
	}
	return b.String()
}

// DecodeCategories parses the category list layout. Lines with an
// unknown level or empty name are skipped and counted.
func DecodeCategories(raw string) (rows []CategoryRow, skipped int) {
	for _, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" ||
			strings.EqualFold(strings.TrimSpace(line), CategoryHeader) {
			continue
		}
		fields := splitRecord(line)
		for len(fields) < 3 {
			fields = append(fields, "")
		}
		level, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		name := strings.TrimSpace(fields[2])
		if err != nil || (level != 1 && level != 2) || name == "" {
			skipped++
			continue
		}
		rows = append(rows, CategoryRow{
			Level: level,
			Type:  strings.TrimSpace(fields[1]),
			Name:  name,
		})
	}
	return rows, skipped
}
