package rankings

import (
	"strings"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// SplitLine splits one CSV line into trimmed fields.
//
// Quoting is restricted: a quote opens a quoted field only as the first
// non-blank character of the field, and closes it only when nothing but
// blanks stands between it and the next comma or the end of the line.
// Every other quote is kept literally, and there is no "" escaping.
func SplitLine(line string) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		atStart  = true
	)

	for i := 0; i < len(line); i++ {
		c := line[i]

		if inQuotes {
			if c == '"' && closesField(line, i) {
				inQuotes = false
				continue
			}
			field.WriteByte(c)
			continue
		}

		switch {
		case c == ',':
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
			atStart = true
		case c == '"' && atStart:
			inQuotes = true
			atStart = false
		case isBlank(c) && atStart:
			field.WriteByte(c)
		default:
			field.WriteByte(c)
			atStart = false
		}
	}

	return append(fields, strings.TrimSpace(field.String()))
}

func closesField(line string, i int) bool {
	j := i + 1
	for j < len(line) && isBlank(line[j]) {
		j++
	}
	return j == len(line) || line[j] == ','
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// Parse converts a whole CSV document into records. The first line is a
// header and is skipped; every following line yields one record, however
// short it is.
func Parse(text string, layout Layout) []models.PlayerRecord {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	records := make([]models.PlayerRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := SplitLine(strings.TrimRight(line, "\r"))
		records = append(records, ParseRow(fields, layout))
	}
	return records
}

// ParseRow maps split fields onto a record; absent columns read as ""
func ParseRow(fields []string, layout Layout) models.PlayerRecord {
	at := func(i int) string {
		if i < 0 || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	rec := models.PlayerRecord{
		Position: at(layout.Position),
		Player:   at(layout.Player),
		Team:     at(layout.Team),
		Ranks:    make(map[string]models.SourceRank, len(layout.Sources)),
	}

	ranks := make([]models.SourceRank, 0, len(layout.Sources))
	for _, s := range layout.Sources {
		r := ParseRank(at(s.Column))
		rec.Ranks[s.ID] = r
		ranks = append(ranks, r)
	}
	rec.AverageADP, rec.Ranked = AverageADP(ranks)

	return rec
}

// FormatLine joins fields into a line that SplitLine reads back unchanged
// for any field that does not itself contain a quote followed by a comma.
func FormatLine(fields []string) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		if strings.ContainsRune(f, ',') || strings.HasPrefix(f, `"`) {
			sb.WriteByte('"')
			sb.WriteString(f)
			sb.WriteByte('"')
			continue
		}
		sb.WriteString(f)
	}
	return sb.String()
}
