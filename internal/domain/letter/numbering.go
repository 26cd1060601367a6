package letter

import "fmt"

// OrgCode is the organization tag embedded in every letter number.
const OrgCode = "MRP"

// Digital numbering started mid-2025; the paper archive had already
// reached 340, so the first digital letter of 2025 is 341. Every other
// year starts at 1.
const (
	EpochYear  = 2025
	EpochStart = 341
)

var romanMonths = [13]string{
	"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII",
}

// RomanMonth maps a month number (1-12) to its Roman numeral.
// Out-of-range input yields the empty string.
func RomanMonth(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return romanMonths[month]
}

// NextSequence computes the sequence number for a new letter dated date,
// given the full set of existing records. The result is one past the
// highest sequence already used in date's calendar year, or the year's
// starting value when the year has no records yet. Records with a
// missing or corrupt sequence count as 0; allocation never fails.
func NextSequence(existing []Letter, date Date) int {
	year := date.Year()
	highest := 0
	found := false
	for i := range existing {
		if existing[i].Date.Year() != year {
			continue
		}
		found = true
		if existing[i].Sequence > highest {
			highest = existing[i].Sequence
		}
	}
	if found {
		return highest + 1
	}
	if year == EpochYear {
		return EpochStart
	}
	return 1
}

// FormatNumber renders the canonical letter number
// SEQ/ORG/TYPE/ROMAN-MONTH/YEAR, e.g. "005/MRP/SPK/III/2025".
// It is a pure function of its inputs: the same (sequence, code, date)
// always yields the identical string.
func FormatNumber(sequence int, code TypeCode, date Date) string {
	return fmt.Sprintf("%03d/%s/%s/%s/%d",
		sequence, OrgCode, code, RomanMonth(int(date.Month())), date.Year())
}
