package letter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TypeCode selects the letter category embedded in the letter number.
type TypeCode string

const (
	TypePWRN   TypeCode = "PWRN"   // Quotation
	TypeSK     TypeCode = "SK"     // Surat Kuasa
	TypeTUGAS  TypeCode = "TUGAS"  // Surat Perintah Tugas
	TypeSURDUK TypeCode = "SURDUK" // Surat Dukungan
	TypeSPK    TypeCode = "SPK"    // Surat Perintah Kerja
	TypeSUKET  TypeCode = "SUKET"  // Surat Keterangan
	TypeMISC   TypeCode = "MISC"   // Others
)

// TypeCodes lists every valid letter type.
var TypeCodes = []TypeCode{TypePWRN, TypeSK, TypeTUGAS, TypeSURDUK, TypeSPK, TypeSUKET, TypeMISC}

// Valid reports whether c is one of the known type codes.
func (c TypeCode) Valid() bool {
	for _, known := range TypeCodes {
		if c == known {
			return true
		}
	}
	return false
}

// Date is a civil calendar date. It carries no time-of-day semantics and
// marshals as "2006-01-02". Unmarshal also accepts RFC 3339 timestamps,
// which is what older remote rows contain.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// File describes one uploaded scanned copy attached to a letter.
type File struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// PendingUploadURL marks a file whose upload was dispatched but whose
// remote link is not yet known. The real URL arrives with the next
// hydration from the remote store.
const PendingUploadURL = "#SyncedToDrivePendingRefresh"

// Letter is an outbound correspondence record. Sequence and LetterNumber
// are assigned once at creation; later edits re-render the number text but
// never reallocate the sequence.
type Letter struct {
	ID           string   `json:"id"`
	LetterNumber string   `json:"letterNumber"`
	Sequence     int      `json:"sequence"`
	Date         Date     `json:"date"`
	CompanyName  string   `json:"companyName"`
	Requestor    string   `json:"requestor"`
	TypeCode     TypeCode `json:"typeCode"`
	Subject      string   `json:"subject"`

	// Category-specific fields, relevant depending on TypeCode.
	MaterialInquired   string `json:"materialInquired,omitempty"`
	ProjectName        string `json:"projectName,omitempty"`
	StartDate          string `json:"startDate,omitempty"`
	Transportation     string `json:"transportation,omitempty"`
	InstallerNames     string `json:"installerNames,omitempty"`
	ContactPersonName  string `json:"contactPersonName,omitempty"`
	ContactPersonPhone string `json:"contactPersonPhone,omitempty"`
	CompanyRequested   string `json:"companyRequested,omitempty"`
	PICName            string `json:"picName,omitempty"`
	ExpirationDate     string `json:"expirationDate,omitempty"`

	Files     []File    `json:"files"`
	CreatedAt time.Time `json:"createdAt"`
}

// Signed reports whether the letter's scanned copy has been uploaded.
func (l *Letter) Signed() bool {
	return len(l.Files) > 0
}

// Matches reports whether the letter matches a free-text search term.
func (l *Letter) Matches(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(l.LetterNumber), term) ||
		strings.Contains(strings.ToLower(l.CompanyName), term) ||
		strings.Contains(strings.ToLower(l.Subject), term)
}
