package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mrpdigital/office-portal/internal/domain/letter"
)

// Action names the operation in a remote request, matching the verbs
// the spreadsheet script dispatches on.
type Action string

const (
	ActionSaveLetter   Action = "saveLetter"
	ActionUpdateLetter Action = "updateLetter"
	ActionDeleteLetter Action = "deleteLetter"
	ActionUploadFile   Action = "uploadFile"
	ActionGetLetters   Action = "getLetters"
	ActionPing         Action = "ping"
)

// Config identifies the remote store endpoint: the script URL, the
// spreadsheet (store) id and the attachment folder (archive) id.
type Config struct {
	ScriptURL string `yaml:"script_url" json:"script_url"`
	StoreID   string `yaml:"store_id" json:"store_id"`
	ArchiveID string `yaml:"archive_id" json:"archive_id"`
}

// ConfigSource resolves the effective remote configuration at call
// time, so runtime overrides from the settings store take effect
// without rebuilding the client.
type ConfigSource interface {
	Remote(ctx context.Context) (Config, error)
}

// StaticConfig is a ConfigSource that always returns the same Config.
type StaticConfig Config

func (c StaticConfig) Remote(context.Context) (Config, error) {
	return Config(c), nil
}

// DispatchState classifies the outcome of a push as far as the
// transport lets us see it.
type DispatchState string

const (
	// Dispatched means the request left without a network-level error.
	// The remote's true outcome is unknowable over this transport.
	Dispatched DispatchState = "dispatched"
	// Failed means the request never completed.
	Failed DispatchState = "failed"
)

// SyncResult reports how a push went. Dispatched does not mean the
// remote persisted anything, only that nothing failed on the way out.
type SyncResult struct {
	State  DispatchState
	Reason string
}

func dispatched() SyncResult {
	return SyncResult{State: Dispatched}
}

func failed(reason string) SyncResult {
	return SyncResult{State: Failed, Reason: reason}
}

// wireLetter is the loose row shape getLetters returns. The files
// attribute is usually a JSON-encoded string needing a nested parse;
// newer script revisions send a plain array, so both are accepted.
type wireLetter struct {
	ID           string          `json:"id"`
	LetterNumber string          `json:"letterNumber"`
	Sequence     json.RawMessage `json:"sequence"`
	Date         string          `json:"date"`
	CompanyName  string          `json:"companyName"`
	Requestor    string          `json:"requestor"`
	TypeCode     string          `json:"typeCode"`
	Subject      string          `json:"subject"`

	MaterialInquired   string `json:"materialInquired"`
	ProjectName        string `json:"projectName"`
	StartDate          string `json:"startDate"`
	Transportation     string `json:"transportation"`
	InstallerNames     string `json:"installerNames"`
	ContactPersonName  string `json:"contactPersonName"`
	ContactPersonPhone string `json:"contactPersonPhone"`
	CompanyRequested   string `json:"companyRequested"`
	PICName            string `json:"picName"`
	ExpirationDate     string `json:"expirationDate"`

	Files     json.RawMessage `json:"files"`
	CreatedAt string          `json:"createdAt"`
}

type wireFile struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	UploadedAt string `json:"uploadedAt"`
}

// toLetter validates and converts a remote row. Rows missing an id or
// carrying an unparseable date or files blob are rejected; the caller
// quarantines them. A corrupt sequence is tolerated as 0 so that the
// allocator's max computation stays safe.
func (w *wireLetter) toLetter() (letter.Letter, error) {
	if w.ID == "" {
		return letter.Letter{}, fmt.Errorf("row has no id")
	}
	date, err := letter.ParseDate(w.Date)
	if err != nil {
		return letter.Letter{}, fmt.Errorf("row %s: %w", w.ID, err)
	}
	files, err := parseFiles(w.Files)
	if err != nil {
		return letter.Letter{}, fmt.Errorf("row %s: %w", w.ID, err)
	}

	sequence := parseSequence(w.Sequence)

	createdAt := time.Time{}
	if t, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
		createdAt = t
	}

	return letter.Letter{
		ID:           w.ID,
		LetterNumber: w.LetterNumber,
		Sequence:     sequence,
		Date:         date,
		CompanyName:  w.CompanyName,
		Requestor:    w.Requestor,
		TypeCode:     letter.TypeCode(w.TypeCode),
		Subject:      w.Subject,

		MaterialInquired:   w.MaterialInquired,
		ProjectName:        w.ProjectName,
		StartDate:          w.StartDate,
		Transportation:     w.Transportation,
		InstallerNames:     w.InstallerNames,
		ContactPersonName:  w.ContactPersonName,
		ContactPersonPhone: w.ContactPersonPhone,
		CompanyRequested:   w.CompanyRequested,
		PICName:            w.PICName,
		ExpirationDate:     w.ExpirationDate,

		Files:     files,
		CreatedAt: createdAt,
	}, nil
}

// parseSequence tolerates a missing, numeric or quoted sequence cell.
// Anything unreadable counts as 0.
func parseSequence(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &n); err == nil {
			return n
		}
	}
	return 0
}

func parseFiles(raw json.RawMessage) ([]letter.File, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []letter.File{}, nil
	}

	payload := []byte(raw)
	// Spreadsheet cells hold the list as a JSON-encoded string.
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		if nested == "" {
			return []letter.File{}, nil
		}
		payload = []byte(nested)
	}

	var wire []wireFile
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("invalid files attribute: %w", err)
	}

	files := make([]letter.File, 0, len(wire))
	for _, f := range wire {
		uploadedAt := time.Time{}
		if t, err := time.Parse(time.RFC3339, f.UploadedAt); err == nil {
			uploadedAt = t
		}
		files = append(files, letter.File{Name: f.Name, URL: f.URL, UploadedAt: uploadedAt})
	}
	return files, nil
}
