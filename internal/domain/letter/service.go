package letter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service handles letter archive business logic. All mutations commit
// locally first and are then propagated to the remote store through the
// Syncer; a failed propagation never rolls the local commit back.
type Service struct {
	letters  Repository
	syncer   Syncer
	uploader Uploader
	logger   *slog.Logger
}

// NewService creates a new letter service.
func NewService(letters Repository, syncer Syncer, uploader Uploader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		letters:  letters,
		syncer:   syncer,
		uploader: uploader,
		logger:   logger,
	}
}

// CreateRequest describes a letter creation request. A zero Date means
// "today". Sequence and LetterNumber are never supplied by the caller.
type CreateRequest struct {
	Date        Date
	TypeCode    TypeCode
	CompanyName string
	Requestor   string
	Subject     string

	MaterialInquired   string
	ProjectName        string
	StartDate          string
	Transportation     string
	InstallerNames     string
	ContactPersonName  string
	ContactPersonPhone string
	CompanyRequested   string
	PICName            string
	ExpirationDate     string
}

// UpdateRequest describes a partial letter update. Nil fields are left
// unchanged. Changing Date or TypeCode re-renders the letter number text
// using the original sequence; the sequence itself is write-once.
type UpdateRequest struct {
	Date        *Date
	TypeCode    *TypeCode
	CompanyName *string
	Requestor   *string
	Subject     *string

	MaterialInquired   *string
	ProjectName        *string
	StartDate          *string
	Transportation     *string
	InstallerNames     *string
	ContactPersonName  *string
	ContactPersonPhone *string
	CompanyRequested   *string
	PICName            *string
	ExpirationDate     *string
}

// ListOptions filters the archive listing.
type ListOptions struct {
	Term     string
	TypeCode TypeCode
}

// List returns letters most-recent-first, optionally filtered by a
// free-text term and a type code.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Letter, error) {
	all, err := s.letters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing letters: %w", err)
	}
	if opts.Term == "" && opts.TypeCode == "" {
		return all, nil
	}
	filtered := make([]Letter, 0, len(all))
	for _, l := range all {
		if opts.TypeCode != "" && l.TypeCode != opts.TypeCode {
			continue
		}
		if !l.Matches(opts.Term) {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered, nil
}

// Get retrieves one letter by id.
func (s *Service) Get(ctx context.Context, id string) (*Letter, error) {
	return s.letters.Get(ctx, id)
}

// Create allocates the next sequence for the letter's year, renders the
// letter number, persists the record and dispatches it to the remote
// store.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Letter, error) {
	if req.Date.IsZero() {
		req.Date = DateOf(time.Now())
	}
	if req.TypeCode == TypePWRN && req.Subject == "" && req.MaterialInquired != "" {
		req.Subject = "Surat Penawaran Harga Material " + req.MaterialInquired
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	yearLetters, err := s.letters.ListYear(ctx, req.Date.Year())
	if err != nil {
		return nil, fmt.Errorf("loading year records: %w", err)
	}
	sequence := NextSequence(yearLetters, req.Date)

	l := &Letter{
		ID:           uuid.NewString(),
		LetterNumber: FormatNumber(sequence, req.TypeCode, req.Date),
		Sequence:     sequence,
		Date:         req.Date,
		CompanyName:  req.CompanyName,
		Requestor:    req.Requestor,
		TypeCode:     req.TypeCode,
		Subject:      req.Subject,

		MaterialInquired:   req.MaterialInquired,
		ProjectName:        req.ProjectName,
		StartDate:          req.StartDate,
		Transportation:     req.Transportation,
		InstallerNames:     req.InstallerNames,
		ContactPersonName:  req.ContactPersonName,
		ContactPersonPhone: req.ContactPersonPhone,
		CompanyRequested:   req.CompanyRequested,
		PICName:            req.PICName,
		ExpirationDate:     req.ExpirationDate,

		Files:     []File{},
		CreatedAt: time.Now(),
	}

	if err := s.letters.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("creating letter: %w", err)
	}

	s.logger.Info("letter created", "id", l.ID, "number", l.LetterNumber)
	s.syncer.LetterSaved(*l)
	return l, nil
}

// Update merges the patch into an existing letter. When the patch
// touches Date or TypeCode, the letter number text is re-rendered with
// the original sequence, so the month/year portion may drift from the
// allocation slot. That mirrors how the archive has always behaved and
// keeps historical numbers stable.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Letter, error) {
	l, err := s.letters.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPatch(l, req)
	if req.Date != nil || req.TypeCode != nil {
		l.LetterNumber = FormatNumber(l.Sequence, l.TypeCode, l.Date)
	}

	if err := s.letters.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("updating letter: %w", err)
	}

	s.syncer.LetterUpdated(*l)
	return l, nil
}

// Delete removes a letter. Deleting an unknown id is a no-op locally,
// but the delete is still dispatched so a remote copy cannot outlive it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.letters.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting letter: %w", err)
	}
	s.syncer.LetterDeleted(id)
	return nil
}

// AttachFile uploads a scanned copy and records it on the letter with a
// placeholder URL. The real link is only known after the next hydration.
// The upload dispatch is best-effort: a failed dispatch is logged and
// the local record still gains the placeholder entry.
func (s *Service) AttachFile(ctx context.Context, id string, data []byte, mimeType string) (*Letter, error) {
	l, err := s.letters.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fileName := attachmentName(l)
	if err := s.uploader.UploadAttachment(ctx, fileName, data, mimeType, l.LetterNumber); err != nil {
		s.logger.Warn("attachment upload dispatch failed", "id", id, "file", fileName, "error", err)
	}

	l.Files = append(l.Files, File{
		Name:       fileName,
		URL:        PendingUploadURL,
		UploadedAt: time.Now(),
	})
	if err := s.letters.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("recording attachment: %w", err)
	}

	s.syncer.LetterUpdated(*l)
	return l, nil
}

// RemoveAttachment drops one file entry by name. With no files left the
// letter reads as "signed copy missing" again.
func (s *Service) RemoveAttachment(ctx context.Context, id, fileName string) (*Letter, error) {
	if _, err := s.letters.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.letters.RemoveAttachment(ctx, id, fileName); err != nil {
		return nil, fmt.Errorf("removing attachment: %w", err)
	}
	l, err := s.letters.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.syncer.LetterUpdated(*l)
	return l, nil
}

// attachmentName derives the stored file name from the letter. The
// first copy is "SEQ - company - subject"; extras get a numeric suffix.
// The suffix skips names already on the letter, so re-attaching after a
// removal never reuses a survivor's name.
func attachmentName(l *Letter) string {
	base := fmt.Sprintf("%03d - %s - %s", l.Sequence, l.CompanyName, l.Subject)
	if len(l.Files) == 0 {
		return base
	}
	taken := make(map[string]bool, len(l.Files))
	for _, f := range l.Files {
		taken[f.Name] = true
	}
	for i := len(l.Files) + 1; ; i++ {
		name := fmt.Sprintf("%s - %d", base, i)
		if !taken[name] {
			return name
		}
	}
}

func validateCreate(req CreateRequest) error {
	if !req.TypeCode.Valid() {
		return fmt.Errorf("%w: unknown type code %q", ErrInvalidInput, req.TypeCode)
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Requestor) == "" {
		return fmt.Errorf("%w: requestor is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	return nil
}

func applyPatch(l *Letter, req UpdateRequest) {
	if req.Date != nil {
		l.Date = *req.Date
	}
	if req.TypeCode != nil {
		l.TypeCode = *req.TypeCode
	}
	if req.CompanyName != nil {
		l.CompanyName = *req.CompanyName
	}
	if req.Requestor != nil {
		l.Requestor = *req.Requestor
	}
	if req.Subject != nil {
		l.Subject = *req.Subject
	}
	if req.MaterialInquired != nil {
		l.MaterialInquired = *req.MaterialInquired
	}
	if req.ProjectName != nil {
		l.ProjectName = *req.ProjectName
	}
	if req.StartDate != nil {
		l.StartDate = *req.StartDate
	}
	if req.Transportation != nil {
		l.Transportation = *req.Transportation
	}
	if req.InstallerNames != nil {
		l.InstallerNames = *req.InstallerNames
	}
	if req.ContactPersonName != nil {
		l.ContactPersonName = *req.ContactPersonName
	}
	if req.ContactPersonPhone != nil {
		l.ContactPersonPhone = *req.ContactPersonPhone
	}
	if req.CompanyRequested != nil {
		l.CompanyRequested = *req.CompanyRequested
	}
	if req.PICName != nil {
		l.PICName = *req.PICName
	}
	if req.ExpirationDate != nil {
		l.ExpirationDate = *req.ExpirationDate
	}
}
