package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mrpdigital/office-portal/internal/domain/letter"
)

// LetterRepository implements letter.Repository for SQLite. Every
// mutation runs in a single transaction, so a record is never left
// half-written.
type LetterRepository struct {
	db *DB
}

// NewLetterRepository creates a new LetterRepository
func NewLetterRepository(db *DB) *LetterRepository {
	return &LetterRepository{db: db}
}

const letterColumns = `
	id, letter_number, sequence, date, company_name, requestor,
	type_code, subject, material_inquired, project_name, start_date,
	transportation, installer_names, contact_person_name,
	contact_person_phone, company_requested, pic_name, expiration_date,
	created_at
`

// List returns all letters most-recent-first.
func (r *LetterRepository) List(ctx context.Context) ([]letter.Letter, error) {
	query := `SELECT ` + letterColumns + ` FROM letters ORDER BY position ASC`
	return r.queryLetters(ctx, query)
}

// ListYear returns letters whose date falls in the given calendar year.
// This is the record set the sequence allocator works from.
func (r *LetterRepository) ListYear(ctx context.Context, year int) ([]letter.Letter, error) {
	query := `SELECT ` + letterColumns + ` FROM letters WHERE year = ? ORDER BY position ASC`
	return r.queryLetters(ctx, query, year)
}

// Get retrieves a letter by ID
func (r *LetterRepository) Get(ctx context.Context, id string) (*letter.Letter, error) {
	query := `SELECT ` + letterColumns + ` FROM letters WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	l, err := scanLetter(row)
	if err == sql.ErrNoRows {
		return nil, letter.ErrLetterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get letter: %w", err)
	}

	files, err := r.loadFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Files = files
	return l, nil
}

// Create prepends a new letter to the archive.
func (r *LetterRepository) Create(ctx context.Context, l *letter.Letter) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepend: new records take the smallest position.
	var position int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MIN(position), 1) - 1 FROM letters`).Scan(&position)
	if err != nil {
		return fmt.Errorf("failed to compute position: %w", err)
	}

	if err := insertLetter(ctx, tx, l, position); err != nil {
		return err
	}
	if err := insertFiles(ctx, tx, l.ID, l.Files); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Update rewrites a letter's mutable fields and its file list,
// preserving its position in the archive.
func (r *LetterRepository) Update(ctx context.Context, l *letter.Letter) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE letters
		SET letter_number = ?, sequence = ?, date = ?, year = ?,
		    company_name = ?, requestor = ?, type_code = ?, subject = ?,
		    material_inquired = ?, project_name = ?, start_date = ?,
		    transportation = ?, installer_names = ?, contact_person_name = ?,
		    contact_person_phone = ?, company_requested = ?, pic_name = ?,
		    expiration_date = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		l.LetterNumber,
		l.Sequence,
		l.Date.String(),
		l.Date.Year(),
		l.CompanyName,
		l.Requestor,
		l.TypeCode,
		l.Subject,
		l.MaterialInquired,
		l.ProjectName,
		l.StartDate,
		l.Transportation,
		l.InstallerNames,
		l.ContactPersonName,
		l.ContactPersonPhone,
		l.CompanyRequested,
		l.PICName,
		l.ExpirationDate,
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update letter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return letter.ErrLetterNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM letter_files WHERE letter_id = ?`, l.ID); err != nil {
		return fmt.Errorf("failed to clear files: %w", err)
	}
	if err := insertFiles(ctx, tx, l.ID, l.Files); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Delete removes a letter. Deleting an unknown id is a no-op; remaining
// letters keep their sequence numbers.
func (r *LetterRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM letters WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete letter: %w", err)
	}
	return nil
}

// RemoveAttachment drops one file entry by name.
func (r *LetterRepository) RemoveAttachment(ctx context.Context, id, fileName string) error {
	query := `DELETE FROM letter_files WHERE letter_id = ? AND name = ?`
	if _, err := r.db.ExecContext(ctx, query, id, fileName); err != nil {
		return fmt.Errorf("failed to remove attachment: %w", err)
	}
	return nil
}

// ReplaceAll swaps the entire archive for the given set, preserving the
// given order as most-recent-first. Used only by hydration.
func (r *LetterRepository) ReplaceAll(ctx context.Context, letters []letter.Letter) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM letter_files`); err != nil {
		return fmt.Errorf("failed to clear files: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM letters`); err != nil {
		return fmt.Errorf("failed to clear letters: %w", err)
	}

	for i := range letters {
		if err := insertLetter(ctx, tx, &letters[i], i); err != nil {
			return err
		}
		if err := insertFiles(ctx, tx, letters[i].ID, letters[i].Files); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertLetter(ctx context.Context, tx *sql.Tx, l *letter.Letter, position int) error {
	query := `
		INSERT INTO letters (
			id, letter_number, sequence, date, year, company_name,
			requestor, type_code, subject, material_inquired, project_name,
			start_date, transportation, installer_names, contact_person_name,
			contact_person_phone, company_requested, pic_name,
			expiration_date, position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		l.ID,
		l.LetterNumber,
		l.Sequence,
		l.Date.String(),
		l.Date.Year(),
		l.CompanyName,
		l.Requestor,
		l.TypeCode,
		l.Subject,
		l.MaterialInquired,
		l.ProjectName,
		l.StartDate,
		l.Transportation,
		l.InstallerNames,
		l.ContactPersonName,
		l.ContactPersonPhone,
		l.CompanyRequested,
		l.PICName,
		l.ExpirationDate,
		position,
		l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert letter: %w", err)
	}
	return nil
}

func insertFiles(ctx context.Context, tx *sql.Tx, letterID string, files []letter.File) error {
	for i, f := range files {
		query := `INSERT INTO letter_files (letter_id, name, url, uploaded_at, ord) VALUES (?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, query, letterID, f.Name, f.URL, f.UploadedAt, i); err != nil {
			return fmt.Errorf("failed to insert file: %w", err)
		}
	}
	return nil
}

func (r *LetterRepository) queryLetters(ctx context.Context, query string, args ...any) ([]letter.Letter, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list letters: %w", err)
	}
	defer rows.Close()

	letters := []letter.Letter{}
	index := map[string]int{}
	for rows.Next() {
		l, err := scanLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan letter: %w", err)
		}
		index[l.ID] = len(letters)
		letters = append(letters, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate letters: %w", err)
	}

	if err := r.attachFiles(ctx, letters, index); err != nil {
		return nil, err
	}
	return letters, nil
}

// attachFiles loads the listed letters' file rows in one query and
// distributes them.
func (r *LetterRepository) attachFiles(ctx context.Context, letters []letter.Letter, index map[string]int) error {
	if len(letters) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(letters)), ",")
	args := make([]any, len(letters))
	for i := range letters {
		args[i] = letters[i].ID
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT letter_id, name, url, uploaded_at FROM letter_files
		 WHERE letter_id IN (`+placeholders+`) ORDER BY letter_id, ord`, args...)
	if err != nil {
		return fmt.Errorf("failed to load files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var letterID string
		var f letter.File
		if err := rows.Scan(&letterID, &f.Name, &f.URL, &f.UploadedAt); err != nil {
			return fmt.Errorf("failed to scan file: %w", err)
		}
		if i, ok := index[letterID]; ok {
			letters[i].Files = append(letters[i].Files, f)
		}
	}
	return rows.Err()
}

func (r *LetterRepository) loadFiles(ctx context.Context, letterID string) ([]letter.File, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, url, uploaded_at FROM letter_files WHERE letter_id = ? ORDER BY ord`, letterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}
	defer rows.Close()

	files := []letter.File{}
	for rows.Next() {
		var f letter.File
		if err := rows.Scan(&f.Name, &f.URL, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLetter(row rowScanner) (*letter.Letter, error) {
	var l letter.Letter
	var date string
	var createdAt time.Time
	err := row.Scan(
		&l.ID,
		&l.LetterNumber,
		&l.Sequence,
		&date,
		&l.CompanyName,
		&l.Requestor,
		&l.TypeCode,
		&l.Subject,
		&l.MaterialInquired,
		&l.ProjectName,
		&l.StartDate,
		&l.Transportation,
		&l.InstallerNames,
		&l.ContactPersonName,
		&l.ContactPersonPhone,
		&l.CompanyRequested,
		&l.PICName,
		&l.ExpirationDate,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := letter.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("stored date %q: %w", date, err)
	}
	l.Date = parsed
	l.CreatedAt = createdAt
	l.Files = []letter.File{}
	return &l, nil
}
