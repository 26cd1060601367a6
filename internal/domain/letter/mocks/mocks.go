package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mrpdigital/office-portal/internal/domain/letter"
)

// Repository is a mock for letter.Repository.
type Repository struct {
	mock.Mock
}

func (m *Repository) List(ctx context.Context) ([]letter.Letter, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]letter.Letter); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Repository) ListYear(ctx context.Context, year int) ([]letter.Letter, error) {
	args := m.Called(ctx, year)
	if list, ok := args.Get(0).([]letter.Letter); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Repository) Get(ctx context.Context, id string) (*letter.Letter, error) {
	args := m.Called(ctx, id)
	if l, ok := args.Get(0).(*letter.Letter); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Repository) Create(ctx context.Context, l *letter.Letter) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *Repository) Update(ctx context.Context, l *letter.Letter) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *Repository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Repository) RemoveAttachment(ctx context.Context, id, fileName string) error {
	args := m.Called(ctx, id, fileName)
	return args.Error(0)
}

func (m *Repository) ReplaceAll(ctx context.Context, letters []letter.Letter) error {
	args := m.Called(ctx, letters)
	return args.Error(0)
}

// Syncer is a mock for letter.Syncer.
type Syncer struct {
	mock.Mock
}

func (m *Syncer) LetterSaved(l letter.Letter) {
	m.Called(l)
}

func (m *Syncer) LetterUpdated(l letter.Letter) {
	m.Called(l)
}

func (m *Syncer) LetterDeleted(id string) {
	m.Called(id)
}

// Uploader is a mock for letter.Uploader.
type Uploader struct {
	mock.Mock
}

func (m *Uploader) UploadAttachment(ctx context.Context, fileName string, data []byte, mimeType, letterNumber string) error {
	args := m.Called(ctx, fileName, data, mimeType, letterNumber)
	return args.Error(0)
}
