package letter

import "context"

// Repository provides persistence for letters. List returns letters
// most-recent-first; Create prepends. ReplaceAll swaps the entire set
// and is reserved for hydration from the remote store.
type Repository interface {
	List(ctx context.Context) ([]Letter, error)
	ListYear(ctx context.Context, year int) ([]Letter, error)
	Get(ctx context.Context, id string) (*Letter, error)
	Create(ctx context.Context, l *Letter) error
	Update(ctx context.Context, l *Letter) error
	Delete(ctx context.Context, id string) error
	RemoveAttachment(ctx context.Context, id, fileName string) error
	ReplaceAll(ctx context.Context, letters []Letter) error
}

// Syncer propagates committed local mutations to the remote store.
// Implementations dispatch asynchronously and best-effort; the local
// commit is final whether or not the dispatch lands.
type Syncer interface {
	LetterSaved(l Letter)
	LetterUpdated(l Letter)
	LetterDeleted(id string)
}

// Uploader transmits attachment content for out-of-band storage. The
// remote assigns the final access URL asynchronously; the dispatch
// outcome does not carry it.
type Uploader interface {
	UploadAttachment(ctx context.Context, fileName string, data []byte, mimeType, letterNumber string) error
}
