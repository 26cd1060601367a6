package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mrpdigital/office-portal/internal/domain/letter"
	"github.com/mrpdigital/office-portal/internal/remote"
)

// Store is the slice of the local record store hydration needs.
type Store interface {
	ReplaceAll(ctx context.Context, letters []letter.Letter) error
}

// Remote is the sync client surface the controller drives.
type Remote interface {
	PushSaveLetter(ctx context.Context, data any) remote.SyncResult
	PushUpdateLetter(ctx context.Context, id string, data any) remote.SyncResult
	PushDeleteLetter(ctx context.Context, id string) remote.SyncResult
	PullAll(ctx context.Context) (remote.PullResult, error)
	Ping(ctx context.Context) bool
}

// Status describes the last known relationship with the remote store.
// RecordCount and Quarantined count what the last successful hydration
// received from the remote, not what the local store holds; on an empty
// pull the local records stay put while RecordCount reads 0.
type Status struct {
	Reachable     bool      `json:"reachable"`
	LastHydration time.Time `json:"lastHydration,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
	RecordCount   int       `json:"recordCount"`
	Quarantined   int       `json:"quarantined"`
}

// Controller decides which data set wins at the two reconciliation
// points: startup hydration (remote wins when non-empty) and
// post-mutation propagation (local commit is final, remote is
// eventually consistent at best). Failed pushes are logged and lost;
// there is deliberately no retry queue.
type Controller struct {
	store   Store
	remote  Remote
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	status Status

	inflight sync.WaitGroup
}

// NewController creates a reconciliation controller. timeout bounds
// each async push dispatch; zero means 30 seconds.
func NewController(store Store, rem Remote, timeout time.Duration, logger *slog.Logger) *Controller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:   store,
		remote:  rem,
		logger:  logger,
		timeout: timeout,
	}
}

// Hydrate pulls the full remote record set and, when it is non-empty,
// overwrites the local store with it. An empty or failed pull leaves
// the local store untouched so the portal keeps working offline.
// Startup awaits this so the allocator sees the freshest base before
// any new number is handed out.
func (c *Controller) Hydrate(ctx context.Context) error {
	res, err := c.remote.PullAll(ctx)
	if err != nil {
		pullTotal.WithLabelValues("error").Inc()
		c.setStatus(func(s *Status) {
			s.Reachable = false
			s.LastError = err.Error()
		})
		c.logger.Warn("hydration failed, keeping local records", "error", err)
		return fmt.Errorf("hydration: %w", err)
	}

	pullTotal.WithLabelValues("ok").Inc()
	quarantinedRowsTotal.Add(float64(res.Quarantined))

	if len(res.Letters) == 0 {
		c.setStatus(func(s *Status) {
			s.Reachable = true
			s.LastHydration = time.Now()
			s.LastError = ""
			s.RecordCount = 0
			s.Quarantined = res.Quarantined
		})
		c.logger.Info("remote store empty, keeping local records")
		return nil
	}

	if err := c.store.ReplaceAll(ctx, res.Letters); err != nil {
		return fmt.Errorf("hydration: replacing local records: %w", err)
	}

	c.setStatus(func(s *Status) {
		s.Reachable = true
		s.LastHydration = time.Now()
		s.LastError = ""
		s.RecordCount = len(res.Letters)
		s.Quarantined = res.Quarantined
	})
	c.logger.Info("hydrated from remote store",
		"records", len(res.Letters), "quarantined", res.Quarantined)
	return nil
}

// LetterSaved propagates a created letter. Implements letter.Syncer.
func (c *Controller) LetterSaved(l letter.Letter) {
	c.dispatch(string(remote.ActionSaveLetter), func(ctx context.Context) remote.SyncResult {
		return c.remote.PushSaveLetter(ctx, l)
	})
}

// LetterUpdated propagates an updated letter.
func (c *Controller) LetterUpdated(l letter.Letter) {
	c.dispatch(string(remote.ActionUpdateLetter), func(ctx context.Context) remote.SyncResult {
		return c.remote.PushUpdateLetter(ctx, l.ID, l)
	})
}

// LetterDeleted propagates a deletion.
func (c *Controller) LetterDeleted(id string) {
	c.dispatch(string(remote.ActionDeleteLetter), func(ctx context.Context) remote.SyncResult {
		return c.remote.PushDeleteLetter(ctx, id)
	})
}

// dispatch runs a push in the background. The caller's mutation is
// already committed; a failed dispatch is logged and dropped.
func (c *Controller) dispatch(action string, push func(ctx context.Context) remote.SyncResult) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		res := push(ctx)
		pushTotal.WithLabelValues(action, string(res.State)).Inc()
		if res.State == remote.Failed {
			c.logger.Warn("push lost", "action", action, "reason", res.Reason)
		}
	}()
}

// Ping refreshes and reports remote reachability.
func (c *Controller) Ping(ctx context.Context) bool {
	ok := c.remote.Ping(ctx)
	c.setStatus(func(s *Status) { s.Reachable = ok })
	return ok
}

// Status returns the last known sync state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Flush waits for in-flight pushes to finish. Used on shutdown so a
// just-created letter's dispatch isn't cut off mid-request.
func (c *Controller) Flush() {
	c.inflight.Wait()
}

func (c *Controller) setStatus(apply func(*Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	apply(&c.status)
}
