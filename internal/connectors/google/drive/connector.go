package drive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/quarrylabs/quarry/internal/connectors/google"
	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// watchPollInterval is how often Watch polls the changes feed.
// Drive push notifications need a public HTTPS endpoint, which a CLI
// process does not have.
const watchPollInterval = 30 * time.Second

// Connector fetches documents from Google Drive.
type Connector struct {
	sourceID string
	config   *Config
	svc      *drive.Service
	limiter  *google.RateLimiter
	mu       sync.Mutex
	closed   bool
}

// New creates a Drive connector backed by an authenticated API service.
func New(sourceID string, cfg *Config, svc *drive.Service) *Connector {
	return &Connector{
		sourceID: sourceID,
		config:   cfg,
		svc:      svc,
		limiter:  google.NewRateLimiter(),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.SourceTypeDrive
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:  true,
		SupportsWatch:        true,
		RequiresAuth:         true,
		SupportsValidation:   true,
		SupportsCursorReturn: true,
	}
}

// Validate checks credentials and the configured folder with
// lightweight API calls.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrConnectorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if c.svc == nil {
		return fmt.Errorf("%w: drive service not initialised", domain.ErrConnectorValidation)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.svc.About.Get().Fields("user").Context(ctx).Do(); err != nil {
		if google.IsUnauthorized(err) {
			return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, google.ErrUnauthorized)
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, google.WrapError(err))
	}

	if c.config.FolderID != "" {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := c.svc.Files.Get(c.config.FolderID).Fields("id", "mimeType").Context(ctx).Do()
		if err != nil {
			if google.IsNotFound(err) {
				return fmt.Errorf("%w: folder %s not found", domain.ErrConnectorValidation, c.config.FolderID)
			}
			return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, google.WrapError(err))
		}
	}

	return nil
}

// FullSync streams every syncable file in the configured scope.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsChan := make(chan domain.RawDocument)
	errsChan := make(chan error, 1)

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsChan <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}

		// The anchor token is taken before listing so changes made
		// while the sync runs replay on the next incremental pass.
		startToken, err := c.currentStartToken(ctx)
		if err != nil {
			if ctx.Err() == nil {
				errsChan <- fmt.Errorf("getting start page token: %w", err)
			}
			return
		}

		err = c.listFiles(ctx, func(file *drive.File) error {
			doc, err := c.fetchDocument(ctx, file)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Files whose content cannot be fetched are skipped;
				// the next sync retries them.
				return nil
			}
			if doc == nil {
				return nil
			}
			select {
			case docsChan <- *doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			errsChan <- err
			return
		}

		encoded, err := Cursor{Version: CursorVersion, StartPageToken: startToken}.Encode()
		if err != nil {
			errsChan <- fmt.Errorf("encoding cursor: %w", err)
			return
		}
		errsChan <- &driven.SyncComplete{NewCursor: encoded}
	}()

	return docsChan, errsChan
}

// IncrementalSync streams changes recorded by Drive since the cursor.
// When the stored page token has expired, the whole scope is replayed
// as updates under a fresh token.
func (c *Connector) IncrementalSync(ctx context.Context, state domain.SyncState) (<-chan domain.RawDocumentChange, <-chan error) {
	changesChan := make(chan domain.RawDocumentChange)
	errsChan := make(chan error, 1)

	go func() {
		defer close(changesChan)
		defer close(errsChan)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsChan <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}

		cursor, err := DecodeCursor(state.Cursor)
		if err != nil {
			errsChan <- err
			return
		}

		if cursor.IsEmpty() {
			c.resyncAll(ctx, changesChan, errsChan)
			return
		}

		newToken, err := c.streamChanges(ctx, cursor.StartPageToken, changesChan)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if google.IsSyncTokenExpired(err) {
				c.resyncAll(ctx, changesChan, errsChan)
				return
			}
			errsChan <- err
			return
		}

		encoded, err := Cursor{Version: CursorVersion, StartPageToken: newToken}.Encode()
		if err != nil {
			errsChan <- fmt.Errorf("encoding cursor: %w", err)
			return
		}
		errsChan <- &driven.SyncComplete{NewCursor: encoded}
	}()

	return changesChan, errsChan
}

// Watch polls the changes feed and emits document changes as they
// appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrConnectorClosed
	}
	c.mu.Unlock()

	if c.svc == nil {
		return nil, errors.New("drive service not initialised")
	}

	// Anchor at the current head of the feed; only changes from this
	// point on are reported.
	token, err := c.currentStartToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting start page token: %w", err)
	}

	changesChan := make(chan domain.RawDocumentChange)
	go c.watchLoop(ctx, token, changesChan)

	return changesChan, nil
}

// Close releases connector resources. Safe to call multiple times.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// watchLoop polls the changes feed until the context is cancelled.
func (c *Connector) watchLoop(ctx context.Context, token string, changesChan chan<- domain.RawDocumentChange) {
	defer close(changesChan)

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			next, err := c.streamChanges(ctx, token, changesChan)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if google.IsSyncTokenExpired(err) {
					// Re-anchor; the next scheduled sync reconciles
					// anything missed in between.
					if fresh, terr := c.currentStartToken(ctx); terr == nil {
						token = fresh
					}
				}
				// Other errors are transient; poll again next tick.
				continue
			}
			token = next
		}
	}
}

// streamChanges walks the changes feed from token, emitting document
// changes, and returns the token to resume from.
func (c *Connector) streamChanges(ctx context.Context, token string, changesChan chan<- domain.RawDocumentChange) (string, error) {
	nextStart := token

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nextStart, err
		}

		resp, err := c.svc.Changes.List(token).
			PageSize(c.config.PageSize).
			IncludeRemoved(true).
			Fields("nextPageToken, newStartPageToken, changes(fileId, removed, file(id, name, mimeType, size, modifiedTime, trashed, parents))").
			Context(ctx).
			Do()
		if err != nil {
			if google.IsRateLimited(err) {
				c.limiter.RecordRateLimitError(0)
			}
			return nextStart, fmt.Errorf("listing changes: %w", google.WrapError(err))
		}

		for _, change := range resp.Changes {
			docChange, err := c.convertChange(ctx, change)
			if err != nil {
				if ctx.Err() != nil {
					return nextStart, ctx.Err()
				}
				// A change whose content cannot be fetched is dropped.
				continue
			}
			if docChange == nil {
				continue
			}
			select {
			case changesChan <- *docChange:
			case <-ctx.Done():
				return nextStart, ctx.Err()
			}
		}

		if resp.NewStartPageToken != "" {
			nextStart = resp.NewStartPageToken
		}
		if resp.NextPageToken == "" {
			return nextStart, nil
		}
		token = resp.NextPageToken
	}
}

// convertChange maps one Drive change onto a document change.
// Returns nil for changes outside the configured scope.
func (c *Connector) convertChange(ctx context.Context, change *drive.Change) (*domain.RawDocumentChange, error) {
	if change.Removed || (change.File != nil && change.File.Trashed) {
		return &domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				SourceID:   c.sourceID,
				DocumentID: change.FileId,
				URI:        FileURI(change.FileId),
			},
		}, nil
	}

	file := change.File
	if file == nil || !c.inScope(file) {
		return nil, nil
	}

	doc, err := c.fetchDocument(ctx, file)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	// The changes feed does not distinguish creation from modification.
	return &domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: *doc}, nil
}

// fetchDocument downloads one file behind the rate limiter.
func (c *Connector) fetchDocument(ctx context.Context, file *drive.File) (*domain.RawDocument, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	doc, err := FileToRawDocument(ctx, c.svc, file, c.sourceID)
	if err != nil {
		if google.IsRateLimited(err) {
			c.limiter.RecordRateLimitError(0)
		}
		return nil, err
	}
	return doc, nil
}

// resyncAll replays every file in scope as an update and anchors a
// fresh cursor. Used when no stored page token can be resumed.
func (c *Connector) resyncAll(ctx context.Context, changesChan chan<- domain.RawDocumentChange, errsChan chan<- error) {
	startToken, err := c.currentStartToken(ctx)
	if err != nil {
		if ctx.Err() == nil {
			errsChan <- fmt.Errorf("getting start page token: %w", err)
		}
		return
	}

	err = c.listFiles(ctx, func(file *drive.File) error {
		doc, err := c.fetchDocument(ctx, file)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		if doc == nil {
			return nil
		}
		select {
		case changesChan <- domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: *doc}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		errsChan <- err
		return
	}

	encoded, err := Cursor{Version: CursorVersion, StartPageToken: startToken}.Encode()
	if err != nil {
		errsChan <- fmt.Errorf("encoding cursor: %w", err)
		return
	}
	errsChan <- &driven.SyncComplete{NewCursor: encoded}
}

// listFiles pages through the files listing, invoking fn for each file
// that passes the sync filters.
func (c *Connector) listFiles(ctx context.Context, fn func(*drive.File) error) error {
	pageToken := ""

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		call := c.svc.Files.List().
			Q(c.listQuery()).
			PageSize(c.config.PageSize).
			Fields("nextPageToken, files(id, name, mimeType, size, modifiedTime, trashed, parents)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			if google.IsRateLimited(err) {
				c.limiter.RecordRateLimitError(0)
			}
			return fmt.Errorf("listing files: %w", google.WrapError(err))
		}

		for _, file := range resp.Files {
			if !ShouldSyncFile(file, c.config) {
				continue
			}
			if err := fn(file); err != nil {
				return err
			}
		}

		if resp.NextPageToken == "" {
			return nil
		}
		pageToken = resp.NextPageToken
	}
}

// listQuery builds the files.list query for the configured scope.
func (c *Connector) listQuery() string {
	if c.config.FolderID != "" {
		// Direct children of the configured folder.
		return fmt.Sprintf("'%s' in parents and trashed = false", c.config.FolderID)
	}
	return "trashed = false"
}

// inScope applies the folder and MIME filters to a changed file.
// The changes feed covers the whole drive, so folder scoping has to be
// re-checked per change.
func (c *Connector) inScope(file *drive.File) bool {
	if !ShouldSyncFile(file, c.config) {
		return false
	}

	if c.config.FolderID != "" {
		for _, parent := range file.Parents {
			if parent == c.config.FolderID {
				return true
			}
		}
		return false
	}

	return true
}

// currentStartToken asks Drive for the current head of the changes feed.
func (c *Connector) currentStartToken(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.svc.Changes.GetStartPageToken().Context(ctx).Do()
	if err != nil {
		return "", google.WrapError(err)
	}
	return resp.StartPageToken, nil
}
