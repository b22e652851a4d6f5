package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// debounceWindow coalesces bursts of filesystem events for the same file.
// Editors often emit several writes per save.
const debounceWindow = 200 * time.Millisecond

// Connector indexes files from a local upload directory.
type Connector struct {
	sourceID string
	config   *Config
	mu       sync.Mutex
	closed   bool
}

// New creates an upload connector from a source configuration.
func New(source domain.Source) (*Connector, error) {
	cfg, err := ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return &Connector{
		sourceID: source.ID,
		config:   cfg,
	}, nil
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.SourceTypeUpload
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
		RequiresAuth:         false,
		SupportsValidation:   true,
		SupportsCursorReturn: true,
	}
}

// Validate checks that the configured root directory is usable.
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

	if err := c.checkRoot(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}
	return nil
}

// FullSync streams every visible file under the configured root.
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

		if err := c.checkRoot(); err != nil {
			errsChan <- err
			return
		}

		// Watermark is taken before the walk so files modified while
		// the sync runs are picked up again next time.
		start := time.Now()
		var seen []string

		walkErr := c.walkFiles(func(path, rel string, info fs.FileInfo) error {
			seen = append(seen, filepath.ToSlash(rel))

			doc, err := c.readDocument(path, rel, info)
			if err != nil {
				// Unreadable files are skipped, not fatal.
				return nil
			}
			select {
			case docsChan <- doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if walkErr != nil {
			if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
				return
			}
			errsChan <- fmt.Errorf("walking %s: %w", c.config.Path, walkErr)
			return
		}

		cursor := Cursor{Version: CursorVersion, Watermark: start.UnixNano(), Paths: seen}
		encoded, err := cursor.Encode()
		if err != nil {
			errsChan <- fmt.Errorf("encoding cursor: %w", err)
			return
		}
		errsChan <- &driven.SyncComplete{NewCursor: encoded}
	}()

	return docsChan, errsChan
}

// IncrementalSync streams changes since the cursor in the sync state.
// Files recorded in the cursor but no longer on disk are reported as
// deletions.
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

		if err := c.checkRoot(); err != nil {
			errsChan <- err
			return
		}

		known := make(map[string]bool, len(cursor.Paths))
		for _, p := range cursor.Paths {
			known[p] = true
		}

		watermark := cursor.WatermarkTime()
		start := time.Now()
		var seen []string

		send := func(change domain.RawDocumentChange) error {
			select {
			case changesChan <- change:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		walkErr := c.walkFiles(func(path, rel string, info fs.FileInfo) error {
			key := filepath.ToSlash(rel)
			seen = append(seen, key)

			if cursor.IsEmpty() {
				doc, err := c.readDocument(path, rel, info)
				if err != nil {
					return nil
				}
				return send(domain.RawDocumentChange{Type: domain.ChangeCreated, Document: doc})
			}

			// Inclusive comparison so a file stamped exactly at the
			// watermark is not lost between syncs.
			if info.ModTime().Before(watermark) {
				return nil
			}

			doc, err := c.readDocument(path, rel, info)
			if err != nil {
				return nil
			}

			changeType := domain.ChangeCreated
			if known[key] {
				changeType = domain.ChangeUpdated
			}
			return send(domain.RawDocumentChange{Type: changeType, Document: doc})
		})
		if walkErr != nil {
			if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
				return
			}
			errsChan <- fmt.Errorf("walking %s: %w", c.config.Path, walkErr)
			return
		}

		// Files known to the previous cursor but missing from the walk
		// have been removed.
		seenSet := make(map[string]bool, len(seen))
		for _, p := range seen {
			seenSet[p] = true
		}
		for _, p := range cursor.Paths {
			if seenSet[p] {
				continue
			}
			full := filepath.Join(c.config.Path, filepath.FromSlash(p))
			err := send(domain.RawDocumentChange{
				Type: domain.ChangeDeleted,
				Document: domain.RawDocument{
					SourceID:   c.sourceID,
					DocumentID: c.documentID(p),
					Name:       filepath.Base(full),
					URI:        fileURI(full),
				},
			})
			if err != nil {
				return
			}
		}

		next := Cursor{Version: CursorVersion, Watermark: start.UnixNano(), Paths: seen}
		encoded, err := next.Encode()
		if err != nil {
			errsChan <- fmt.Errorf("encoding cursor: %w", err)
			return
		}
		errsChan <- &driven.SyncComplete{NewCursor: encoded}
	}()

	return changesChan, errsChan
}

// Watch emits document changes as files under the root are created,
// modified or removed.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrConnectorClosed
	}
	c.mu.Unlock()

	if err := c.checkRoot(); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	// Watch the root and every visible subdirectory.
	err = filepath.WalkDir(c.config.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isHidden(c.relOrSelf(path)) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", c.config.Path, err)
	}

	changesChan := make(chan domain.RawDocumentChange)
	go c.watchLoop(ctx, watcher, changesChan)

	return changesChan, nil
}

// Close releases connector resources. Safe to call multiple times.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// watchLoop drains filesystem events, coalesces them per path and
// converts them into document changes.
func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changesChan chan<- domain.RawDocumentChange) {
	defer close(changesChan)
	defer watcher.Close()

	pending := make(map[string]fsnotify.Op)
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() bool {
		for path, op := range pending {
			delete(pending, path)
			change := c.handleFsEvent(fsnotify.Event{Name: path, Op: op})
			if change == nil {
				continue
			}
			select {
			case changesChan <- *change:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Start watching directories as they appear.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !isHidden(c.relOrSelf(event.Name)) {
						_ = watcher.Add(event.Name)
					}
					continue
				}
			}

			pending[event.Name] |= event.Op
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if !flush() {
				return
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Transient watcher errors are dropped; the next sync
			// reconciles anything missed.
		}
	}
}

// handleFsEvent converts a filesystem notification into a document
// change. Returns nil for events that produce none.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	rel := c.relOrSelf(event.Name)

	if isHidden(rel) {
		return nil
	}
	if !c.config.Matches(filepath.Base(event.Name)) {
		return nil
	}

	// Removed files cannot be stat'd; the change is derived from the
	// path alone.
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		return &domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				SourceID:   c.sourceID,
				DocumentID: c.documentID(rel),
				Name:       filepath.Base(event.Name),
				URI:        fileURI(event.Name),
			},
		}
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return nil
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		doc, err := c.readDocument(event.Name, rel, info)
		if err != nil {
			return nil
		}
		return &domain.RawDocumentChange{Type: domain.ChangeCreated, Document: doc}

	case event.Op.Has(fsnotify.Write):
		doc, err := c.readDocument(event.Name, rel, info)
		if err != nil {
			return nil
		}
		return &domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: doc}

	default:
		// Chmod and other attribute-only events carry no content change.
		return nil
	}
}

// walkFiles visits every visible file under the root that passes the
// pattern filter.
func (c *Connector) walkFiles(fn func(path, rel string, info fs.FileInfo) error) error {
	return filepath.WalkDir(c.config.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel := c.relOrSelf(path)

		if d.IsDir() {
			if isHidden(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(rel) || !c.config.Matches(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// The file disappeared between listing and stat.
			return nil
		}
		return fn(path, rel, info)
	})
}

// readDocument loads a file into a RawDocument.
func (c *Connector) readDocument(path, rel string, info fs.FileInfo) (domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return domain.RawDocument{
		SourceID:   c.sourceID,
		DocumentID: c.documentID(rel),
		Name:       filepath.Base(path),
		URI:        fileURI(path),
		MIMEType:   detectMIMEType(path),
		Content:    content,
		ModifiedAt: info.ModTime(),
	}, nil
}

// checkRoot verifies the configured path exists and is a directory.
func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.config.Path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", c.config.Path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", c.config.Path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", c.config.Path)
	}
	return nil
}

// documentID derives a stable identifier from the source and the
// root-relative path. Moving the root directory does not change the
// identity of the files inside it.
func (c *Connector) documentID(rel string) string {
	sum := sha256.Sum256([]byte(c.sourceID + ":" + filepath.ToSlash(rel)))
	return hex.EncodeToString(sum[:8])
}

// relOrSelf returns the path relative to the configured root, or the
// path unchanged when it lies outside the root.
func (c *Connector) relOrSelf(path string) string {
	rel, err := filepath.Rel(c.config.Path, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// fileURI builds a file:// URI from a path.
func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}
