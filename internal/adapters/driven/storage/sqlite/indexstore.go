package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

// indexStore implements driven.IndexStore. Entries for both retrieval
// channels live in one table plus an FTS5 shadow, so a document's
// version swap commits in a single transaction.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// Upsert replaces all entries for the document with the given set.
// Writes for a version older than the stored one fail with ErrStaleWrite
// and change nothing; rewriting the same version is idempotent.
func (s *indexStore) Upsert(ctx context.Context, documentID string, version int64, entries []domain.IndexEntry) error {
	if documentID == "" {
		return fmt.Errorf("%w: document ID is empty", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var current int64
	err = tx.QueryRowContext(ctx,
		"SELECT version FROM index_versions WHERE document_id = ?", documentID).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		// First write for this document.
	case err != nil:
		return fmt.Errorf("reading index version: %w", err)
	case version < current:
		return fmt.Errorf("%w: document %s holds version %d, rejected version %d",
			domain.ErrStaleWrite, documentID, current, version)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM entries WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM entries_fts WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing keyword index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (chunk_id, document_id, version, ordinal, document_name, text, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing entry insert: %w", err)
	}
	defer stmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries_fts (chunk_id, document_id, text)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing keyword insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, entry := range entries {
		vectorBlob := float32SliceToBytes(entry.Vector)
		if _, err := stmt.ExecContext(ctx, entry.ChunkID, entry.DocumentID, entry.Version,
			entry.Ordinal, entry.DocumentName, entry.Text, vectorBlob); err != nil {
			return fmt.Errorf("inserting entry %s: %w", entry.ChunkID, err)
		}
		if _, err := ftsStmt.ExecContext(ctx, entry.ChunkID, entry.DocumentID, entry.Text); err != nil {
			return fmt.Errorf("indexing entry %s: %w", entry.ChunkID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_versions (document_id, version)
		VALUES (?, ?)
		ON CONFLICT(document_id) DO UPDATE SET version = excluded.version
	`, documentID, version); err != nil {
		return fmt.Errorf("recording index version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entries: %w", err)
	}
	return nil
}

// Delete removes all entries for a document. Unknown documents are a no-op.
func (s *indexStore) Delete(ctx context.Context, documentID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM entries WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM entries_fts WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting keyword index: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM index_versions WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting index version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing deletion: %w", err)
	}
	return nil
}

// VectorSearch ranks entries by cosine similarity to the query vector.
// Vectors are scored in Go after decoding the stored blobs.
func (s *indexStore) VectorSearch(ctx context.Context, query []float32, k int) ([]driven.IndexHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", domain.ErrInvalidInput)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, version, ordinal, document_name, text, vector
		FROM entries
		WHERE vector IS NOT NULL AND length(vector) > 0
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var hits []driven.IndexHit
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if len(entry.Vector) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, entry %s has %d",
				domain.ErrDimensionMismatch, len(query), entry.ChunkID, len(entry.Vector))
		}
		hits = append(hits, driven.IndexHit{
			Entry: entry,
			Score: cosineSimilarity(query, entry.Vector),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return rankHits(hits, k), nil
}

// KeywordSearch ranks entries by how often the query's stemmed terms
// occur in the entry text. FTS5 narrows the candidate set; scoring and
// ordering happen in Go so results rank identically to the in-memory
// store.
func (s *indexStore) KeywordSearch(ctx context.Context, query string, k int) ([]driven.IndexHit, error) {
	queryTerms := domain.Tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	match := ftsMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	unique := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		unique[term] = struct{}{}
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT e.chunk_id, e.document_id, e.version, e.ordinal, e.document_name, e.text, e.vector
		FROM entries_fts
		JOIN entries e ON e.chunk_id = entries_fts.chunk_id
		WHERE entries_fts MATCH ?
	`, match)
	if err != nil {
		return nil, fmt.Errorf("querying keyword index: %w", err)
	}
	defer rows.Close()

	var hits []driven.IndexHit
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		score := termFrequency(entry.Text, unique)
		if score <= 0 {
			continue
		}
		hits = append(hits, driven.IndexHit{Entry: entry, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keyword hits: %w", err)
	}

	return rankHits(hits, k), nil
}

// Close is a no-op; the owning Store closes the connection.
func (s *indexStore) Close() error {
	return nil
}

// scanEntry scans an index entry from *sql.Rows.
func scanEntry(rows *sql.Rows) (domain.IndexEntry, error) {
	var entry domain.IndexEntry
	var vectorBlob []byte

	if err := rows.Scan(&entry.ChunkID, &entry.DocumentID, &entry.Version,
		&entry.Ordinal, &entry.DocumentName, &entry.Text, &vectorBlob); err != nil {
		return domain.IndexEntry{}, fmt.Errorf("scanning entry: %w", err)
	}

	entry.Vector = bytesToFloat32Slice(vectorBlob)
	return entry, nil
}

// ftsMatchQuery builds an OR query over the words worth looking up.
// Each word is quoted so user input cannot inject FTS5 operators, and
// words the tokeniser would drop (stopwords) are skipped.
func ftsMatchQuery(query string) string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var quoted []string
	for _, w := range words {
		if len(domain.Tokenize(w)) == 0 {
			continue
		}
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// rankHits sorts by score descending, then ordinal, then document ID,
// and truncates to k.
func rankHits(hits []driven.IndexHit, k int) []driven.IndexHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Entry.Ordinal != hits[j].Entry.Ordinal {
			return hits[i].Entry.Ordinal < hits[j].Entry.Ordinal
		}
		return hits[i].Entry.DocumentID < hits[j].Entry.DocumentID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// termFrequency sums how often each query term occurs in the text after
// tokenisation and stemming.
func termFrequency(text string, queryTerms map[string]struct{}) float64 {
	count := 0
	for _, token := range domain.Tokenize(text) {
		if _, ok := queryTerms[token]; ok {
			count++
		}
	}
	return float64(count)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors yield zero similarity.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
