package domain

// RetrieveOptions configures a hybrid retrieval query.
// Zero values fall back to the configured defaults.
type RetrieveOptions struct {
	// K is the maximum number of results.
	K int

	// VectorWeight scales the normalised vector similarity sub-score.
	VectorWeight float64

	// KeywordWeight scales the normalised keyword sub-score.
	KeywordWeight float64
}

// RetrievalResult is a single fused search hit with source attribution.
type RetrievalResult struct {
	// Entry is the matched index entry, including the chunk text.
	Entry IndexEntry

	// Score is the fused score:
	// vectorWeight*VectorScore + keywordWeight*KeywordScore.
	Score float64

	// VectorScore is the vector similarity sub-score, normalised to
	// [0,1] against the best vector hit of this query. Zero when the
	// chunk was found by keyword search only.
	VectorScore float64

	// KeywordScore is the keyword sub-score, normalised the same way.
	// Zero when the chunk was found by vector search only.
	KeywordScore float64

	// DocumentName is the owning document's display name, for citation.
	DocumentName string
}
