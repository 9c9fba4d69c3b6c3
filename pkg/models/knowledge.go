package models

// Document is one source file of a tenant's knowledge corpus.
type Document struct {
	ID    string `json:"id"` // Stable identifier, the path relative to the corpus root
	Title string `json:"title"`
	Path  string `json:"path"`
	Body  string `json:"body"`
}

// KnowledgeChunk is an immutable window of a Document, identified by
// (DocumentID, Index). Chunks are recomputed from source, never edited.
type KnowledgeChunk struct {
	DocumentID  string `json:"document_id"`
	Index       int    `json:"index"`
	Text        string `json:"text"`
	SourceTitle string `json:"source_title"`
}

// SearchResult is a scored chunk returned by lexical retrieval.
type SearchResult struct {
	Chunk KnowledgeChunk `json:"chunk"`
	Score int            `json:"score"`
}

// SourceTitle returns the title of the document the chunk came from.
func (r SearchResult) SourceTitle() string {
	return r.Chunk.SourceTitle
}
