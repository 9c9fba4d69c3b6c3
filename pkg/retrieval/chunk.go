package retrieval

import (
	"strings"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ValidateChunkParams rejects window parameters that would not advance.
func ValidateChunkParams(size, overlap int) error {
	if size <= 0 {
		return apperrors.NewConfigurationError("chunk size", "must be positive")
	}
	if overlap < 0 {
		return apperrors.NewConfigurationError("chunk overlap", "must not be negative")
	}
	if overlap >= size {
		return apperrors.NewConfigurationError("chunk overlap", "must be smaller than chunk size")
	}
	return nil
}

// Chunk splits text into windows of size runes starting at 0 and advancing
// by size-overlap. Each window is trimmed and empty windows are dropped; the
// final partial window is kept.
func Chunk(text string, size, overlap int) ([]string, error) {
	if err := ValidateChunkParams(size, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	step := size - overlap
	chunks := make([]string, 0, len(runes)/step+1)

	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		if window := strings.TrimSpace(string(runes[start:end])); window != "" {
			chunks = append(chunks, window)
		}
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// ChunkDocument chunks a document body into KnowledgeChunks that each carry
// the document id, their position and a copy of the document title.
func ChunkDocument(doc models.Document, size, overlap int) ([]models.KnowledgeChunk, error) {
	texts, err := Chunk(doc.Body, size, overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.KnowledgeChunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.KnowledgeChunk{
			DocumentID:  doc.ID,
			Index:       i,
			Text:        text,
			SourceTitle: doc.Title,
		}
	}
	return chunks, nil
}
