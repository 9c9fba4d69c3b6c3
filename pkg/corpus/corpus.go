// Package corpus reads tenant knowledge documents from disk.
package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-studio/pkg/models"
	"github.com/ekaya-inc/ekaya-studio/pkg/retrieval"
)

// Corpus provides a tenant's knowledge chunks.
type Corpus interface {
	// Documents returns the tenant's documents, or the shared documents when
	// the tenant has none.
	Documents(ctx context.Context, tenantID uuid.UUID) ([]models.Document, error)
	// Chunks returns every document of Documents split for retrieval.
	Chunks(ctx context.Context, tenantID uuid.UUID) ([]models.KnowledgeChunk, error)
}

// Config locates the corpus on disk and sets chunking.
type Config struct {
	Root      string
	SharedDir string
	// CacheTTL keeps loaded tenants in memory. 0 disables caching.
	CacheTTL     time.Duration
	ChunkSize    int
	ChunkOverlap int
}

var documentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

type entry struct {
	docs   []models.Document
	chunks []models.KnowledgeChunk
}

// FileCorpus reads markdown-like files under <root>/<tenantID>/ and falls
// back to <root>/<shared>/.
type FileCorpus struct {
	cfg      Config
	cache    *cache.Cache
	markdown goldmark.Markdown
	logger   *zap.Logger
}

var _ Corpus = (*FileCorpus)(nil)

// NewFileCorpus validates chunking up front so a bad configuration fails at
// startup rather than on the first request.
func NewFileCorpus(cfg Config, logger *zap.Logger) (*FileCorpus, error) {
	if err := retrieval.ValidateChunkParams(cfg.ChunkSize, cfg.ChunkOverlap); err != nil {
		return nil, err
	}
	if cfg.SharedDir == "" {
		cfg.SharedDir = "_shared"
	}

	c := &FileCorpus{
		cfg:      cfg,
		markdown: goldmark.New(),
		logger:   logger.Named("corpus"),
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c, nil
}

func (c *FileCorpus) Documents(ctx context.Context, tenantID uuid.UUID) ([]models.Document, error) {
	e, err := c.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return e.docs, nil
}

func (c *FileCorpus) Chunks(ctx context.Context, tenantID uuid.UUID) ([]models.KnowledgeChunk, error) {
	e, err := c.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return e.chunks, nil
}

// Invalidate drops a tenant's cached documents.
func (c *FileCorpus) Invalidate(tenantID uuid.UUID) {
	if c.cache != nil {
		c.cache.Delete(tenantID.String())
	}
}

func (c *FileCorpus) load(ctx context.Context, tenantID uuid.UUID) (*entry, error) {
	key := tenantID.String()
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.(*entry), nil
		}
	}

	docs, err := c.readDir(ctx, filepath.Join(c.cfg.Root, key))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		docs, err = c.readDir(ctx, filepath.Join(c.cfg.Root, c.cfg.SharedDir))
		if err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			c.logger.Debug("Using shared knowledge corpus",
				zap.String("tenant_id", key),
				zap.Int("documents", len(docs)))
		}
	}

	e := &entry{docs: docs, chunks: make([]models.KnowledgeChunk, 0)}
	for _, doc := range docs {
		chunks, err := retrieval.ChunkDocument(doc, c.cfg.ChunkSize, c.cfg.ChunkOverlap)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
		}
		e.chunks = append(e.chunks, chunks...)
	}

	if c.cache != nil {
		c.cache.Set(key, e, cache.DefaultExpiration)
	}
	return e, nil
}

// readDir returns the readable documents under dir in lexical path order.
// A missing directory yields no documents.
func (c *FileCorpus) readDir(ctx context.Context, dir string) ([]models.Document, error) {
	docs := make([]models.Document, 0)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return fs.SkipAll
			}
			c.logger.Warn("Skipping unreadable corpus path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !documentExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		body, readErr := os.ReadFile(path)
		if readErr != nil {
			c.logger.Warn("Skipping unreadable document", zap.String("path", path), zap.Error(readErr))
			return nil
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}

		id, relErr := filepath.Rel(c.cfg.Root, path)
		if relErr != nil {
			id = path
		}
		docs = append(docs, models.Document{
			ID:    filepath.ToSlash(id),
			Title: c.title(path, body),
			Path:  path,
			Body:  string(body),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", dir, err)
	}

	return docs, nil
}

// title returns the first markdown heading, or the file name without its
// extension when the document has none.
func (c *FileCorpus) title(path string, body []byte) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return base
	}

	doc := c.markdown.Parser().Parse(text.NewReader(body))

	var heading string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		heading = strings.TrimSpace(inlineText(h, body))
		if heading == "" {
			return ast.WalkContinue, nil
		}
		return ast.WalkStop, nil
	})

	if heading != "" {
		return heading
	}
	return base
}

func inlineText(n ast.Node, source []byte) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
