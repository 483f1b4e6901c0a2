package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"semsearch/internal/adapter/analyzer"
	"semsearch/internal/adapter/chunker"
	"semsearch/internal/adapter/embedding"
	"semsearch/internal/adapter/fs"
	"semsearch/internal/domain"
	"semsearch/internal/port"
)

// DefaultMinSectionLength is the shortest normalized content that is embedded.
const DefaultMinSectionLength = 5

// IndexOptions tunes an IndexUseCase.
type IndexOptions struct {
	MinSectionLength int
	Workers          int
	Shape            domain.IndexShape
}

// IndexUseCase builds an index from a directory of markdown documents.
type IndexUseCase struct {
	walker   port.FileWalker
	chunker  *chunker.SectionChunker
	embedder port.Embedder
	opts     IndexOptions
}

// NewIndexUseCase creates a new index use case. Embedders that are not
// reentrant are serialized so that only one embedding call is in flight.
func NewIndexUseCase(
	walker port.FileWalker,
	chunker *chunker.SectionChunker,
	embedder port.Embedder,
	opts IndexOptions,
) *IndexUseCase {
	if opts.MinSectionLength <= 0 {
		opts.MinSectionLength = DefaultMinSectionLength
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &IndexUseCase{
		walker:   walker,
		chunker:  chunker,
		embedder: embedding.Guard(embedder),
		opts:     opts,
	}
}

// ProgressFunc is called after each document has been processed.
type ProgressFunc func(processed, total int, path string)

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	FilesFound       int
	FilesIndexed     int
	SectionsIndexed  int
	SectionsEmbedded int
	SectionsSkipped  int
}

// Scan reads every matching file under root, in relative path order.
func (u *IndexUseCase) Scan(root string) ([]domain.Document, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	docs := make([]domain.Document, 0, len(files))
	for _, file := range files {
		content, err := fs.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.RelPath, err)
		}
		docs = append(docs, domain.Document{Path: file.RelPath, Body: content})
	}
	return docs, nil
}

// Index reads every matching file under root and builds a fresh index.
func (u *IndexUseCase) Index(ctx context.Context, root string, progress ProgressFunc) (*domain.Index, *IndexResult, error) {
	docs, err := u.Scan(root)
	if err != nil {
		return nil, nil, err
	}
	return u.BuildIndex(ctx, docs, progress)
}

// Rebuild indexes root from scratch, persists the result and hands it to
// swap. Nothing is saved or swapped when the build fails, so the previous
// index keeps serving.
func (u *IndexUseCase) Rebuild(ctx context.Context, root string, st port.IndexStore, swap func(*domain.Index)) (*IndexResult, error) {
	index, result, err := u.Index(ctx, root, nil)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Save(index); err != nil {
			return nil, fmt.Errorf("failed to save index: %w", err)
		}
	}
	if swap != nil {
		swap(index)
	}
	slog.Info("index_rebuilt",
		slog.Int("files", result.FilesIndexed),
		slog.Int("sections", result.SectionsIndexed),
		slog.Int("embedded", result.SectionsEmbedded))
	return result, nil
}

// docResult is the outcome of processing one document.
type docResult struct {
	sections []domain.Section
	vector   []float32
	skipped  int
	embedded int
}

// BuildIndex segments, normalizes and embeds docs. Any embedding failure
// aborts the build and no index is returned.
func (u *IndexUseCase) BuildIndex(ctx context.Context, docs []domain.Document, progress ProgressFunc) (*domain.Index, *IndexResult, error) {
	results := make([]docResult, len(docs))

	var mu sync.Mutex
	processed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.Workers)

	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			res, err := u.processDocument(gctx, doc)
			if err != nil {
				return err
			}
			results[i] = res

			if progress != nil {
				mu.Lock()
				processed++
				progress(processed, len(docs), doc.Path)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return u.assemble(docs, results)
}

func (u *IndexUseCase) assemble(docs []domain.Document, results []docResult) (*domain.Index, *IndexResult, error) {
	var index *domain.Index
	if u.opts.Shape == domain.ShapeDocuments {
		index = domain.NewDocumentIndex()
	} else {
		index = domain.NewSectionIndex()
	}

	result := &IndexResult{FilesFound: len(docs)}
	dim := -1
	checkDim := func(path string, vec []float32) error {
		if len(vec) == 0 {
			return nil
		}
		if dim >= 0 && len(vec) != dim {
			return fmt.Errorf("%w: %s: vector length %d, expected %d", domain.ErrProvider, path, len(vec), dim)
		}
		dim = len(vec)
		return nil
	}

	for i, doc := range docs {
		res := results[i]
		result.FilesIndexed++
		result.SectionsSkipped += res.skipped
		result.SectionsEmbedded += res.embedded

		if u.opts.Shape == domain.ShapeDocuments {
			if err := checkDim(doc.Path, res.vector); err != nil {
				return nil, nil, err
			}
			if res.vector != nil {
				index.Documents[doc.Path] = res.vector
			}
			continue
		}

		for _, sec := range res.sections {
			if err := checkDim(doc.Path, sec.Embedding); err != nil {
				return nil, nil, err
			}
		}
		result.SectionsIndexed += len(res.sections)
		index.Sections[doc.Path] = res.sections
	}

	return index, result, nil
}

// processDocument runs segmentation, normalization and embedding for one
// document. Sections are independent of each other.
func (u *IndexUseCase) processDocument(ctx context.Context, doc domain.Document) (docResult, error) {
	parsed, raw, err := u.chunker.Chunk(doc)
	if err != nil {
		return docResult{}, fmt.Errorf("failed to process %s: %w", doc.Path, err)
	}
	doc = parsed

	sections := make([]domain.Section, len(raw))
	var texts []string
	var targets []int
	res := docResult{}

	for i, r := range raw {
		content := analyzer.Normalize(r.Content)
		sections[i] = domain.Section{Header: r.Header, Content: content}

		if utf8.RuneCountInString(content) < u.opts.MinSectionLength {
			res.skipped++
			slog.Debug("section_skipped",
				slog.String("path", doc.Path),
				slog.String("header", r.Header),
				slog.Int("length", utf8.RuneCountInString(content)))
			continue
		}
		texts = append(texts, content)
		targets = append(targets, i)
	}

	if u.opts.Shape == domain.ShapeDocuments {
		body := strings.Join(texts, " ")
		if utf8.RuneCountInString(body) < u.opts.MinSectionLength {
			return res, nil
		}
		vecs, err := u.embed(ctx, doc.Path, []string{body})
		if err != nil {
			return docResult{}, err
		}
		res.vector = vecs[0]
		res.embedded = 1
		return res, nil
	}

	if len(texts) > 0 {
		vecs, err := u.embed(ctx, doc.Path, texts)
		if err != nil {
			return docResult{}, err
		}
		for j, i := range targets {
			sections[i].Embedding = vecs[j]
		}
		res.embedded = len(targets)
	}

	res.sections = sections
	slog.Debug("document_indexed",
		slog.String("path", doc.Path),
		slog.Int("sections", len(sections)),
		slog.Int("embedded", res.embedded))
	return res, nil
}

func (u *IndexUseCase) embed(ctx context.Context, path string, texts []string) ([][]float32, error) {
	vecs, err := u.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, domain.ErrProvider, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%s: %w: got %d vectors for %d sections", path, domain.ErrProvider, len(vecs), len(texts))
	}
	for _, vec := range vecs {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%s: %w: empty vector", path, domain.ErrProvider)
		}
	}
	return vecs, nil
}
