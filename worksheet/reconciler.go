package worksheet

import (
	"context"

	"go.uber.org/zap"

	"github.com/tdambrin/sf-push/domain"
	"github.com/tdambrin/sf-push/git"
)

// Source is the read-only repository view the Reconciler works on.
// *git.Repo satisfies it.
type Source interface {
	// Exists reports whether path exists under the repository root.
	Exists(path string) (bool, error)

	// ListTracked lists tracked files under subtree at ref ("" for the checkout).
	ListTracked(ctx context.Context, subtree, ref string) ([]git.TrackedFile, error)

	// ReadBlobs returns file contents keyed by TrackedFile.Path.
	ReadBlobs(ctx context.Context, files []git.TrackedFile) (map[string][]byte, error)
}

// LoadOptions selects which worksheets Load returns.
type LoadOptions struct {
	// Path is the worksheets directory relative to the repository root.
	Path string

	// Branch is the reference to read from. Empty reads the current checkout.
	Branch string

	// OnlyFolder keeps only worksheets whose folder name equals it exactly.
	// Empty keeps every folder.
	OnlyFolder string
}

// Reconciler pairs metadata descriptors with their content files.
type Reconciler struct {
	source Source
	logger *zap.Logger
	policy MissingContentPolicy
}

// New creates a Reconciler reading from source.
func New(source Source, opts ...Option) *Reconciler {
	r := &Reconciler{
		source: source,
		logger: zap.NewNop(),
		policy: PolicyStrict,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load lists the tracked files under opts.Path at opts.Branch and reconciles
// them into worksheets.
//
// A missing Path fails with ErrSourceMissing; a Path without any metadata
// file yields an empty slice and no error.
func (r *Reconciler) Load(ctx context.Context, opts LoadOptions) ([]domain.Worksheet, error) {
	r.logger.Info("loading worksheets",
		zap.String("path", opts.Path),
		zap.String("branch", opts.Branch),
		zap.String("only_folder", opts.OnlyFolder),
	)

	ok, err := r.source.Exists(opts.Path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sourceMissingError(opts.Path)
	}

	files, err := r.source.ListTracked(ctx, opts.Path, opts.Branch)
	if err != nil {
		return nil, err
	}

	return r.Reconcile(ctx, files, opts.OnlyFolder)
}

// Reconcile builds worksheets from an already listed, scoped set of tracked
// files. Worksheets are returned in metadata listing order.
//
// Content files are matched by name only, anywhere in files; when several
// share the derived name the first one in files wins. Under PolicyStrict a
// single unmatched descriptor makes Reconcile return an empty slice.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	files []git.TrackedFile,
	onlyFolder string,
) ([]domain.Worksheet, error) {
	var metadata []git.TrackedFile
	for _, f := range files {
		if IsMetadataFile(f.Name) {
			metadata = append(metadata, f)
		}
	}
	if len(metadata) == 0 {
		r.logger.Info("no worksheet metadata found", zap.Int("tracked_files", len(files)))
		return []domain.Worksheet{}, nil
	}

	blobs, err := r.source.ReadBlobs(ctx, metadata)
	if err != nil {
		return nil, err
	}

	byName := indexByName(files)

	worksheets := make([]domain.Worksheet, 0, len(metadata))
	for _, mf := range metadata {
		ws, err := parseDescriptor(blobs[mf.Path])
		if err != nil {
			return nil, metadataError(mf.Path, err)
		}

		if onlyFolder != "" && ws.FolderName != onlyFolder {
			continue
		}

		filename := ContentFilename(ws.Name, ws.ContentType)
		content, found := byName[filename]
		if !found {
			if r.policy == PolicySkip {
				r.logger.Warn("content file not found, skipping worksheet",
					zap.String("worksheet", ws.Name),
					zap.String("filename", filename),
					zap.String("metadata", mf.Path),
				)
				continue
			}
			r.logger.Error("content file not found, discarding all worksheets",
				zap.String("filename", filename),
				zap.Strings("candidates", names(files)),
			)
			return []domain.Worksheet{}, nil
		}

		data, err := r.source.ReadBlobs(ctx, []git.TrackedFile{content})
		if err != nil {
			return nil, err
		}
		ws.Content = string(data[content.Path])

		r.logger.Debug("reconciled worksheet",
			zap.String("worksheet", ws.Name),
			zap.String("metadata", mf.Path),
			zap.String("content", content.Path),
		)
		worksheets = append(worksheets, ws)
	}

	r.logger.Info("worksheets reconciled", zap.Int("count", len(worksheets)))
	return worksheets, nil
}

// indexByName maps each leaf name to its first occurrence in files.
func indexByName(files []git.TrackedFile) map[string]git.TrackedFile {
	idx := make(map[string]git.TrackedFile, len(files))
	for _, f := range files {
		if _, seen := idx[f.Name]; !seen {
			idx[f.Name] = f
		}
	}
	return idx
}

func names(files []git.TrackedFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}
