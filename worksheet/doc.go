// Package worksheet rebuilds worksheets from their git-tracked files.
//
// A worksheet is stored as two tracked files: a metadata descriptor named
// "<anything>_metadata.json" and a content file whose name is derived from
// the worksheet's display name and content type (see ContentFilename). The
// Reconciler pairs them back into domain.Worksheet values, reading only
// blobs recorded in the repository so local, untracked edits never leak into
// a push.
//
//	rec := worksheet.New(repo, worksheet.WithLogger(logger))
//	sheets, err := rec.Load(ctx, worksheet.LoadOptions{
//	    Path:       "worksheets",
//	    Branch:     "main",
//	    OnlyFolder: "Reporting",
//	})
package worksheet
