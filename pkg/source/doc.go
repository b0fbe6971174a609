// Package source loads template markup by name.
//
// Sources are read-only. Dir reads templates from a directory tree, Map
// serves templates held in memory, and S3 fetches them from a bucket.
// Every implementation reports a missing template as a W140 error and any
// other failure as W141, so callers can tell the two apart with
// errors.HasCode or errors.Is(err, ErrNotFound).
//
// Usage:
//
//	src := source.NewDir("templates", 1<<20)
//	markup, err := src.Load(ctx, "todo.html")
package source
