// Package corpus provides sources of analyzable files: a local directory
// tree laid out per language, and a streamed JSONL dataset. Occasional
// unreadable or malformed entries are skipped and counted; they never
// abort a run.
package corpus

import "context"

// File is one analyzable corpus entry.
type File struct {
	ID       string
	Language string
	Text     string
}

// Source yields files one at a time. Next returns io.EOF after the last
// file. Implementations are not safe for concurrent Next calls; the
// engine reads from a single producer goroutine.
type Source interface {
	// Next returns the next file, io.EOF when exhausted, or ctx.Err()
	// when the context is done.
	Next(ctx context.Context) (File, error)
	// Skipped reports how many entries were unreadable or malformed and
	// were passed over.
	Skipped() int
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
