// Package source converts raw statement streams into batches of
// fingerprint-unique queries ready for evaluation.
package source

import (
	"context"

	"github.com/nethalo/pgidx/internal/query"
)

// Source produces the next batch of fingerprint-unique queries, pacing itself
// on streaming inputs. A source returns io.EOF when its input is exhausted:
// the file and statement sources after their last batch, the log stream once
// its reader ends. The statistics-view source never returns io.EOF.
type Source interface {
	NextBatch(ctx context.Context) ([]*query.Query, error)
}
