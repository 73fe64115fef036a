// Package pagination turns single-page API calls into an exhaustive result
// stream by walking the server-reported page bounds.
package pagination

import (
	"context"
	"iter"

	"github.com/sintelhq/go-sintel/pkg/client"
	"github.com/sintelhq/go-sintel/pkg/logging"
)

// PageFunc dispatches one page of a paginated operation. Each invocation is
// an independent call, so a walk holds at most one gate permit at a time.
type PageFunc func(ctx context.Context, page int) client.ResultSeq

// Walk fetches pages first..last, re-yielding every result unchanged. The
// last page is negotiated as the walk proceeds: the server-reported max_page
// of every result shrinks the bound via min, and a caller-supplied last (> 0)
// is an upper bound the walk never exceeds. last = 0 means unknown, adopting
// the first server hint. A mid-walk failure stops the walk and propagates;
// nothing is retried or suppressed.
func Walk(ctx context.Context, fetch PageFunc, first, last int) iter.Seq2[client.Result, error] {
	return func(yield func(client.Result, error) bool) {
		logger := logging.NewLogger("pagination")
		current := first
		if current <= 0 {
			current = 1
		}
		for {
			for res, err := range fetch(ctx, current) {
				if err != nil {
					yield(client.Result{}, err)
					return
				}
				// A non-paginated result reports max_page 1, so a
				// walk over such responses stops after one page.
				if hint := res.Meta.MaxPage(); last <= 0 || hint < last {
					last = hint
				}
				if !yield(res, nil) {
					return
				}
			}
			logger.Info().Int("page", current).Int("last", last).Msg("fetched page")
			if current >= last {
				return
			}
			current++
		}
	}
}

// WalkAll is Walk without a caller-supplied bound, starting at page 1.
func WalkAll(ctx context.Context, fetch PageFunc) iter.Seq2[client.Result, error] {
	return Walk(ctx, fetch, 1, 0)
}
