package fetch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"change-monitor/core/record"
	"change-monitor/core/utils"
)

// Default retry settings.
const (
	DefaultMaxTries        = 4
	DefaultInitialInterval = 500 * time.Millisecond
)

// Fetcher retrieves module collections through a Capability.
type Fetcher struct {
	capability Capability
	logger     *zap.Logger
	maxTries   uint
	initial    time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRetry sets the number of attempts per request and the first backoff interval.
func WithRetry(maxTries uint, initial time.Duration) Option {
	return func(f *Fetcher) {
		if maxTries > 0 {
			f.maxTries = maxTries
		}
		if initial > 0 {
			f.initial = initial
		}
	}
}

// New creates a Fetcher. A nil logger disables logging.
func New(capability Capability, logger *zap.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		capability: capability,
		logger:     logger,
		maxTries:   DefaultMaxTries,
		initial:    DefaultInitialInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Result is a fully collected fetch.
type Result struct {
	// Raws holds the fetched objects in delivery order.
	Raws []record.Raw
	// Skipped holds identities whose detail request failed.
	Skipped []string
}

// FetchAll drains Items. Detail failures are logged and collected in Skipped;
// any other error aborts the fetch.
func (f *Fetcher) FetchAll(ctx context.Context, q Query) (*Result, error) {
	res := &Result{}
	for raw, err := range f.Items(ctx, q) {
		if err != nil {
			var detailErr *DetailFetchError
			if errors.As(err, &detailErr) {
				f.logger.Warn("Skipping object", zap.String("id", detailErr.ID), zap.Error(detailErr.Err))
				res.Skipped = append(res.Skipped, detailErr.ID)
				continue
			}
			return nil, err
		}
		res.Raws = append(res.Raws, raw)
	}
	return res, nil
}

// Items returns a lazy sequence over the objects of q. A *FetchError ends the
// sequence; a *DetailFetchError is yielded in place of the skipped object and
// iteration continues. Objects whose identity was already yielded are dropped.
func (f *Fetcher) Items(ctx context.Context, q Query) iter.Seq2[record.Raw, error] {
	q = q.WithDefaults()
	return func(yield func(record.Raw, error) bool) {
		switch q.Mode {
		case ModeSingle:
			body, err := f.get(ctx, Request{API: q.API, Path: q.Path})
			if err != nil {
				yield(nil, &FetchError{Path: q.Path, Err: err})
				return
			}
			yield(body, nil)
		case ModeList:
			body, err := f.get(ctx, Request{API: q.API, Path: q.Path})
			if err != nil {
				yield(nil, &FetchError{Path: q.Path, Err: err})
				return
			}
			items, err := itemsAt(body, q.ResultPath)
			if err != nil {
				yield(nil, &FetchError{Path: q.Path, Err: err})
				return
			}
			f.emit(ctx, q, items, map[string]struct{}{}, yield)
		case ModePaged:
			f.paged(ctx, q, yield)
		default:
			yield(nil, &FetchError{Path: q.Path, Err: fmt.Errorf("unknown mode %q", q.Mode)})
		}
	}
}

func (f *Fetcher) paged(ctx context.Context, q Query, yield func(record.Raw, error) bool) {
	seen := map[string]struct{}{}
	count := 0
	for page := 0; ; page++ {
		if page >= q.MaxPages {
			yield(nil, &FetchError{Path: q.Path, Page: page, Err: fmt.Errorf("%w after %d pages", ErrPaginationRunaway, page)})
			return
		}

		body, err := f.get(ctx, q.pageRequest(page))
		if err != nil {
			yield(nil, &FetchError{Path: q.Path, Page: page, Err: err})
			return
		}
		items, err := itemsAt(body, q.ResultPath)
		if err != nil {
			yield(nil, &FetchError{Path: q.Path, Page: page, Err: err})
			return
		}
		rawTotal, _ := record.Lookup(body, q.TotalPath)
		total, ok := utils.ToFloat(rawTotal)
		if !ok {
			yield(nil, &FetchError{Path: q.Path, Page: page, Err: fmt.Errorf("%w: no total at %q", ErrUnexpectedShape, q.TotalPath)})
			return
		}

		if len(items) == 0 {
			return
		}
		if !f.emit(ctx, q, items, seen, yield) {
			return
		}

		count += len(items)
		if float64(count) >= total {
			return
		}
	}
}

// emit yields every new item, resolving details when the query asks for them.
// It returns false when iteration must stop.
func (f *Fetcher) emit(ctx context.Context, q Query, items []any, seen map[string]struct{}, yield func(record.Raw, error) bool) bool {
	for _, item := range items {
		rawID, _ := record.Lookup(item, q.IDPath)
		id := utils.ToString(rawID)
		if id != "" {
			if _, dup := seen[id]; dup {
				f.logger.Debug("Dropping duplicate object", zap.String("path", q.Path), zap.String("id", id))
				continue
			}
			seen[id] = struct{}{}
		}

		if q.DetailPath == "" {
			if !yield(item, nil) {
				return false
			}
			continue
		}

		req := q.detailRequest(id)
		detail, err := f.get(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				yield(nil, &FetchError{Path: q.Path, Err: ctx.Err()})
				return false
			}
			if !yield(nil, &DetailFetchError{ID: id, Path: req.Path, Err: err}) {
				return false
			}
			continue
		}
		if !yield(detail, nil) {
			return false
		}
	}
	return true
}

// get performs one request, retrying transient failures.
func (f *Fetcher) get(ctx context.Context, req Request) (any, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initial

	body, err := backoff.Retry(ctx, func() (any, error) {
		body, err := f.capability.Get(ctx, req)
		if err != nil && !transient(err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(f.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			f.logger.Debug("Retrying request",
				zap.String("path", req.Path),
				zap.Duration("next", next),
				zap.Error(err))
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return body, err
}

// itemsAt returns the array at path; an empty path means body itself.
func itemsAt(body any, path string) ([]any, error) {
	v := body
	if path != "" {
		var ok bool
		if v, ok = record.Lookup(body, path); !ok {
			return nil, fmt.Errorf("%w: no items at %q", ErrUnexpectedShape, path)
		}
	}
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, not an array", ErrUnexpectedShape, path, v)
	}
	return items, nil
}
