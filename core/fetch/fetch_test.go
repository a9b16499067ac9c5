package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records requests and answers them through handle.
type fakeAPI struct {
	mu       sync.Mutex
	requests []Request
	handle   func(n int, req Request) (any, error)
}

func (f *fakeAPI) Get(_ context.Context, req Request) (any, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	f.mu.Unlock()
	return f.handle(n, req)
}

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

// page builds a paged body with ids [from, to).
func page(from, to, total int) any {
	results := []any{}
	for id := from; id < to; id++ {
		results = append(results, map[string]any{"id": json.Number(strconv.Itoa(id)), "name": fmt.Sprintf("obj-%d", id)})
	}
	return map[string]any{"totalCount": json.Number(strconv.Itoa(total)), "results": results}
}

func fastFetcher(api Capability) *Fetcher {
	return New(api, nil, WithRetry(3, time.Millisecond))
}

func TestQuery_DetailRequestEscapesIdentity(t *testing.T) {
	q := Query{API: Classic, DetailPath: "scripts/id/{id}"}

	assert.Equal(t, "scripts/id/12", q.detailRequest("12").Path)
	assert.Equal(t, "scripts/id/a%2Fb%20c", q.detailRequest("a/b c").Path)
}

func TestQuery_WithDefaults(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  Query
	}{
		{
			name:  "paged",
			query: Query{Mode: ModePaged, Path: "v1/scripts"},
			want: Query{Mode: ModePaged, API: Pro, Path: "v1/scripts", ResultPath: "results", TotalPath: "totalCount",
				IDPath: "id", PageSize: 100, Sort: "id:asc", MaxPages: 1000},
		},
		{
			name:  "list",
			query: Query{Path: "computergroups", ResultPath: "computer_groups"},
			want:  Query{Mode: ModeList, API: Classic, Path: "computergroups", ResultPath: "computer_groups", IDPath: "id"},
		},
		{
			name:  "explicit values kept",
			query: Query{Mode: ModePaged, API: Classic, PageSize: 200, Sort: "id:desc", MaxPages: 3},
			want: Query{Mode: ModePaged, API: Classic, ResultPath: "results", TotalPath: "totalCount",
				IDPath: "id", PageSize: 200, Sort: "id:desc", MaxPages: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.WithDefaults())
		})
	}
}

func TestFetchAll_Paged(t *testing.T) {
	api := &fakeAPI{handle: func(_ int, req Request) (any, error) {
		p, _ := strconv.Atoi(req.Params.Get("page"))
		from := p*100 + 1
		to := min(from+100, 251)
		return page(from, to, 250), nil
	}}

	res, err := fastFetcher(api).FetchAll(context.Background(), Query{
		Mode:     ModePaged,
		Path:     "v1/computers-inventory",
		Sections: []string{"GENERAL", "OPERATING_SYSTEM"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Raws, 250)
	assert.Empty(t, res.Skipped)

	require.Len(t, api.requests, 3)
	first := api.requests[0]
	assert.Equal(t, Pro, first.API)
	assert.Equal(t, "0", first.Params.Get("page"))
	assert.Equal(t, "100", first.Params.Get("page-size"))
	assert.Equal(t, "id:asc", first.Params.Get("sort"))
	assert.Equal(t, []string{"GENERAL", "OPERATING_SYSTEM"}, first.Params["section"])
	assert.Equal(t, "2", api.requests[2].Params.Get("page"))
}

func TestFetchAll_PagedTotalShrinks(t *testing.T) {
	api := &fakeAPI{handle: func(n int, _ Request) (any, error) {
		if n == 1 {
			return page(1, 101, 300), nil
		}
		// Objects were deleted while paging.
		return page(101, 121, 120), nil
	}}

	res, err := fastFetcher(api).FetchAll(context.Background(), Query{Mode: ModePaged, Path: "v1/categories"})
	require.NoError(t, err)
	assert.Len(t, res.Raws, 120)
	assert.Len(t, api.requests, 2)
}

func TestFetchAll_PagedEmptyPageEnds(t *testing.T) {
	api := &fakeAPI{handle: func(n int, _ Request) (any, error) {
		if n == 1 {
			return page(1, 11, 50), nil
		}
		return page(0, 0, 50), nil
	}}

	res, err := fastFetcher(api).FetchAll(context.Background(), Query{Mode: ModePaged, Path: "v1/categories", PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, res.Raws, 10)
	assert.Len(t, api.requests, 2)
}

func TestFetchAll_PaginationRunaway(t *testing.T) {
	api := &fakeAPI{handle: func(n int, _ Request) (any, error) {
		return page(n, n+1, 1_000_000), nil
	}}

	_, err := fastFetcher(api).FetchAll(context.Background(), Query{Mode: ModePaged, Path: "v1/categories", MaxPages: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaginationRunaway)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 5, fetchErr.Page)
	assert.Len(t, api.requests, 5)
}

func TestFetchAll_DuplicateIdentityKeepsFirst(t *testing.T) {
	api := &fakeAPI{handle: func(n int, _ Request) (any, error) {
		if n == 1 {
			return page(1, 3, 4), nil
		}
		// Page boundaries moved, id 2 is delivered again.
		return page(2, 4, 4), nil
	}}

	res, err := fastFetcher(api).FetchAll(context.Background(), Query{Mode: ModePaged, Path: "v1/categories", PageSize: 2})
	require.NoError(t, err)
	require.Len(t, res.Raws, 3)
	assert.Equal(t, "obj-2", res.Raws[1].(map[string]any)["name"])
}

func TestFetchAll_DetailFailureSkipsObject(t *testing.T) {
	api := &fakeAPI{handle: func(_ int, req Request) (any, error) {
		switch req.Path {
		case "computergroups":
			return decode(t, `{"computer_groups":[{"id":1,"name":"a"},{"id":2,"name":"b"},{"id":3,"name":"c"}]}`), nil
		case "computergroups/id/2":
			return nil, &StatusError{Status: http.StatusNotFound}
		default:
			return decode(t, `{"computer_group":{"id":0}}`), nil
		}
	}}

	res, err := fastFetcher(api).FetchAll(context.Background(), Query{
		Path:       "computergroups",
		ResultPath: "computer_groups",
		DetailPath: "computergroups/id/{id}",
	})
	require.NoError(t, err)
	assert.Len(t, res.Raws, 2)
	assert.Equal(t, []string{"2"}, res.Skipped)
	assert.Len(t, api.requests, 4)
}

func TestItems_YieldsDetailErrors(t *testing.T) {
	api := &fakeAPI{handle: func(_ int, req Request) (any, error) {
		if req.Path == "scripts" {
			return decode(t, `{"scripts":[{"id":1},{"id":2}]}`), nil
		}
		return nil, &StatusError{Status: http.StatusForbidden}
	}}

	var detailErrs int
	for raw, err := range fastFetcher(api).Items(context.Background(), Query{Path: "scripts", ResultPath: "scripts", DetailPath: "scripts/id/{id}"}) {
		assert.Nil(t, raw)
		var detailErr *DetailFetchError
		require.ErrorAs(t, err, &detailErr)
		detailErrs++
	}
	assert.Equal(t, 2, detailErrs)
}

func TestItems_StopsEarly(t *testing.T) {
	api := &fakeAPI{handle: func(int, Request) (any, error) { return page(1, 101, 1000), nil }}

	seen := 0
	for range fastFetcher(api).Items(context.Background(), Query{Mode: ModePaged, Path: "v1/categories"}) {
		seen++
		if seen == 5 {
			break
		}
	}
	assert.Equal(t, 5, seen)
	assert.Len(t, api.requests, 1)
}

func TestFetchAll_RetriesTransientFailures(t *testing.T) {
	api := &fakeAPI{handle: func(n int, _ Request) (any, error) {
		switch n {
		case 1:
			return nil, &StatusError{Status: http.StatusServiceUnavailable}
		case 2:
			return nil, errors.New("connection reset by peer")
		default:
			return decode(t, `[{"id":1}]`), nil
		}
	}}

	res, err := fastFetcher(api).FetchAll(context.Background(), Query{Path: "directorybindings"})
	require.NoError(t, err)
	assert.Len(t, res.Raws, 1)
	assert.Len(t, api.requests, 3)
}

func TestFetchAll_PermanentFailure(t *testing.T) {
	api := &fakeAPI{handle: func(int, Request) (any, error) {
		return nil, &StatusError{Status: http.StatusUnauthorized, Message: "bad credentials"}
	}}

	res, err := fastFetcher(api).FetchAll(context.Background(), Query{Path: "categories"})
	assert.Nil(t, res)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Len(t, api.requests, 1)
}

func TestFetchAll_RetriesExhausted(t *testing.T) {
	api := &fakeAPI{handle: func(int, Request) (any, error) {
		return nil, &StatusError{Status: http.StatusBadGateway}
	}}

	_, err := fastFetcher(api).FetchAll(context.Background(), Query{Path: "categories"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Len(t, api.requests, 3)
}

func TestFetchAll_Single(t *testing.T) {
	api := &fakeAPI{handle: func(int, Request) (any, error) {
		return decode(t, `{"computer_check_in":{"check_in_frequency":15}}`), nil
	}}

	res, err := fastFetcher(api).FetchAll(context.Background(), Query{Mode: ModeSingle, Path: "computercheckin"})
	require.NoError(t, err)
	require.Len(t, res.Raws, 1)
	assert.Equal(t, Classic, api.requests[0].API)
}

func TestFetchAll_UnexpectedShape(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		body  string
	}{
		{name: "missing list key", query: Query{Path: "scripts", ResultPath: "scripts"}, body: `{"other":[]}`},
		{name: "not an array", query: Query{Path: "scripts", ResultPath: "scripts"}, body: `{"scripts":{"id":1}}`},
		{name: "missing total", query: Query{Mode: ModePaged, Path: "v1/scripts"}, body: `{"results":[{"id":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{handle: func(int, Request) (any, error) { return decode(t, tt.body), nil }}
			_, err := fastFetcher(api).FetchAll(context.Background(), tt.query)
			assert.ErrorIs(t, err, ErrUnexpectedShape)
		})
	}
}
