package fetch

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// API selects which Jamf API serves a request.
type API string

const (
	// Classic is the /JSSResource API.
	Classic API = "classic"
	// Pro is the /api API.
	Pro API = "pro"
)

// Mode describes how a collection is delivered.
type Mode string

const (
	ModePaged  Mode = "paged"
	ModeList   Mode = "list"
	ModeSingle Mode = "single"
)

// Defaults applied by Query.WithDefaults.
const (
	DefaultPageSize   = 100
	DefaultMaxPages   = 1000
	DefaultSort       = "id:asc"
	DefaultResultPath = "results"
	DefaultTotalPath  = "totalCount"
	DefaultIDPath     = "id"
)

// Request is one call on the fetch capability.
type Request struct {
	API API
	// Path is relative to the API root and already escaped.
	Path   string
	Params url.Values
}

// Capability performs requests against the remote API and returns the decoded body.
// Failures that carry an HTTP status should implement StatusCode() int.
type Capability interface {
	Get(ctx context.Context, req Request) (any, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, req Request) (any, error)

// Get calls f.
func (f CapabilityFunc) Get(ctx context.Context, req Request) (any, error) { return f(ctx, req) }

// Query locates the objects of one module.
type Query struct {
	// Mode defaults to ModeList.
	Mode Mode `yaml:"mode"`
	// API defaults to Pro for paged queries and Classic otherwise.
	API API `yaml:"api"`
	// Path of the collection, relative to the API root.
	Path string `yaml:"path"`
	// ResultPath locates the item array. Defaults to "results" for paged queries;
	// an empty path on a list query means the body itself is the array.
	ResultPath string `yaml:"result_path"`
	// TotalPath locates the total item count of a paged query.
	TotalPath string `yaml:"total_path"`
	// IDPath locates the identity inside a summary.
	IDPath string `yaml:"id_path"`
	// PageSize of paged queries.
	PageSize int `yaml:"page_size"`
	// Sort order of paged queries.
	Sort string `yaml:"sort"`
	// Sections requested from paged queries, sent as repeated section parameters.
	Sections []string `yaml:"sections"`
	// DetailPath is requested per summary; "{id}" is replaced with its identity.
	DetailPath string `yaml:"detail_path"`
	// MaxPages bounds a paged query.
	MaxPages int `yaml:"max_pages"`
}

// WithDefaults returns a copy of q with every unset field given its default.
func (q Query) WithDefaults() Query {
	if q.Mode == "" {
		q.Mode = ModeList
	}
	if q.API == "" {
		q.API = Classic
		if q.Mode == ModePaged {
			q.API = Pro
		}
	}
	if q.IDPath == "" {
		q.IDPath = DefaultIDPath
	}
	if q.Mode == ModePaged {
		if q.ResultPath == "" {
			q.ResultPath = DefaultResultPath
		}
		if q.TotalPath == "" {
			q.TotalPath = DefaultTotalPath
		}
		if q.PageSize <= 0 {
			q.PageSize = DefaultPageSize
		}
		if q.Sort == "" {
			q.Sort = DefaultSort
		}
		if q.MaxPages <= 0 {
			q.MaxPages = DefaultMaxPages
		}
	}
	return q
}

func (q Query) pageRequest(page int) Request {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page-size", strconv.Itoa(q.PageSize))
	params.Set("sort", q.Sort)
	for _, section := range q.Sections {
		params.Add("section", section)
	}
	return Request{API: q.API, Path: q.Path, Params: params}
}

func (q Query) detailRequest(id string) Request {
	return Request{API: q.API, Path: strings.ReplaceAll(q.DetailPath, "{id}", url.PathEscape(id))}
}
