package route

import (
	"net/url"
	"strconv"
	"strings"
)

// Well-known query parameter keys inside a page namespace.
const (
	PageKey    = "page"
	SizeKey    = "size"
	SortingKey = "sort"
)

// Pagination holds page number and page size.
type Pagination struct {
	Page int
	Size int
}

// DefaultPagination is applied when a namespace carries no explicit values.
var DefaultPagination = Pagination{Page: 1, Size: 50}

// NamespacedQuery returns the subset of query parameters qualified with the
// given namespace (e.g. "launches-page.size" for namespace "launches-page"),
// with the prefix stripped. An empty namespace returns the query as-is.
func NamespacedQuery(query url.Values, namespace string) url.Values {
	if namespace == "" {
		return query
	}
	prefix := namespace + "."
	out := url.Values{}
	for k, vs := range query {
		if strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix)] = vs
		}
	}
	return out
}

// QueryParameters is the resolved pagination/sorting state of one page
// namespace plus any remaining namespace-local parameters.
type QueryParameters struct {
	Page int
	Size int
	Sort string
	Rest url.Values
}

// ResolveQueryParameters merges the namespaced query over the supplied
// defaults. Missing, malformed, or negative page/size values fall back to the
// defaults.
func ResolveQueryParameters(query url.Values, namespace string, defaults Pagination, defaultSorting string) QueryParameters {
	q := NamespacedQuery(query, namespace)
	params := QueryParameters{
		Page: defaults.Page,
		Size: defaults.Size,
		Sort: defaultSorting,
		Rest: url.Values{},
	}
	for k, vs := range q {
		switch k {
		case PageKey:
			if n, err := strconv.Atoi(q.Get(PageKey)); err == nil && n > 0 {
				params.Page = n
			}
		case SizeKey:
			if n, err := strconv.Atoi(q.Get(SizeKey)); err == nil && n > 0 {
				params.Size = n
			}
		case SortingKey:
			params.Sort = q.Get(SortingKey)
		default:
			params.Rest[k] = vs
		}
	}
	return params
}
