package crawler

import "context"

// ResolvedLinks carries links the fetch collaborator already discovered
// post-render, split by whether they share the crawl's scope.
type ResolvedLinks struct {
	Internal []string `json:"internal,omitempty"`
	External []string `json:"external,omitempty"`
}

// FetchResult represents the outcome of fetching a single page. All content
// fields are optional; BestContent resolves the precedence between them.
type FetchResult struct {
	URL              string         `json:"url"`
	Success          bool           `json:"success"`
	ErrorDescription string         `json:"error,omitempty"`
	StatusCode       int            `json:"status_code,omitempty"`
	ResponseTime     int64          `json:"response_time,omitempty"`
	FilteredContent  string         `json:"filtered_content,omitempty"`
	RawContent       string         `json:"raw_content,omitempty"`
	RawMarkup        string         `json:"raw_markup,omitempty"`
	Links            *ResolvedLinks `json:"links,omitempty"`
}

// BestContent returns the most refined content available:
// filtered content, then raw content, then raw markup, then empty.
func (r *FetchResult) BestContent() string {
	if r == nil || !r.Success {
		return ""
	}
	if r.FilteredContent != "" {
		return r.FilteredContent
	}
	if r.RawContent != "" {
		return r.RawContent
	}
	return r.RawMarkup
}

// ResolvedLinkList flattens pre-resolved links in first-seen order.
func (r *FetchResult) ResolvedLinkList() []string {
	if r == nil || r.Links == nil {
		return nil
	}

	links := make([]string, 0, len(r.Links.Internal)+len(r.Links.External))
	links = append(links, r.Links.Internal...)
	links = append(links, r.Links.External...)
	return links
}

// Fetcher is the external page fetch/render/extract collaborator. The
// default implementation is the colly-based Crawler in this package, but the
// engine only depends on this interface.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*FetchResult, error)
}
