package email

import "context"

// Page is one response of a paged list call
type Page struct {
	IDs           []string
	NextPageToken string // Empty when no further pages exist
}

// PageFunc fetches the page identified by pageToken. The first page is
// requested with an empty token.
type PageFunc func(ctx context.Context, pageToken string) (Page, error)

// IDIterator walks the ids of a paged list endpoint, one page at a time.
//
// Pages are fetched lazily: Next only calls the PageFunc once every id of
// the previous page has been returned. Iteration ends when a page comes back
// without a continuation token. Callers may stop early; there is nothing to
// release.
//
//	it := provider.MessageIDs(opts)
//	for it.Next(ctx) {
//	    use(it.ID())
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
type IDIterator struct {
	fetch PageFunc
	buf   []string
	token string
	last  bool // The page in buf had no continuation token
	cur   string
	err   error
	pages int
}

// NewIDIterator returns an iterator that pulls pages from fetch
func NewIDIterator(fetch PageFunc) *IDIterator {
	return &IDIterator{fetch: fetch}
}

// Next advances to the next id, fetching a page when the current one is
// exhausted. It returns false at the end of the sequence or on error.
func (it *IDIterator) Next(ctx context.Context) bool {
	for {
		if len(it.buf) > 0 {
			it.cur, it.buf = it.buf[0], it.buf[1:]
			return true
		}
		if it.err != nil || it.last {
			return false
		}

		page, err := it.fetch(ctx, it.token)
		if err != nil {
			it.err = err
			it.cur = ""
			return false
		}
		it.pages++
		it.buf = page.IDs
		it.token = page.NextPageToken
		it.last = page.NextPageToken == ""
	}
}

// ID returns the id most recently produced by Next
func (it *IDIterator) ID() string {
	return it.cur
}

// Err returns the error that stopped iteration, if any
func (it *IDIterator) Err() error {
	return it.err
}

// Pages returns the number of pages fetched so far
func (it *IDIterator) Pages() int {
	return it.pages
}

// Count drains the iterator and returns how many ids it produced
func (it *IDIterator) Count(ctx context.Context) (int, error) {
	n := 0
	for it.Next(ctx) {
		n++
	}
	return n, it.Err()
}

// Collect drains the iterator into a slice. On error the ids read before
// the failure are returned alongside it.
func (it *IDIterator) Collect(ctx context.Context) ([]string, error) {
	var ids []string
	for it.Next(ctx) {
		ids = append(ids, it.ID())
	}
	return ids, it.Err()
}
