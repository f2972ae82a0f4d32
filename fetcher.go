package docsite

import "context"

// PageFetcher retrieves rendered page markup from a URL.
type PageFetcher interface {
	// Fetch returns the page body. A missing page is reported with code
	// ENOTFOUND and a failure worth retrying with code EUNAVAILABLE.
	Fetch(ctx context.Context, url string) (html string, err error)
}
