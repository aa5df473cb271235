package sitemap

import (
	"errors"
	"fmt"
)

// Error kinds returned by the package. Callers discriminate with errors.Is.
var (
	// ErrFetch reports a transport failure retrieving the seed website or a
	// previously published sitemap document. Never retried here.
	ErrFetch = errors.New("fetch failed")

	// ErrMalformedDocument reports a sitemap document that does not conform
	// to the sitemap protocol or is missing a required field.
	ErrMalformedDocument = errors.New("malformed sitemap document")

	// ErrTimestampFormat reports a lastmod value that cannot be parsed. It is
	// a variant of ErrMalformedDocument.
	ErrTimestampFormat = fmt.Errorf("%w: invalid lastmod timestamp", ErrMalformedDocument)
)
