// Package ingest implements the CSV ingestion pipeline: website
// normalization, per-kind header schemas, row extraction, and deduplication.
// Everything in this package is pure; storage access happens through narrow
// interfaces supplied by the caller.
package ingest

import (
	"net/url"
	"strings"
	"unicode"
)

// NormalizeWebsite reduces a raw URL or domain string to a canonical lowercase
// host, used as the raw-data dedup key. Returns "" when the input does not
// contain a usable host. Total and idempotent: normalizing an already
// normalized host returns the same value.
func NormalizeWebsite(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	// A host never contains whitespace; inputs like "not a url" are invalid tokens.
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return ""
	}

	urlString := strings.ToLower(value)
	if !strings.HasPrefix(urlString, "http://") && !strings.HasPrefix(urlString, "https://") {
		urlString = "https://" + urlString
	}

	u, err := url.Parse(urlString)
	if err != nil {
		return ""
	}

	host := u.Hostname()
	if !strings.Contains(host, ".") {
		// Rejects bare tokens like "localhost" or single words.
		return ""
	}

	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimRight(host, ".")
	return host
}
