package ingest

import (
	"strings"

	"github.com/leadvault/leadvault-engine/pkg/models"
)

// Schema describes the expected column layout for one data kind.
type Schema struct {
	Kind models.DataKind

	// Columns holds every canonical header name of the kind, in the order
	// missing ones are reported.
	Columns []string

	// Optional holds the normalized labels from Columns that may be entirely
	// absent from the file.
	Optional map[string]struct{}
}

var rawSchema = Schema{
	Kind: models.KindRow,
	Columns: []string{
		"Company Name",
		"Website",
		"Category",
		"Review",
		"Rating",
		"Address",
		"Street",
		"City",
		"State",
		"Country",
		"Google URL",
		"Phone Number",
	},
	// Location and contact columns vary by scrape source.
	Optional: optionalSet(
		"Address",
		"Street",
		"City",
		"State",
		"Country",
		"Google URL",
		"Phone Number",
	),
}

var enrichedSchema = Schema{
	Kind: models.KindEnriched,
	Columns: []string{
		"Business name",
		"Normalized website",
		"Company LinkedIn",
		"Full name",
		"First Name",
		"Job title",
		"Person LinkedIn",
		"FME",
		"E1",
		"E2",
		"E3",
		"E4",
		"Sub1",
		"Sub2",
		"Sub3",
		"Sub4",
	},
	// Trailing classification slots and the company profile column appear only
	// in newer source sheets.
	Optional: optionalSet(
		"Company LinkedIn",
		"E4",
		"Sub4",
	),
}

// SchemaFor returns the column schema for the given data kind.
func SchemaFor(kind models.DataKind) Schema {
	if kind == models.KindEnriched {
		return enrichedSchema
	}
	return rawSchema
}

// NormalizeLabel canonicalizes a header label for lookup: trimmed, lowercased.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// MissingHeaders returns the required header names absent from the file's
// header row. Comparison is case-insensitive and whitespace-trimmed; optional
// columns are exempt, and unknown extra headers are never an error.
func (s Schema) MissingHeaders(headers []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[NormalizeLabel(h)] = struct{}{}
	}

	var missing []string
	for _, column := range s.Columns {
		key := NormalizeLabel(column)
		if _, ok := s.Optional[key]; ok {
			continue
		}
		if _, ok := present[key]; !ok {
			missing = append(missing, column)
		}
	}
	return missing
}

func optionalSet(labels ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[NormalizeLabel(l)] = struct{}{}
	}
	return set
}
