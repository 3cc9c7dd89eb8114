package ingest

import (
	"strings"

	"github.com/google/uuid"

	"github.com/leadvault/leadvault-engine/pkg/models"
)

// ExtractionContext is an immutable view of one file's header layout. It maps
// normalized labels to column indexes, built once per file; lookups through it
// are total, defaulting to null on any miss.
type ExtractionContext struct {
	headers []string
	index   map[string]int
}

// NewExtractionContext builds the label→column index for a header row. When a
// label occurs more than once the first column wins.
func NewExtractionContext(headers []string) *ExtractionContext {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeLabel(h)
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}
	return &ExtractionContext{headers: headers, index: index}
}

// Value returns the trimmed cell under the given label, or nil when the
// column is absent, the row is short, or the cell is empty.
func (c *ExtractionContext) Value(row []string, label string) *string {
	idx, ok := c.index[NormalizeLabel(label)]
	if !ok || idx >= len(row) {
		return nil
	}
	s := trimToNull(row[idx])
	return s
}

// ExtractRaw maps one parsed row to a RawRecord. Extraction is total: every
// schema field is populated or nil, and no value content is validated (rating,
// review etc. are stored as opaque text).
func (c *ExtractionContext) ExtractRaw(clientID uuid.UUID, row []string) *models.RawRecord {
	website := c.Value(row, "Website")

	var normalized *string
	if website != nil {
		if n := NormalizeWebsite(*website); n != "" {
			normalized = &n
		}
	}

	return &models.RawRecord{
		ClientID:          clientID,
		CompanyName:       c.Value(row, "Company Name"),
		Website:           website,
		NormalizedWebsite: normalized,
		Category:          c.Value(row, "Category"),
		Review:            c.Value(row, "Review"),
		Rating:            c.Value(row, "Rating"),
		Address:           c.Value(row, "Address"),
		Street:            c.Value(row, "Street"),
		City:              c.Value(row, "City"),
		State:             c.Value(row, "State"),
		Country:           c.Value(row, "Country"),
		GoogleURL:         c.Value(row, "Google URL"),
		PhoneNumber:       c.Value(row, "Phone Number"),
	}
}

// ExtractEnriched maps one parsed row to an EnrichedRecord.
func (c *ExtractionContext) ExtractEnriched(clientID uuid.UUID, row []string) *models.EnrichedRecord {
	return &models.EnrichedRecord{
		ClientID:          clientID,
		BusinessName:      c.Value(row, "Business name"),
		NormalizedWebsite: c.Value(row, "Normalized website"),
		CompanyLinkedIn:   c.Value(row, "Company LinkedIn"),
		FullName:          c.Value(row, "Full name"),
		FirstName:         c.Value(row, "First Name"),
		JobTitle:          c.Value(row, "Job title"),
		PersonLinkedIn:    c.Value(row, "Person LinkedIn"),
		FME:               c.Value(row, "FME"),
		E1:                c.Value(row, "E1"),
		E2:                c.Value(row, "E2"),
		E3:                c.Value(row, "E3"),
		E4:                c.Value(row, "E4"),
		Sub1:              c.Value(row, "Sub1"),
		Sub2:              c.Value(row, "Sub2"),
		Sub3:              c.Value(row, "Sub3"),
		Sub4:              c.Value(row, "Sub4"),
	}
}

func trimToNull(cell string) *string {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	return &s
}
