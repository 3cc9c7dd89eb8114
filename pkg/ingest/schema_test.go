package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leadvault/leadvault-engine/pkg/models"
)

func TestMissingHeadersRaw(t *testing.T) {
	schema := SchemaFor(models.KindRow)

	t.Run("all present", func(t *testing.T) {
		headers := []string{"Company Name", "Website", "Category", "Review", "Rating"}
		assert.Empty(t, schema.MissingHeaders(headers))
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		headers := []string{" company name ", "WEBSITE", "Category", "review", "Rating"}
		assert.Empty(t, schema.MissingHeaders(headers))
	})

	t.Run("missing reported in schema order", func(t *testing.T) {
		headers := []string{"Company Name", "Category"}
		assert.Equal(t, []string{"Website", "Review", "Rating"}, schema.MissingHeaders(headers))
	})

	t.Run("optional columns never required", func(t *testing.T) {
		headers := []string{"Company Name", "Website", "Category", "Review", "Rating"}
		// No Address, Street, City etc.
		assert.Empty(t, schema.MissingHeaders(headers))
	})

	t.Run("dropping any single optional column is fine", func(t *testing.T) {
		for _, optional := range []string{"Address", "Street", "City", "State", "Country", "Google URL", "Phone Number"} {
			var headers []string
			for _, h := range schema.Columns {
				if h != optional {
					headers = append(headers, h)
				}
			}
			assert.Empty(t, schema.MissingHeaders(headers), "dropping %q", optional)
		}
	})

	t.Run("unknown extra headers ignored", func(t *testing.T) {
		headers := []string{"Company Name", "Website", "Category", "Review", "Rating", "Internal Notes"}
		assert.Empty(t, schema.MissingHeaders(headers))
	})
}

func TestMissingHeadersEnriched(t *testing.T) {
	schema := SchemaFor(models.KindEnriched)

	full := []string{
		"Business name", "Normalized website", "Company LinkedIn", "Full name",
		"First Name", "Job title", "Person LinkedIn", "FME",
		"E1", "E2", "E3", "E4", "Sub1", "Sub2", "Sub3", "Sub4",
	}

	t.Run("all present", func(t *testing.T) {
		assert.Empty(t, schema.MissingHeaders(full))
	})

	t.Run("optional columns exempt", func(t *testing.T) {
		var headers []string
		for _, h := range full {
			if h == "Company LinkedIn" || h == "E4" || h == "Sub4" {
				continue
			}
			headers = append(headers, h)
		}
		assert.Empty(t, schema.MissingHeaders(headers))
	})

	t.Run("missing required reported", func(t *testing.T) {
		headers := full[:7] // drops FME onward
		missing := schema.MissingHeaders(headers)
		assert.Contains(t, missing, "FME")
		assert.Contains(t, missing, "Sub1")
		assert.NotContains(t, missing, "E4")
		assert.NotContains(t, missing, "Sub4")
	})
}

// Every optional label must name a schema column, or the exemption would be
// silently dead.
func TestSchemaOptionalSubsetOfColumns(t *testing.T) {
	for _, schema := range []Schema{SchemaFor(models.KindRow), SchemaFor(models.KindEnriched)} {
		known := make(map[string]struct{}, len(schema.Columns))
		for _, c := range schema.Columns {
			known[NormalizeLabel(c)] = struct{}{}
		}
		for label := range schema.Optional {
			assert.Contains(t, known, label, "kind %s", schema.Kind)
		}
	}
}
