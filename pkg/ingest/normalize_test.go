package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWebsite(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare domain", "acme.com", "acme.com"},
		{"https scheme", "https://acme.com", "acme.com"},
		{"http scheme", "http://acme.com", "acme.com"},
		{"www prefix", "www.acme.com", "acme.com"},
		{"scheme and www", "https://www.acme.com", "acme.com"},
		{"uppercase", "HTTPS://WWW.ACME.COM", "acme.com"},
		{"path stripped", "https://acme.com/contact?ref=1", "acme.com"},
		{"port stripped", "acme.com:8080", "acme.com"},
		{"subdomain kept", "shop.acme.co.uk", "shop.acme.co.uk"},
		{"trailing dot", "acme.com.", "acme.com"},
		{"surrounding whitespace", "  acme.com  ", "acme.com"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"internal whitespace", "not a url", ""},
		{"no dot", "localhost", ""},
		{"single word", "acme", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeWebsite(tt.input))
		})
	}
}

func TestNormalizeWebsiteIdempotent(t *testing.T) {
	inputs := []string{
		"https://www.acme.com/path",
		"Shop.Acme.co.uk",
		"acme.com.",
		"not a url",
		"",
	}

	for _, input := range inputs {
		once := NormalizeWebsite(input)
		assert.Equal(t, once, NormalizeWebsite(once), "input %q", input)
	}
}
