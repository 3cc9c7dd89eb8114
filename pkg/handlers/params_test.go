package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/clients/x/row-data?page=3&pageSize=50&search=acme&sortBy=company_name&sortDir=asc", nil)

	params := parseListParams(req)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 50, params.PageSize)
	assert.Equal(t, "acme", params.Search)
	assert.Equal(t, "company_name", params.Sort)
	assert.Equal(t, "asc", params.Direction)
}

func TestParseListParamsDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/clients/x/row-data", nil)

	params := parseListParams(req)
	assert.Equal(t, 0, params.Page)
	assert.Equal(t, 20, params.Limit())
	assert.Equal(t, 0, params.Offset())
}

func TestParseUploadFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/clients/x/row-data?from=2026-03-15&to=2026-03-16&uploader=Sam&niche=Dentists", nil)

	filter, err := parseUploadFilter(req)
	require.NoError(t, err)
	assert.Equal(t, "Sam", filter.UploaderName)
	assert.Equal(t, "Dentists", filter.NicheName)

	require.NotNil(t, filter.From)
	assert.Equal(t, time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC), *filter.From)
	require.NotNil(t, filter.To)
	assert.Equal(t, time.Date(2026, 3, 16, 18, 59, 59, 999000000, time.UTC), *filter.To)
}

func TestParseUploadFilterEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/clients/x/row-data", nil)

	filter, err := parseUploadFilter(req)
	require.NoError(t, err)
	assert.True(t, filter.IsZero())
}

func TestParseUploadFilterBadDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/clients/x/row-data?from=15-03-2026", nil)

	_, err := parseUploadFilter(req)
	require.Error(t, err)
}
