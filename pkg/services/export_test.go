package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

func str(s string) *string { return &s }

func TestExportRawData(t *testing.T) {
	clientID := uuid.New()
	uploadID := uuid.New()
	uploadDate := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC) // 2026-03-15 in business time

	uploads := &mockUploadRepository{
		forExport: []*models.Upload{{
			ID:           uploadID,
			UploadDate:   uploadDate,
			NicheName:    "Dentists",
			UploaderName: "Sam",
		}},
	}
	rawData := &mockRawDataRepository{
		records: []*models.RawRecord{{
			UploadID:          uploadID,
			CompanyName:       str("Acme"),
			Website:           str("https://acme.com"),
			NormalizedWebsite: str("acme.com"),
			Category:          str("Retail"),
			Review:            str("10"),
			Rating:            str("4.5"),
		}},
	}

	svc := NewExportService(uploads, rawData, &mockEnrichedDataRepository{}, zap.NewNop())

	var buf bytes.Buffer
	count, err := svc.Export(context.Background(), &buf, clientID, models.KindRow, repositories.UploadFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := rows[0]
	assert.Equal(t, "Company Name", header[0])
	assert.Equal(t, []string{"Niche", "Uploader", "Upload date"}, header[len(header)-3:])

	row := rows[1]
	assert.Equal(t, "Acme", row[0])
	assert.Equal(t, "https://acme.com", row[1])
	assert.Equal(t, []string{"Dentists", "Sam", "2026-03-15"}, row[len(row)-3:])
}

func TestExportEnrichedData(t *testing.T) {
	clientID := uuid.New()
	uploadID := uuid.New()

	uploads := &mockUploadRepository{
		forExport: []*models.Upload{{
			ID:           uploadID,
			UploadDate:   time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
			NicheName:    "Plumbers",
			UploaderName: "Alex",
		}},
	}
	enriched := &mockEnrichedDataRepository{
		records: []*models.EnrichedRecord{{
			UploadID:     uploadID,
			BusinessName: str("Acme"),
			FullName:     str("Jordan Lee"),
			FME:          str("jordan@acme.com"),
		}},
	}

	svc := NewExportService(uploads, &mockRawDataRepository{}, enriched, zap.NewNop())

	var buf bytes.Buffer
	count, err := svc.Export(context.Background(), &buf, clientID, models.KindEnriched, repositories.UploadFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Business name", rows[0][0])
	assert.Equal(t, "jordan@acme.com", rows[1][7])
}

func TestExportEmptyResultKeepsHeader(t *testing.T) {
	svc := NewExportService(&mockUploadRepository{}, &mockRawDataRepository{}, &mockEnrichedDataRepository{}, zap.NewNop())

	var buf bytes.Buffer
	count, err := svc.Export(context.Background(), &buf, uuid.New(), models.KindRow, repositories.UploadFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rawExportHeader, rows[0])
}

func TestExportFilename(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "client-6ba7b810-9dad-11d1-80b4-00c04fd430c8-row-export.csv",
		ExportFilename(id, models.KindRow))
}
