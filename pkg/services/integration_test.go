package services_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/clock"
	"github.com/leadvault/leadvault-engine/pkg/config"
	"github.com/leadvault/leadvault-engine/pkg/database"
	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
	"github.com/leadvault/leadvault-engine/pkg/services"
	"github.com/leadvault/leadvault-engine/pkg/testhelpers"
)

type pipelineEnv struct {
	db       *database.DB
	ingest   services.IngestService
	export   services.ExportService
	purge    services.PurgeService
	uploads  repositories.UploadRepository
	rawData  repositories.RawDataRepository
	enriched repositories.EnrichedDataRepository
	clientID uuid.UUID
	nicheID  uuid.UUID
	uplID    uuid.UUID
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	ctx := context.Background()

	client, err := repositories.NewClientRepository(testDB.DB).Create(ctx, "Acme")
	require.NoError(t, err)
	niche, err := repositories.NewNicheRepository(testDB.DB).Create(ctx, "Dentists")
	require.NoError(t, err)
	uploader, err := repositories.NewUploaderRepository(testDB.DB).Create(ctx, "Sam")
	require.NoError(t, err)

	uploads := repositories.NewUploadRepository(testDB.DB)
	rawData := repositories.NewRawDataRepository(testDB.DB)
	enriched := repositories.NewEnrichedDataRepository(testDB.DB)

	cfg := config.IngestConfig{
		InsertBatchSize:    1000,
		DedupeBatchSize:    1000,
		TxTimeoutSeconds:   30,
		MaxErrorMessageLen: 500,
	}

	return &pipelineEnv{
		db:       testDB.DB,
		ingest:   services.NewIngestService(testDB.DB, uploads, rawData, enriched, clock.NewSystemClock(), cfg, zap.NewNop()),
		export:   services.NewExportService(uploads, rawData, enriched, zap.NewNop()),
		purge:    services.NewPurgeService(testDB.DB, uploads, rawData, enriched, zap.NewNop()),
		uploads:  uploads,
		rawData:  rawData,
		enriched: enriched,
		clientID: client.ID,
		nicheID:  niche.ID,
		uplID:    uploader.ID,
	}
}

func (env *pipelineEnv) ingestCSV(t *testing.T, body string) (*services.IngestResult, error) {
	t.Helper()
	return env.ingest.Ingest(context.Background(), &services.IngestRequest{
		ClientID:   env.clientID,
		NicheID:    env.nicheID,
		UploaderID: env.uplID,
		Kind:       models.KindRow,
		Filename:   "leads.csv",
		File:       strings.NewReader(body),
	})
}

const rawCSVHeader = "Company Name,Website,Category,Review,Rating,Address,Street,City,State,Country,Google URL,Phone Number\n"

func TestIngestPipeline(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	body := rawCSVHeader +
		"Acme,https://www.acme.com/contact,Dental,Great,4.8,,,Austin,TX,US,,\n" +
		"Acme Dup,http://ACME.com,Dental,Fine,4.1,,,Austin,TX,US,,\n" +
		"Globex,globex.com,Dental,Ok,3.9,,,Dallas,TX,US,,\n"

	result, err := env.ingestCSV(t, body)
	require.NoError(t, err)
	// The second row normalizes to the same website as the first.
	assert.Equal(t, 2, result.RowCount)

	total, uploads, err := env.uploads.ListByClient(ctx, env.clientID, repositories.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, models.UploadStatusSuccess, uploads[0].Status)
	assert.Equal(t, 2, uploads[0].RowCount)
	assert.Equal(t, "leads.csv", uploads[0].OriginalFilename)

	t.Run("re-ingest is fully deduplicated", func(t *testing.T) {
		result, err := env.ingestCSV(t, body)
		require.NoError(t, err)
		assert.Equal(t, 0, result.RowCount)

		count, err := env.rawData.CountByClient(ctx, env.clientID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("missing columns leave a failed audit record", func(t *testing.T) {
		_, err := env.ingestCSV(t, "Company Name,Website\nAcme,acme.com\n")
		var pipeErr *services.PipelineError
		require.ErrorAs(t, err, &pipeErr)
		assert.True(t, pipeErr.ClientFault)

		total, uploads, err := env.uploads.ListByClient(ctx, env.clientID, repositories.ListParams{})
		require.NoError(t, err)
		require.Equal(t, 3, total)

		var failed *models.Upload
		for _, u := range uploads {
			if u.Status == models.UploadStatusFailed {
				failed = u
			}
		}
		require.NotNil(t, failed)
		assert.Contains(t, *failed.ErrorMessage, "Missing required columns")
	})

	t.Run("export carries upload context", func(t *testing.T) {
		var buf bytes.Buffer
		rows, err := env.export.Export(ctx, &buf, env.clientID, models.KindRow, repositories.UploadFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, rows)

		out := buf.String()
		assert.Contains(t, out, "acme.com")
		assert.Contains(t, out, "Dentists")
		assert.Contains(t, out, "Sam")
	})

	t.Run("purge removes records and orphaned uploads", func(t *testing.T) {
		result, err := env.purge.Purge(ctx, &services.PurgeRequest{
			ClientID: env.clientID,
			Kind:     services.PurgeKindRow,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.RawDeleted)
		assert.Equal(t, int64(0), result.EnrichedDeleted)
		// Both row uploads lose their records; the failed upload has none to
		// begin with but was targeted by the filter.
		assert.Equal(t, int64(3), result.UploadsDeleted)

		count, err := env.rawData.CountByClient(ctx, env.clientID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestIngestPersistFailureRollsBack(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	// One row per insert chunk, so the first chunk has already run inside the
	// transaction when the second one fails.
	cfg := config.IngestConfig{
		InsertBatchSize:    1,
		DedupeBatchSize:    1000,
		TxTimeoutSeconds:   30,
		MaxErrorMessageLen: 500,
	}
	svc := services.NewIngestService(env.db, env.uploads, env.rawData, env.enriched,
		clock.NewSystemClock(), cfg, zap.NewNop())

	// The second row's website normalizes to a dedup key far beyond the btree
	// index entry limit, so its insert raises an error the conflict clause
	// does not swallow.
	oversized := strings.Repeat("a", 4000) + ".com"
	body := rawCSVHeader +
		"Acme,acme.com,Dental,Great,4.8,,,Austin,TX,US,,\n" +
		"Broken," + oversized + ",Dental,Bad,1.0,,,Austin,TX,US,,\n"

	_, err := svc.Ingest(ctx, &services.IngestRequest{
		ClientID:   env.clientID,
		NicheID:    env.nicheID,
		UploaderID: env.uplID,
		Kind:       models.KindRow,
		Filename:   "broken.csv",
		File:       strings.NewReader(body),
	})

	var pipeErr *services.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.False(t, pipeErr.ClientFault)

	count, err := env.rawData.CountByClient(ctx, env.clientID)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "no chunk may survive a failed persist transaction")

	total, uploads, err := env.uploads.ListByClient(ctx, env.clientID, repositories.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 1, total, "exactly one audit record per attempt")
	assert.Equal(t, models.UploadStatusFailed, uploads[0].Status)
	assert.Equal(t, pipeErr.UploadID, uploads[0].ID)
	assert.Equal(t, 2, uploads[0].RowCount)
	require.NotNil(t, uploads[0].ErrorMessage)
	assert.LessOrEqual(t, len(*uploads[0].ErrorMessage), 500)
}
