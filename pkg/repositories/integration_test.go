package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/database"
	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
	"github.com/leadvault/leadvault-engine/pkg/testhelpers"
)

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	return testDB.DB
}

// seedUpload creates the client/niche/uploader graph one upload needs and
// returns the persisted upload.
func seedUpload(t *testing.T, db *database.DB, kind models.DataKind) (*models.Client, *models.Upload) {
	t.Helper()
	ctx := context.Background()

	client, err := repositories.NewClientRepository(db).Create(ctx, "Client "+uuid.NewString()[:8])
	require.NoError(t, err)
	niche, err := repositories.NewNicheRepository(db).Create(ctx, "Niche "+uuid.NewString()[:8])
	require.NoError(t, err)
	uploader, err := repositories.NewUploaderRepository(db).Create(ctx, "Uploader "+uuid.NewString()[:8])
	require.NoError(t, err)

	upload := &models.Upload{
		ClientID:         client.ID,
		NicheID:          niche.ID,
		UploaderID:       uploader.ID,
		DataKind:         kind,
		UploadDate:       time.Now().UTC(),
		OriginalFilename: "seed.csv",
		RowCount:         0,
		Status:           models.UploadStatusSuccess,
	}
	require.NoError(t, repositories.NewUploadRepository(db).Create(ctx, db, upload))
	return client, upload
}

func rawRecord(clientID uuid.UUID, company, website string) *models.RawRecord {
	rec := &models.RawRecord{ClientID: clientID}
	if company != "" {
		rec.CompanyName = &company
	}
	if website != "" {
		rec.Website = &website
		rec.NormalizedWebsite = &website
	}
	return rec
}

func TestClientRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repositories.NewClientRepository(db)

	created, err := repo.Create(ctx, "Acme")
	require.NoError(t, err)

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := repo.Create(ctx, "Acme")
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Name)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		_, err := repo.Create(ctx, "Globex")
		require.NoError(t, err)

		clients, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, clients, 2)
		assert.Equal(t, "Globex", clients[0].Name)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, created.ID))
		assert.ErrorIs(t, repo.Delete(ctx, created.ID), apperrors.ErrNotFound)
	})
}

func TestNicheRepositoryAssignments(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	niches := repositories.NewNicheRepository(db)
	clients := repositories.NewClientRepository(db)

	client, err := clients.Create(ctx, "Acme")
	require.NoError(t, err)
	niche, err := niches.Create(ctx, "Dentists")
	require.NoError(t, err)

	t.Run("case-insensitive name uniqueness", func(t *testing.T) {
		_, err := niches.Create(ctx, "DENTISTS")
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("assign and list", func(t *testing.T) {
		require.NoError(t, niches.Assign(ctx, client.ID, niche.ID))

		assigned, err := niches.ListForClient(ctx, client.ID)
		require.NoError(t, err)
		require.Len(t, assigned, 1)
		assert.Equal(t, niche.ID, assigned[0].ID)
	})

	t.Run("duplicate assignment conflicts", func(t *testing.T) {
		assert.ErrorIs(t, niches.Assign(ctx, client.ID, niche.ID), apperrors.ErrConflict)
	})

	t.Run("unassign", func(t *testing.T) {
		require.NoError(t, niches.Unassign(ctx, client.ID, niche.ID))
		assert.ErrorIs(t, niches.Unassign(ctx, client.ID, niche.ID), apperrors.ErrNotFound)
	})
}

func TestRawDataRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repositories.NewRawDataRepository(db)

	client, upload := seedUpload(t, db, models.KindRow)

	records := []*models.RawRecord{
		rawRecord(client.ID, "Acme", "acme.com"),
		rawRecord(client.ID, "Globex", "globex.com"),
		rawRecord(client.ID, "No Website", ""),
	}

	inserted, err := repo.InsertBatch(ctx, db, upload.ID, records, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)

	t.Run("existing keys", func(t *testing.T) {
		existing, err := repo.ExistingKeys(ctx, client.ID, []string{"acme.com", "missing.com"})
		require.NoError(t, err)
		assert.Contains(t, existing, "acme.com")
		assert.NotContains(t, existing, "missing.com")
	})

	t.Run("conflict backstop skips duplicates", func(t *testing.T) {
		inserted, err := repo.InsertBatch(ctx, db, upload.ID,
			[]*models.RawRecord{rawRecord(client.ID, "Acme Again", "acme.com")}, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(0), inserted)
	})

	t.Run("null keys never conflict", func(t *testing.T) {
		inserted, err := repo.InsertBatch(ctx, db, upload.ID,
			[]*models.RawRecord{rawRecord(client.ID, "Another Keyless", "")}, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), inserted)
	})

	t.Run("list with search", func(t *testing.T) {
		total, items, err := repo.List(ctx, client.ID,
			repositories.ListParams{Search: "acme"}, repositories.UploadFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "Acme", *items[0].CompanyName)
		assert.NotEmpty(t, items[0].NicheName)
	})

	t.Run("count", func(t *testing.T) {
		count, err := repo.CountByClient(ctx, client.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("delete by uploads and orphan cleanup", func(t *testing.T) {
		deleted, err := repo.DeleteByUploads(ctx, db, client.ID, []uuid.UUID{upload.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(4), deleted)

		uploads := repositories.NewUploadRepository(db)
		orphans, err := uploads.DeleteOrphans(ctx, db, client.ID, []uuid.UUID{upload.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), orphans)
	})
}

func TestUploadRepositoryListing(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repositories.NewUploadRepository(db)

	client, upload := seedUpload(t, db, models.KindRow)

	t.Run("list by client joins names", func(t *testing.T) {
		total, uploads, err := repo.ListByClient(ctx, client.ID, repositories.ListParams{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, uploads, 1)
		assert.Equal(t, upload.ID, uploads[0].ID)
		assert.NotEmpty(t, uploads[0].NicheName)
		assert.NotEmpty(t, uploads[0].UploaderName)
	})

	t.Run("successful feed", func(t *testing.T) {
		uploads, err := repo.ListSuccessfulByClient(ctx, client.ID)
		require.NoError(t, err)
		assert.Len(t, uploads, 1)
	})

	t.Run("update row count", func(t *testing.T) {
		require.NoError(t, repo.UpdateRowCount(ctx, db, upload.ID, 7))

		_, uploads, err := repo.ListByClient(ctx, client.ID, repositories.ListParams{})
		require.NoError(t, err)
		require.Len(t, uploads, 1)
		assert.Equal(t, 7, uploads[0].RowCount)
	})

	t.Run("filter by kind ref", func(t *testing.T) {
		refs, err := repo.FindByFilter(ctx, client.ID, repositories.UploadFilter{})
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, models.KindRow, refs[0].DataKind)
	})
}

func TestUserRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(db)
	clients := repositories.NewClientRepository(db)

	client, err := clients.Create(ctx, "Acme")
	require.NoError(t, err)

	user := &models.User{
		Username:     "viewer",
		PasswordHash: "hash",
		ClientID:     &client.ID,
	}
	require.NoError(t, users.Create(ctx, user))

	t.Run("duplicate username conflicts", func(t *testing.T) {
		err := users.Create(ctx, &models.User{Username: "viewer", PasswordHash: "x", AccessAllClients: true})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("get by username", func(t *testing.T) {
		got, err := users.GetByUsername(ctx, "viewer")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		require.NotNil(t, got.ClientID)
		assert.Equal(t, client.ID, *got.ClientID)
	})

	t.Run("update scope", func(t *testing.T) {
		user.AccessAllClients = true
		user.ClientID = nil
		require.NoError(t, users.Update(ctx, user))

		got, err := users.Get(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, got.AccessAllClients)
		assert.Nil(t, got.ClientID)
	})

	t.Run("scoped user cascades with client", func(t *testing.T) {
		scoped := &models.User{Username: "scoped", PasswordHash: "x", ClientID: &client.ID}
		require.NoError(t, users.Create(ctx, scoped))
		require.NoError(t, clients.Delete(ctx, client.ID))

		_, err := users.Get(ctx, scoped.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
