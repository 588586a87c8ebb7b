package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/repositories"
	"github.com/yigit/admissions/internal/app/repositories/memory"
)

func TestLetterKey(t *testing.T) {
	assert.Equal(t, "admissions:letter:app-1:OFFER", LetterKey("app-1", models.LetterOffer))
}

// unreachableClient points at a port nothing listens on, so every command fails fast
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestLetterRepositoryDegradesToStoreWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()

	require.NoError(t, repos.Courses.Upsert(ctx, &models.Course{ID: "MSC-DS", DegreeLevel: "MASTER", FieldTag: "science"}))
	applicant := &models.Applicant{Email: "grace@example.com", FullName: "Grace"}
	require.NoError(t, repos.Applicants.Upsert(ctx, applicant))
	require.NoError(t, repos.Applications.Create(ctx, &models.Application{ID: "app-1", ApplicantID: applicant.ID, CourseID: "MSC-DS", Status: models.StatusAdmitted}))

	client := unreachableClient()
	defer client.Close()
	cached := NewLetterRepository(repos.Letters, client, time.Hour, zerolog.Nop())

	_, err := cached.Get(ctx, "app-1", models.LetterOffer)
	assert.ErrorIs(t, err, repositories.ErrLetterNotFound)

	artifact := &models.LetterArtifact{ID: "l1", ApplicationID: "app-1", LetterType: models.LetterOffer, StorageReference: "letters/app-1/x.html", GeneratedAt: time.Now().UTC()}
	require.NoError(t, cached.Create(ctx, artifact))
	assert.ErrorIs(t, cached.Create(ctx, artifact), repositories.ErrLetterAlreadyExists)

	got, err := cached.Get(ctx, "app-1", models.LetterOffer)
	require.NoError(t, err)
	assert.Equal(t, "letters/app-1/x.html", got.StorageReference)

	all, err := cached.ListByApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
