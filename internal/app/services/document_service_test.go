package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/pkg/apperrors"
)

func TestEnsureLetterIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	first, err := f.documents.EnsureLetter(ctx, id, models.LetterOffer)
	require.NoError(t, err)
	assert.Equal(t, "letters/"+id+"/OFFER.html", first.StorageReference)

	second, err := f.documents.EnsureLetter(ctx, id, models.LetterOffer)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.generator.calls.Load())
}

func TestEnsureLetterConcurrentCallsConverge(t *testing.T) {
	f := newFixture(t)
	f.generator.delay = 20 * time.Millisecond
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	const workers = 8
	var wg sync.WaitGroup
	refs := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			artifact, err := f.documents.EnsureLetter(ctx, id, models.LetterOffer)
			errs[i] = err
			if err == nil {
				refs[i] = artifact.StorageReference
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, refs[0], refs[i])
	}

	letters, err := f.documents.ListLetters(ctx, id)
	require.NoError(t, err)
	assert.Len(t, letters, 1)
}

func TestEnsureLetterConvergesAcrossServices(t *testing.T) {
	// two services share a store but not a singleflight group, as two processes would
	f := newFixture(t)
	f.generator.delay = 10 * time.Millisecond
	other := NewDocumentService(f.repos, f.generator, DocumentConfig{Clock: f.clock.Now}, zerolog.Nop())
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	var wg sync.WaitGroup
	results := make([]*models.LetterArtifact, 2)
	for i, svc := range []DocumentService{f.documents, other} {
		wg.Add(1)
		go func(i int, svc DocumentService) {
			defer wg.Done()
			artifact, err := svc.EnsureLetter(ctx, id, models.LetterOffer)
			assert.NoError(t, err)
			results[i] = artifact
		}(i, svc)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, results[0].ID, results[1].ID)
}

func TestEnsureLetterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	_, err := f.documents.EnsureLetter(ctx, id, models.LetterType("TRANSCRIPT"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// no offer yet
	_, err = f.documents.EnsureLetter(ctx, id, models.LetterOffer)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	f.advanceTo(t, id, models.StatusAdmitted)
	_, err = f.documents.EnsureLetter(ctx, id, models.LetterAdmission)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "admission letter needs an accepted offer")

	_, err = f.documents.EnsureLetter(ctx, "missing", models.LetterOffer)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Zero(t, f.generator.calls.Load())
}

func TestEnsureLetterGeneratorFailure(t *testing.T) {
	f := newFixture(t)
	f.generator.err = errors.New("renderer down")
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	_, err := f.documents.EnsureLetter(ctx, id, models.LetterOffer)
	require.ErrorIs(t, err, apperrors.ErrDocumentGeneration)
	assert.True(t, apperrors.IsRetryable(err))

	app, err := f.admissions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAdmitted, app.Status)

	// a later retry succeeds once the generator recovers
	f.generator.err = nil
	artifact, err := f.documents.EnsureLetter(ctx, id, models.LetterOffer)
	require.NoError(t, err)
	assert.NotEmpty(t, artifact.StorageReference)
}

func TestEnsureLetterHonoursCallerDeadline(t *testing.T) {
	f := newFixture(t)
	f.generator.delay = 600 * time.Millisecond
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := f.documents.EnsureLetter(ctx, id, models.LetterOffer)
	require.ErrorIs(t, err, apperrors.ErrDocumentGeneration)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Less(t, time.Since(started), 400*time.Millisecond)

	// the shared generation still completes and stores the letter
	require.Eventually(t, func() bool {
		letters, err := f.documents.ListLetters(context.Background(), id)
		return err == nil && len(letters) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(1), f.generator.calls.Load())
}

func TestDocumentHookGeneratesOnTransition(t *testing.T) {
	var documents DocumentService
	hook := hookFunc(func(ctx context.Context, event models.TransitionEvent) error {
		return NewDocumentHook(documents, time.Second).AfterCommit(ctx, event)
	})
	f := newFixture(t, hook)
	documents = f.documents
	ctx := context.Background()
	id := f.submit(t)

	f.advanceTo(t, id, models.StatusOfferAccepted)

	letters, err := f.documents.ListLetters(ctx, id)
	require.NoError(t, err)
	require.Len(t, letters, 2)
	types := []models.LetterType{letters[0].LetterType, letters[1].LetterType}
	assert.ElementsMatch(t, []models.LetterType{models.LetterOffer, models.LetterAdmission}, types)
}

func TestDocumentHookFailureKeepsTransition(t *testing.T) {
	var documents DocumentService
	hook := hookFunc(func(ctx context.Context, event models.TransitionEvent) error {
		return NewDocumentHook(documents, time.Second).AfterCommit(ctx, event)
	})
	f := newFixture(t, hook)
	documents = f.documents
	f.generator.err = errors.New("renderer down")
	ctx := context.Background()
	id := f.submit(t)

	f.advanceTo(t, id, models.StatusAdmitted)

	app, err := f.admissions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAdmitted, app.Status)

	letters, err := f.documents.ListLetters(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, letters)
}
