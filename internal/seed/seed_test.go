package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/testutil"
)

func TestRunSeedsEmptyDatabaseOnce(t *testing.T) {
	db := testutil.OpenSQLite(t)
	logger := zaptest.NewLogger(t)
	svc := events.NewService(events.NewRepository(db), nil, 0, logger)
	ctx := context.Background()

	res, err := Run(ctx, svc, logger)
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.Equal(t, len(Catalog()), res.Count)

	again, err := Run(ctx, svc, logger)
	require.NoError(t, err)
	require.True(t, again.Skipped)
	require.Equal(t, res.Count, again.Count)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Contains(t, categories, "Food & Drink")
}

func TestRunSkipsWhenEventsExist(t *testing.T) {
	db := testutil.OpenSQLite(t)
	testutil.InsertEvent(t, db, testutil.EventFixture{})
	svc := events.NewService(events.NewRepository(db), nil, 0, nil)

	res, err := Run(context.Background(), svc, nil)
	require.NoError(t, err)
	require.True(t, res.Skipped)
	require.Equal(t, 1, res.Count)
}

func TestCatalogEventsAreValid(t *testing.T) {
	for _, e := range Catalog() {
		require.NotEmpty(t, e.Name)
		require.NotEmpty(t, e.Organizer)
		require.Positive(t, e.Capacity, e.Name)
		require.False(t, e.Date.IsZero(), e.Name)
	}
}
