package mongo

import (
	"context"
	"testing"

	"commonspace/internal/testutil"
	"commonspace/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoIntegration_RunMigrationIsRepeatable(t *testing.T) {
	client := testutil.StartMongo(t)
	db := client.Database("commonspace_migrate_it")
	ctx := context.Background()

	before, err := Status(ctx, db)
	require.NoError(t, err)
	for _, st := range before {
		assert.False(t, st.Exists, st.Name)
	}

	require.NoError(t, RunMigration(ctx, db, logger.Discard()))
	require.NoError(t, RunMigration(ctx, db, logger.Discard()))

	after, err := Status(ctx, db)
	require.NoError(t, err)
	require.Len(t, after, len(Collections()))
	for _, st := range after {
		assert.True(t, st.Exists, st.Name)
		assert.Contains(t, st.Indexes, "_id_", st.Name)
	}
}
