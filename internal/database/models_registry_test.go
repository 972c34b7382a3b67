package database

import (
	"testing"

	modelspkg "murmur/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesEdgeTables(t *testing.T) {
	var follow, like, notification bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.Follow:
			follow = true
		case *modelspkg.Like:
			like = true
		case *modelspkg.Notification:
			notification = true
		}
	}
	require.True(t, follow, "PersistentModels should include Follow")
	require.True(t, like, "PersistentModels should include Like")
	require.True(t, notification, "PersistentModels should include Notification")
}

func TestMongoIndexes_UniqueAccountFields(t *testing.T) {
	indexes := MongoIndexes()[UsersCollection]
	require.Len(t, indexes, 2)
	for _, idx := range indexes {
		require.NotNil(t, idx.Options)
		require.NotNil(t, idx.Options.Unique)
		require.True(t, *idx.Options.Unique)
	}
}
