package services

import (
	"testing"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/repositories"
	"github.com/l3montree-dev/imagecatalog/integrationtestutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseLeaderElector(t *testing.T) {
	t.Run("only one of two electors should become leader", func(t *testing.T) {
		db := integrationtestutil.InitSQLiteDatabase(t)
		configService := NewConfigService(repositories.NewConfigRepository(db))

		first := NewDatabaseLeaderElector(configService)
		second := NewDatabaseLeaderElector(configService)

		isLeader, err := first.checkIfLeader()
		require.NoError(t, err)
		assert.True(t, isLeader)

		isLeader, err = second.checkIfLeader()
		require.NoError(t, err)
		assert.False(t, isLeader)

		// the leader keeps its lease
		isLeader, err = first.checkIfLeader()
		require.NoError(t, err)
		assert.True(t, isLeader)
	})

	t.Run("should take over an expired lease", func(t *testing.T) {
		db := integrationtestutil.InitSQLiteDatabase(t)
		configService := NewConfigService(repositories.NewConfigRepository(db))
		now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

		first := NewDatabaseLeaderElector(configService)
		first.now = func() time.Time { return now }
		second := NewDatabaseLeaderElector(configService)
		second.now = func() time.Time { return now.Add(leaseDuration + time.Second) }

		isLeader, err := first.checkIfLeader()
		require.NoError(t, err)
		require.True(t, isLeader)

		isLeader, err = second.checkIfLeader()
		require.NoError(t, err)
		assert.True(t, isLeader)

		first.now = second.now
		isLeader, err = first.checkIfLeader()
		require.NoError(t, err)
		assert.False(t, isLeader)
	})

	t.Run("a resigned leader should hand over immediately", func(t *testing.T) {
		db := integrationtestutil.InitSQLiteDatabase(t)
		configService := NewConfigService(repositories.NewConfigRepository(db))

		first := NewDatabaseLeaderElector(configService)
		second := NewDatabaseLeaderElector(configService)

		isLeader, err := first.checkIfLeader()
		require.NoError(t, err)
		first.isLeader.Store(isLeader)

		require.NoError(t, first.resign())
		assert.False(t, first.IsLeader())

		isLeader, err = second.checkIfLeader()
		require.NoError(t, err)
		assert.True(t, isLeader)
	})

	t.Run("a follower should not remove the lease", func(t *testing.T) {
		db := integrationtestutil.InitSQLiteDatabase(t)
		configService := NewConfigService(repositories.NewConfigRepository(db))

		first := NewDatabaseLeaderElector(configService)
		second := NewDatabaseLeaderElector(configService)

		_, err := first.checkIfLeader()
		require.NoError(t, err)
		second.isLeader.Store(true)
		require.NoError(t, second.resign())

		var lease leaderElectionConfig
		require.NoError(t, configService.GetJSONConfig(leaderElectionKey, &lease))
		assert.Equal(t, first.leaderElectorID, lease.LeaderID)
	})
}
