package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/imagecatalog/shared"
)

const (
	leaderElectionKey = "leaderElection"
	leaseDuration     = 360 * time.Second
)

type leaderElectionConfig struct {
	LeaderID string `json:"leaderId"`
	LastPing int64  `json:"lastPing"`
}

// databaseLeaderElector keeps a lease in the config table. Only the lease holder runs the daemons.
type databaseLeaderElector struct {
	leaderElectorID string
	configService   shared.ConfigService
	isLeader        atomic.Bool // updated by the daemon goroutine
	now             func() time.Time
}

func NewDatabaseLeaderElector(configService shared.ConfigService) *databaseLeaderElector {
	return &databaseLeaderElector{
		configService:   configService,
		leaderElectorID: uuid.New().String(),
		now:             time.Now,
	}
}

func randomNumberBetween(min, max int) int {
	return rand.Intn(max-min) + min // #nosec
}

// Run renews or takes over the lease until ctx is done.
func (e *databaseLeaderElector) Run(ctx context.Context) {
	for {
		isLeader, err := e.checkIfLeader()
		if err != nil {
			slog.Error("could not check if leader", "err", err)
		}
		if e.isLeader.Swap(isLeader) != isLeader {
			slog.Info("leadership changed", "id", e.leaderElectorID, "isLeader", isLeader)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(randomNumberBetween(60, 180)) * time.Second):
		}
	}
}

func (e *databaseLeaderElector) IsLeader() bool {
	return e.isLeader.Load()
}

func (e *databaseLeaderElector) ping() error {
	return e.configService.SetJSONConfig(leaderElectionKey, leaderElectionConfig{
		LeaderID: e.leaderElectorID,
		LastPing: e.now().Unix(),
	})
}

func (e *databaseLeaderElector) checkIfLeader() (bool, error) {
	var config leaderElectionConfig

	err := e.configService.GetJSONConfig(leaderElectionKey, &config)
	if err != nil {
		slog.Debug("no leader election lease found", "err", err)
		return true, e.ping()
	}

	switch {
	case config.LeaderID == e.leaderElectorID:
		// renew our own lease
		return true, e.ping()
	case e.now().Unix()-config.LastPing > int64(leaseDuration.Seconds()):
		// the leader probably died
		return true, e.ping()
	}
	return false, nil
}

// resign drops the lease if this instance holds it so another instance can take over on its next check.
func (e *databaseLeaderElector) resign() error {
	if !e.isLeader.Swap(false) {
		return nil
	}
	var config leaderElectionConfig
	err := e.configService.GetJSONConfig(leaderElectionKey, &config)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if config.LeaderID != e.leaderElectorID {
		return nil
	}
	return e.configService.RemoveConfig(leaderElectionKey)
}
