package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncErrorString(t *testing.T) {
	t.Run("timeouts should render as the marker", func(t *testing.T) {
		err := WithCause(ErrScanTimeout, errors.New("killed after 15m0s"))
		assert.Equal(t, ScanTimeoutMarker, SyncErrorString(err))
	})

	t.Run("should prefix the cause", func(t *testing.T) {
		err := WithCause(ErrScanExecution, errors.New("exit status 1"))
		assert.Equal(t, "ScanExecutionFailure: exit status 1", SyncErrorString(err))
		assert.ErrorIs(t, err, ErrScanExecution)
	})

	t.Run("should find the cause through wrapping", func(t *testing.T) {
		err := fmt.Errorf("could not persist: %w", WithCause(ErrPersistence, errors.New("disk full")))
		assert.Equal(t, "PersistenceFailure: could not persist: disk full", SyncErrorString(err))
	})

	t.Run("should render unknown errors", func(t *testing.T) {
		assert.Equal(t, "UnknownFailure: boom", SyncErrorString(errors.New("boom")))
	})
}
