package maintenance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/thebtf/usageref/internal/config"
	"github.com/thebtf/usageref/internal/db/gorm"
)

func testStore(t *testing.T) *gorm.Store {
	t.Helper()
	store, err := gorm.NewStore(gorm.Config{
		DSN:      filepath.Join(t.TempDir(), "maintenance.db"),
		MaxConns: 2,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRun_UpdatesStats(t *testing.T) {
	store := testStore(t)
	svc := NewService(store, &config.Config{MaintenanceIntervalMinutes: 5}, zerolog.Nop())

	svc.Run(context.Background())
	svc.Run(context.Background())

	stats := svc.Stats()
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, 5, stats["interval_minutes"])
	assert.Equal(t, int64(2), stats["total_runs"])
	assert.Equal(t, int64(2), stats["total_optimizes"])
	assert.Equal(t, int64(0), stats["total_failures"])
	assert.Contains(t, []any{"healthy", "degraded"}, stats["db_status"])
}

func TestStart_Disabled(t *testing.T) {
	store := testStore(t)
	svc := NewService(store, &config.Config{MaintenanceIntervalMinutes: 0}, zerolog.Nop())
	assert.False(t, svc.Enabled())

	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return for a disabled scheduler")
	}
	svc.Wait()
}

func TestStart_StopsOnSignal(t *testing.T) {
	store := testStore(t)
	svc := NewService(store, &config.Config{MaintenanceIntervalMinutes: 60}, zerolog.Nop())

	go svc.Start(context.Background())
	svc.Stop()
	svc.Stop()

	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int64(0), svc.Stats()["total_runs"])
}
