package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/l3montree-dev/imagecatalog/config"
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/database/repositories"
	"github.com/l3montree-dev/imagecatalog/integrationtestutil"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueuedJob struct {
	kind models.JobKind
	key  string
}

type recordingQueue struct {
	jobs []enqueuedJob
}

func (q *recordingQueue) Enqueue(_ context.Context, kind models.JobKind, entityKey string) (bool, error) {
	q.jobs = append(q.jobs, enqueuedJob{kind: kind, key: entityKey})
	return true, nil
}

type packageSyncFixture struct {
	service  *PackageSyncService
	queue    *recordingQueue
	packages shared.PackageRepository
	versions shared.VersionRepository
	config   ConfigService
	requests []string
	// onRequest runs while the service waits for the packages api
	onRequest func()
}

func newPackageSyncFixture(t *testing.T, routes map[string]string) *packageSyncFixture {
	t.Helper()
	f := &packageSyncFixture{queue: &recordingQueue{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.URL.RequestURI())
		if f.onRequest != nil {
			f.onRequest()
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	db := integrationtestutil.InitSQLiteDatabase(t)
	f.packages = repositories.NewPackageRepository(db)
	f.versions = repositories.NewVersionRepository(db)
	f.config = NewConfigService(repositories.NewConfigRepository(db))
	f.service = NewPackageSyncService(f.packages, f.versions, f.config, f.queue, config.Config{PackagesAPIURL: srv.URL})
	return f
}

func TestPackageSyncServiceSyncLatestRelease(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	published := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	t.Run("should create the release and enqueue a scan", func(t *testing.T) {
		f := newPackageSyncFixture(t, map[string]string{
			"/packages/library/redis": `{"name": "library/redis", "description": "Redis is an in-memory store", "downloads": 1000, "latest_release_number": "7.2", "latest_release_published_at": "2026-01-05T08:00:00Z"}`,
		})
		f.service.now = func() time.Time { return now }
		pkg, err := f.packages.FindOrCreateByName(nil, "library/redis")
		require.NoError(t, err)

		require.NoError(t, f.service.SyncLatestRelease(context.Background(), pkg.ID))

		pkg, err = f.packages.Read(pkg.ID)
		require.NoError(t, err)
		assert.Equal(t, "7.2", *pkg.LatestReleaseNumber)
		assert.True(t, published.Equal(*pkg.LatestReleasePublishedAt))
		assert.Equal(t, int64(1000), pkg.Downloads)
		assert.Equal(t, "Redis is an in-memory store", *pkg.Description)
		assert.Equal(t, 1, pkg.VersionsCount)

		version, err := f.versions.FindByNumber(nil, pkg.ID, "7.2")
		require.NoError(t, err)
		assert.True(t, published.Equal(*version.PublishedAt))
		assert.Equal(t, []enqueuedJob{{kind: models.JobKindBOMSync, key: "1"}}, f.queue.jobs)
	})

	t.Run("an unchanged release should only touch the package", func(t *testing.T) {
		f := newPackageSyncFixture(t, map[string]string{
			"/packages/library/redis": `{"name": "library/redis", "latest_release_number": "7.2", "latest_release_published_at": "2026-01-05T08:00:00Z"}`,
		})
		pkg, err := f.packages.FindOrCreateByName(nil, "library/redis")
		require.NoError(t, err)
		require.NoError(t, f.service.SyncLatestRelease(context.Background(), pkg.ID))
		f.queue.jobs = nil

		f.service.now = func() time.Time { return now }
		require.NoError(t, f.service.SyncLatestRelease(context.Background(), pkg.ID))

		assert.Empty(t, f.queue.jobs)
		pkg, err = f.packages.Read(pkg.ID)
		require.NoError(t, err)
		assert.True(t, now.Equal(*pkg.LastSyncedAt))
	})

	t.Run("should keep a bom sync which finished during the fetch", func(t *testing.T) {
		for name, body := range map[string]string{
			"new release":       `{"name": "library/redis", "downloads": 7, "latest_release_number": "7.2", "latest_release_published_at": "2026-01-05T08:00:00Z"}`,
			"unchanged release": `{"name": "library/redis", "downloads": 7}`,
		} {
			t.Run(name, func(t *testing.T) {
				f := newPackageSyncFixture(t, map[string]string{"/packages/library/redis": body})
				f.service.now = func() time.Time { return now }
				pkg, err := f.packages.FindOrCreateByName(nil, "library/redis")
				require.NoError(t, err)
				version, err := f.versions.FindOrCreateByNumber(nil, pkg.ID, "7.2")
				require.NoError(t, err)
				if name == "unchanged release" {
					latest := "latest"
					pkg.LatestReleaseNumber = &latest
					require.NoError(t, f.packages.UpdateMetadata(nil, &pkg))
				}

				scannedAt := now.Add(-time.Minute)
				distro, syft := "Alpine Linux v3.19", "1.4.1"
				f.onRequest = func() {
					assert.NoError(t, f.versions.ApplyScanSummary(nil, version.ID, &distro, &syft, 10, scannedAt))
					assert.NoError(t, f.packages.MarkScanned(nil, pkg.ID, 42, scannedAt))
				}

				require.NoError(t, f.service.SyncLatestRelease(context.Background(), pkg.ID))

				pkg, err = f.packages.Read(pkg.ID)
				require.NoError(t, err)
				assert.True(t, pkg.HasSBOM)
				assert.Equal(t, 42, pkg.DependenciesCount)
				assert.Equal(t, int64(7), pkg.Downloads)

				version, err = f.versions.Read(version.ID)
				require.NoError(t, err)
				assert.Equal(t, syft, *version.SyftVersion)
				assert.Equal(t, distro, *version.DistroName)
				assert.Equal(t, 10, version.ArtifactsCount)
			})
		}
	})

	t.Run("a missing release number should fall back to latest", func(t *testing.T) {
		f := newPackageSyncFixture(t, map[string]string{
			"/packages/acme/tool": `{"name": "acme/tool"}`,
		})
		pkg, err := f.packages.FindOrCreateByName(nil, "acme/tool")
		require.NoError(t, err)

		require.NoError(t, f.service.SyncLatestRelease(context.Background(), pkg.ID))

		_, err = f.versions.FindByNumber(nil, pkg.ID, "latest")
		assert.NoError(t, err)
	})

	t.Run("should fail if the api does not know the package", func(t *testing.T) {
		f := newPackageSyncFixture(t, map[string]string{})
		pkg, err := f.packages.FindOrCreateByName(nil, "acme/unknown")
		require.NoError(t, err)

		assert.Error(t, f.service.SyncLatestRelease(context.Background(), pkg.ID))
		assert.Empty(t, f.queue.jobs)
	})
}

func TestPackageSyncServiceSyncPopular(t *testing.T) {
	t.Run("should store the packages and advance the page cursor", func(t *testing.T) {
		f := newPackageSyncFixture(t, map[string]string{
			"/packages": `[{"name": "library/redis", "downloads": 10}, {"name": "acme/no-downloads"}, {"name": "library/nginx", "downloads": 5}]`,
		})

		require.NoError(t, f.service.SyncPopular(context.Background()))

		assert.Equal(t, []string{"/packages?limit=100&order=desc&page=1&sort=downloads"}, f.requests)
		assert.Len(t, f.queue.jobs, 2)
		for _, job := range f.queue.jobs {
			assert.Equal(t, models.JobKindPackageSync, job.kind)
		}
		_, err := f.packages.FindByName(nil, "acme/no-downloads")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		var page int
		require.NoError(t, f.config.GetJSONConfig(popularPageKey, &page))
		assert.Equal(t, 2, page)
	})

	t.Run("an empty page should restart from the first page", func(t *testing.T) {
		f := newPackageSyncFixture(t, map[string]string{"/packages": `[]`})
		require.NoError(t, f.config.SetJSONConfig(popularPageKey, 42))

		require.NoError(t, f.service.SyncPopular(context.Background()))

		assert.Equal(t, []string{"/packages?limit=100&order=desc&page=42&sort=downloads"}, f.requests)
		var page int
		require.NoError(t, f.config.GetJSONConfig(popularPageKey, &page))
		assert.Equal(t, 1, page)
	})
}
