package services

import (
	"testing"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/database/repositories"
	databasetypes "github.com/l3montree-dev/imagecatalog/database/types"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/integrationtestutil"
	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/l3montree-dev/imagecatalog/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matcherFixture struct {
	t           *testing.T
	matcher     *DistroMatcher
	distros     shared.DistroRepository
	packages    shared.PackageRepository
	versions    shared.VersionRepository
	scanResults shared.ScanResultRepository
}

func newMatcherFixture(t *testing.T) matcherFixture {
	t.Helper()
	db := integrationtestutil.InitSQLiteDatabase(t)
	f := matcherFixture{
		t:           t,
		distros:     repositories.NewDistroRepository(db),
		packages:    repositories.NewPackageRepository(db),
		versions:    repositories.NewVersionRepository(db),
		scanResults: repositories.NewScanResultRepository(db),
	}
	f.matcher = NewDistroMatcher(f.distros, f.versions, f.scanResults)
	return f
}

func (f matcherFixture) distro(slug, prettyName, id, versionID, variantID string) models.Distro {
	d := models.Distro{Slug: slug}
	d.Assign(normalize.OSRelease{PrettyName: prettyName, ID: id, VersionID: versionID, VariantID: variantID}, "", false)
	require.NoError(f.t, f.distros.Save(nil, &d))
	return d
}

// scannedVersion stores a version whose latest scan reported the given distro block.
func (f matcherFixture) scannedVersion(packageName, number string, distro map[string]any) models.Version {
	pkg, err := f.packages.FindOrCreateByName(nil, packageName)
	require.NoError(f.t, err)
	v, err := f.versions.FindOrCreateByNumber(nil, pkg.ID, number)
	require.NoError(f.t, err)

	s := models.ScanResult{VersionID: v.ID, Data: databasetypes.JSONB{"distro": distro}}
	require.NoError(f.t, f.scanResults.Upsert(nil, &s))
	require.NoError(f.t, f.versions.ApplyScanSummary(nil, v.ID, s.DistroName, utils.Ptr("1.4.1"), 0, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	v, err = f.versions.Read(v.ID)
	require.NoError(f.t, err)
	return v
}

func TestDistroMatcherMatch(t *testing.T) {
	t.Run("should prefer the exact pretty name", func(t *testing.T) {
		f := newMatcherFixture(t)
		exact := f.distro("debian-12", "Debian GNU/Linux 12 (bookworm)", "debian", "12", "")
		f.distro("debian-other", "Debian Other", "debian", "12", "")

		d, ok, err := f.matcher.Match(nil, "Debian GNU/Linux 12 (bookworm)", &normalize.ScannedDistro{ID: "debian", VersionID: "12"})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, exact.ID, d.ID)
	})

	t.Run("should fall back to id and version id", func(t *testing.T) {
		f := newMatcherFixture(t)
		ubuntu := f.distro("ubuntu-22-04", "Ubuntu 22.04.3 LTS", "ubuntu", "22.04", "")

		d, ok, err := f.matcher.Match(nil, "Ubuntu 22.04.1 LTS", &normalize.ScannedDistro{ID: "ubuntu", VersionID: "22.04"})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, ubuntu.ID, d.ID)
	})

	t.Run("a missing variant should only match entries without variant", func(t *testing.T) {
		f := newMatcherFixture(t)
		f.distro("fedora-40-container", "Fedora Linux 40 (Container Image)", "fedora", "40", "container")

		_, ok, err := f.matcher.Match(nil, "Fedora Linux 40", &normalize.ScannedDistro{ID: "fedora", VersionID: "40"})
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = f.matcher.Match(nil, "Fedora Linux 40", &normalize.ScannedDistro{ID: "fedora", VersionID: "40", VariantID: "container"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("an unknown distro is not an error", func(t *testing.T) {
		f := newMatcherFixture(t)

		_, ok, err := f.matcher.Match(nil, "Plan 9", nil)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = f.matcher.Match(nil, "", &normalize.ScannedDistro{ID: "plan9"})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDistroMatcherMatchVersion(t *testing.T) {
	f := newMatcherFixture(t)
	ubuntu := f.distro("ubuntu-22-04", "Ubuntu 22.04.3 LTS", "ubuntu", "22.04", "")
	v := f.scannedVersion("library/ubuntu", "22.04", map[string]any{"prettyName": "Ubuntu 22.04.1 LTS", "id": "ubuntu", "versionID": "22.04"})

	d, ok, err := f.matcher.MatchVersion(nil, v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ubuntu.ID, d.ID)

	unscanned, err := f.versions.FindOrCreateByNumber(nil, v.PackageID, "24.04")
	require.NoError(t, err)
	_, ok, err = f.matcher.MatchVersion(nil, unscanned)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDistroMatcherMissingFromCatalog(t *testing.T) {
	f := newMatcherFixture(t)
	f.distro("ubuntu-22-04", "Ubuntu 22.04.3 LTS", "ubuntu", "22.04", "")

	f.scannedVersion("library/ubuntu", "jammy", map[string]any{"prettyName": "Ubuntu 22.04.1 LTS", "id": "ubuntu", "versionID": "22.04"})
	f.scannedVersion("library/alpine", "3.19", map[string]any{"prettyName": "Alpine Linux v3.19", "id": "alpine", "versionID": "3.19.1"})
	f.scannedVersion("library/alpine", "3.19.1", map[string]any{"prettyName": "Alpine Linux v3.19", "id": "alpine", "versionID": "3.19.1"})
	f.scannedVersion("acme/os", "1", map[string]any{"prettyName": "Acme OS"})

	missing, err := f.matcher.MissingFromCatalog()
	require.NoError(t, err)
	assert.Equal(t, []dtos.MissingDistro{
		{DistroName: "Alpine Linux v3.19", Count: 2, GuessedImage: "alpine:3.19"},
		{DistroName: "Acme OS", Count: 1},
	}, missing)
}
