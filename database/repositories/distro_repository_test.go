package repositories

import (
	"testing"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/integrationtestutil"
	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/l3montree-dev/imagecatalog/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveDistro(t *testing.T, repo *distroRepository, slug, content string) models.Distro {
	t.Helper()
	d := models.Distro{Slug: slug}
	d.Assign(normalize.ParseOSRelease(content), content, false)
	require.NoError(t, repo.Save(nil, &d))
	return d
}

func TestDistroRepository(t *testing.T) {
	t.Run("FindByIdentity should require a null variant when none is given", func(t *testing.T) {
		db := integrationtestutil.InitSQLiteDatabase(t)
		repo := NewDistroRepository(db)

		plain := saveDistro(t, repo, "fedora-39", "PRETTY_NAME=\"Fedora Linux 39\"\nID=fedora\nVERSION_ID=39\n")
		server := saveDistro(t, repo, "fedora-39-server", "PRETTY_NAME=\"Fedora Linux 39 (Server Edition)\"\nID=fedora\nVERSION_ID=39\nVARIANT_ID=server\n")

		found, err := repo.FindByIdentity(nil, "fedora", "39", nil)
		require.NoError(t, err)
		assert.Equal(t, plain.ID, found.ID)

		found, err = repo.FindByIdentity(nil, "fedora", "39", utils.Ptr("server"))
		require.NoError(t, err)
		assert.Equal(t, server.ID, found.ID)

		_, err = repo.FindByIdentity(nil, "fedora", "40", nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("DeleteBySlugs should only delete the given slugs", func(t *testing.T) {
		db := integrationtestutil.InitSQLiteDatabase(t)
		repo := NewDistroRepository(db)
		saveDistro(t, repo, "alpine-3-19", "PRETTY_NAME=\"Alpine Linux v3.19\"\nID=alpine\n")
		saveDistro(t, repo, "alpine-3-18", "PRETTY_NAME=\"Alpine Linux v3.18\"\nID=alpine\n")
		saveDistro(t, repo, "debian-12", "PRETTY_NAME=\"Debian GNU/Linux 12 (bookworm)\"\nID=debian\n")

		deleted, err := repo.DeleteBySlugs(nil, []string{"alpine-3-18", "debian-12", "unknown"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, deleted)

		slugs, err := repo.ListSlugs(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpine-3-19"}, slugs)
	})

	t.Run("RefreshCounters should sum downloads of distinct packages", func(t *testing.T) {
		db := integrationtestutil.InitSQLiteDatabase(t)
		repo := NewDistroRepository(db)
		versions := NewVersionRepository(db)
		d := saveDistro(t, repo, "alpine-3-19", "PRETTY_NAME=\"Alpine Linux v3.19\"\nID=alpine\n")

		redis := createPackage(t, db, "library/redis", 100)
		nginx := createPackage(t, db, "library/nginx", 50)
		for _, v := range []struct {
			pkg    models.Package
			number string
			distro string
		}{
			{redis, "7.2", "Alpine Linux v3.19"},
			{redis, "7.0", "Alpine Linux v3.19"},
			{nginx, "1.25", "Alpine Linux v3.19"},
			{nginx, "1.24", "Alpine Linux v3.18"},
		} {
			version, err := versions.FindOrCreateByNumber(nil, v.pkg.ID, v.number)
			require.NoError(t, err)
			version.DistroName = utils.Ptr(v.distro)
			require.NoError(t, versions.Save(nil, &version))
		}

		require.NoError(t, repo.RefreshCounters(nil, &d))
		assert.Equal(t, 3, d.VersionsCount)
		assert.EqualValues(t, 150, d.TotalDownloads)

		stored, err := repo.FindBySlug(nil, "alpine-3-19")
		require.NoError(t, err)
		assert.Equal(t, 3, stored.VersionsCount)
		assert.EqualValues(t, 150, stored.TotalDownloads)
	})

	t.Run("ListByIDFields should exclude the given distro", func(t *testing.T) {
		db := integrationtestutil.InitSQLiteDatabase(t)
		repo := NewDistroRepository(db)
		ubuntu := saveDistro(t, repo, "ubuntu-22-04", "PRETTY_NAME=\"Ubuntu 22.04\"\nID=ubuntu\nID_LIKE=debian\n")
		saveDistro(t, repo, "debian-12", "PRETTY_NAME=\"Debian GNU/Linux 12\"\nID=debian\n")
		saveDistro(t, repo, "alpine-3-19", "PRETTY_NAME=\"Alpine Linux v3.19\"\nID=alpine\n")

		related, err := repo.ListByIDFields(append(ubuntu.IDLikeList(), "ubuntu"), ubuntu.ID)
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, "debian-12", related[0].Slug)
	})
}
