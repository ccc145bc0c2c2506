package integrationtestutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/l3montree-dev/imagecatalog/database"
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/shared"
	"gorm.io/gorm"
)

// InitSQLiteDatabase opens a fresh in-memory database with all models migrated.
// The database uses a single connection, queries issued inside a transaction must use the transaction handle.
func InitSQLiteDatabase(t testing.TB) shared.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: database.NewGormLogger(),
	})
	if err != nil {
		t.Fatalf("could not open sqlite database: %s", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("could not get sql db: %s", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("could not migrate: %s", err)
	}
	// mirrors the expression index of the postgres migration
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_versions_package_id_lower_number ON versions (package_id, LOWER(number))").Error; err != nil {
		t.Fatalf("could not create version index: %s", err)
	}

	return db
}
