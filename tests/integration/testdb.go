// Package integration runs the sell-out repositories and HTTP API against a
// real PostgreSQL database started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/infrastructure/migration"
	"github.com/sellout/backend/internal/infrastructure/persistence/models"
	"github.com/sellout/backend/migrations"
)

var (
	// one container per package run
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a migrated database connection
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

// NewTestDB connects to the shared PostgreSQL container, starting and
// migrating it on first use. Tables are truncated before returning.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx := context.Background()
	if sharedContainer == nil {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("sellout_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "Failed to start PostgreSQL container")

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "Failed to get connection string")

		_, sqlDB := connectToDatabase(t, dsn)
		runMigrations(t, sqlDB)
		_ = sqlDB.Close()

		sharedContainer = container
		sharedContainerDSN = dsn
	}

	db, sqlDB := connectToDatabase(t, sharedContainerDSN)
	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: sharedContainerDSN, t: t}
	tdb.CleanTables()

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return tdb
}

// CleanTables empties every sell-out table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	err := tdb.DB.Exec("TRUNCATE TABLE sales_logs, distributor_feed, products, dealers, employees RESTART IDENTITY").Error
	require.NoError(tdb.t, err, "Failed to truncate tables")
}

// SeedReferences inserts the reference tables
func (tdb *TestDB) SeedReferences(refs sellout.ReferenceSnapshot) {
	tdb.t.Helper()

	for _, p := range refs.Products {
		row := models.CatalogProductModel{ID: p.ID, Brand: p.Brand, Model: p.Model, Category: string(p.Category), Price: p.Price}
		require.NoError(tdb.t, tdb.DB.Create(&row).Error)
	}
	for _, d := range refs.Dealers {
		row := models.DealerModel{Code: d.Code, ShopName: d.ShopName, Type: d.Type}
		require.NoError(tdb.t, tdb.DB.Create(&row).Error)
	}
	for _, e := range refs.Employees {
		row := models.EmployeeModel{Code: e.Code, Name: e.Name, Role: e.Role.String(), ManagerCode: e.ManagerCode, Area: e.Area}
		require.NoError(tdb.t, tdb.DB.Create(&row).Error)
	}
}

// SeedSalesLog inserts sales log rows with fresh IDs
func (tdb *TestDB) SeedSalesLog(records []sellout.InternalRecord) {
	tdb.t.Helper()

	for _, r := range records {
		row := models.SalesLogModel{
			ID:         uuid.New(),
			ProductID:  r.ProductID,
			DealerCode: r.DealerCode,
			Quantity:   r.Quantity,
			TotalPrice: r.TotalPrice,
			UploadedBy: r.UploadedBy,
			CreatedAt:  r.CreatedAt,
		}
		require.NoError(tdb.t, tdb.DB.Create(&row).Error)
	}
}

// SeedFeed inserts distributor feed rows in order
func (tdb *TestDB) SeedFeed(records []sellout.ExternalRecord) {
	tdb.t.Helper()

	for _, r := range records {
		row := models.DistributorFeedModel{
			MarketName: r.MarketName,
			ModelCode:  r.ModelCode,
			BuyerCode:  r.BuyerCode,
			MTDValue:   r.MTDValue,
			MTDVolume:  r.MTDVolume,
			SalesType:  r.SalesType,
			Date:       r.Date,
			SegmentNew: r.SegmentNew,
			Segment:    r.Segment,
			TSE:        r.TSE,
			ZSM:        r.ZSM,
			Area:       r.Area,
			ABM:        r.ABM,
			ASE:        r.ASE,
			ASM:        r.ASM,
			RSO:        r.RSO,
			Type:       r.Type,
		}
		require.NoError(tdb.t, tdb.DB.Create(&row).Error)
	}
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	m, err := migration.NewEmbedded(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// CleanupSharedContainer terminates the shared container. TestMain calls it.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}
