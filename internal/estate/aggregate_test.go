package estate

import (
	"fmt"
	"testing"
	"time"

	"realestate-backend/internal/database"
	"realestate-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func aggregateTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:aggregate_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedTransaction(t *testing.T, db *gorm.DB, userID, propertyID uint, pct int64, offset time.Duration) models.Transaction {
	t.Helper()
	tx := models.Transaction{
		UserID:          userID,
		PropertyID:      propertyID,
		Percentage:      decimal.NewFromInt(pct),
		Price:           decimal.NewFromInt(250000),
		TransactionDate: time.Now().Add(-24*time.Hour + offset),
	}
	require.NoError(t, db.Create(&tx).Error)
	return tx
}

func TestOwnershipAggregate(t *testing.T) {
	db := aggregateTestDB(t)

	alice := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleMember}
	bob := models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	property := models.Property{UserID: alice.ID, Title: "Sahil Evi", District: models.DistrictLimassol, EstimatedValue: decimal.NewFromInt(500000)}
	other := models.Property{UserID: alice.ID, Title: "Dağ Evi", District: models.DistrictNicosia, EstimatedValue: decimal.NewFromInt(300000)}
	require.NoError(t, db.Create(&property).Error)
	require.NoError(t, db.Create(&other).Error)

	seedTransaction(t, db, alice.ID, property.ID, 30, 0)
	seedTransaction(t, db, alice.ID, property.ID, 20, time.Minute)
	seedTransaction(t, db, bob.ID, property.ID, 25, 2*time.Minute)
	// Başka mülkteki işlem toplama girmemeli
	seedTransaction(t, db, alice.ID, other.ID, 70, 3*time.Minute)

	totals, err := ownershipAggregate(db, property.ID, alice.ID, 0)
	require.NoError(t, err)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(75)), "total=%s", totals.Total)
	assert.True(t, totals.UserTotal.Equal(decimal.NewFromInt(50)), "user_total=%s", totals.UserTotal)
}

func TestOwnershipAggregateExcludesOneTransaction(t *testing.T) {
	db := aggregateTestDB(t)

	user := models.User{Username: "carol", Email: "carol@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, db.Create(&user).Error)
	property := models.Property{UserID: user.ID, Title: "Ev", District: models.DistrictPaphos, EstimatedValue: decimal.NewFromInt(500000)}
	require.NoError(t, db.Create(&property).Error)

	kept := seedTransaction(t, db, user.ID, property.ID, 40, 0)
	excluded := seedTransaction(t, db, user.ID, property.ID, 50, time.Minute)

	totals, err := ownershipAggregate(db, property.ID, user.ID, excluded.ID)
	require.NoError(t, err)
	assert.True(t, totals.Total.Equal(kept.Percentage), "total=%s", totals.Total)
	assert.True(t, totals.UserTotal.Equal(kept.Percentage), "user_total=%s", totals.UserTotal)
}

func TestOwnershipAggregateEmptyProperty(t *testing.T) {
	db := aggregateTestDB(t)

	user := models.User{Username: "dave", Email: "dave@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, db.Create(&user).Error)
	property := models.Property{UserID: user.ID, Title: "Boş", District: models.DistrictKyrenia, EstimatedValue: decimal.NewFromInt(200000)}
	require.NoError(t, db.Create(&property).Error)

	totals, err := ownershipAggregate(db, property.ID, user.ID, 0)
	require.NoError(t, err)
	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.UserTotal.IsZero())
}

func TestOwnershipAggregateIdempotentReread(t *testing.T) {
	db := aggregateTestDB(t)

	user := models.User{Username: "erin", Email: "erin@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, db.Create(&user).Error)
	property := models.Property{UserID: user.ID, Title: "Ev", District: models.DistrictFamagusta, EstimatedValue: decimal.NewFromInt(400000)}
	require.NoError(t, db.Create(&property).Error)

	seedTransaction(t, db, user.ID, property.ID, 33, 0)
	seedTransaction(t, db, user.ID, property.ID, 12, time.Minute)

	first, err := ownershipAggregate(db, property.ID, user.ID, 0)
	require.NoError(t, err)
	second, err := ownershipAggregate(db, property.ID, user.ID, 0)
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.UserTotal.Equal(second.UserTotal))
}
