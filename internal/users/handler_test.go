package users_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"realestate-backend/internal/database"
	"realestate-backend/internal/models"
	"realestate-backend/internal/testutil"
	"realestate-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserAdminOnly(t *testing.T) {
	app := testutil.NewApp(t)
	admin := testutil.CreateUser(t, "yonetici", models.RoleAdmin)
	member := testutil.CreateUser(t, "uye", models.RoleMember)

	body := fiber.Map{
		"username":   "Yeni.Uye",
		"email":      "yeni@example.com",
		"first_name": "Yeni",
		"last_name":  "Üye",
		"password":   testutil.TestPassword,
	}

	// Üye kullanıcı açamaz
	resp := testutil.DoJSON(t, app, http.MethodPost, "/api/users", testutil.Token(t, member), body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin açabilir
	resp = testutil.DoJSON(t, app, http.MethodPost, "/api/users", testutil.Token(t, admin), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created users.UserResponse
	testutil.ParseJSON(t, resp, &created)
	assert.Equal(t, "yeni.uye", created.Username)
	assert.Equal(t, models.RoleMember, created.Role)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	app := testutil.NewApp(t)
	admin := testutil.CreateUser(t, "yonetici", models.RoleAdmin)
	testutil.CreateUser(t, "uye", models.RoleMember)

	resp := testutil.DoJSON(t, app, http.MethodPost, "/api/users", testutil.Token(t, admin), fiber.Map{
		"username": "uye",
		"email":    "baska@example.com",
		"password": testutil.TestPassword,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateUserPermissions(t *testing.T) {
	app := testutil.NewApp(t)
	admin := testutil.CreateUser(t, "yonetici", models.RoleAdmin)
	alice := testutil.CreateUser(t, "alice", models.RoleMember)
	bob := testutil.CreateUser(t, "bob", models.RoleMember)

	url := fmt.Sprintf("/api/users/%d", alice.ID)

	// Kendi hesabını güncelleyebilir
	resp := testutil.DoJSON(t, app, http.MethodPut, url, testutil.Token(t, alice), fiber.Map{
		"first_name": "Alis",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated users.UserResponse
	testutil.ParseJSON(t, resp, &updated)
	assert.Equal(t, "Alis", updated.FirstName)

	// Başkasının hesabını güncelleyemez
	resp = testutil.DoJSON(t, app, http.MethodPut, url, testutil.Token(t, bob), fiber.Map{
		"first_name": "Saldırgan",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin herkesi güncelleyebilir
	resp = testutil.DoJSON(t, app, http.MethodPut, url, testutil.Token(t, admin), fiber.Map{
		"last_name": "Düzeltildi",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateUserPasswordChangesLogin(t *testing.T) {
	app := testutil.NewApp(t)
	user := testutil.CreateUser(t, "alice", models.RoleMember)

	resp := testutil.DoJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/users/%d", user.ID), testutil.Token(t, user),
		fiber.Map{"password": "YeniSifre456!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Eski şifre artık geçersiz
	resp = testutil.DoJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": testutil.TestPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = testutil.DoJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "YeniSifre456!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteUserCascades(t *testing.T) {
	app := testutil.NewApp(t)
	admin := testutil.CreateUser(t, "yonetici", models.RoleAdmin)
	victim := testutil.CreateUser(t, "silinecek", models.RoleMember)
	buyer := testutil.CreateUser(t, "alici", models.RoleMember)

	property := &models.Property{
		UserID:         victim.ID,
		Title:          "Ev",
		District:       models.DistrictLimassol,
		EstimatedValue: decimal.NewFromInt(400000),
	}
	require.NoError(t, database.DB.Create(property).Error)

	// Silinecek kullanıcının kendi işlemi + mülkü üzerinde başkasının işlemi
	require.NoError(t, database.DB.Create(&models.Transaction{
		UserID: victim.ID, PropertyID: property.ID,
		Percentage: decimal.NewFromInt(30), Price: decimal.NewFromInt(300000),
		TransactionDate: time.Now().Add(-48 * time.Hour),
	}).Error)
	require.NoError(t, database.DB.Create(&models.Transaction{
		UserID: buyer.ID, PropertyID: property.ID,
		Percentage: decimal.NewFromInt(20), Price: decimal.NewFromInt(250000),
		TransactionDate: time.Now().Add(-24 * time.Hour),
	}).Error)

	// Üye silemez
	resp := testutil.DoJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/users/%d", victim.ID), testutil.Token(t, buyer), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = testutil.DoJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/users/%d", victim.ID), testutil.Token(t, admin), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var userCount, propCount, txCount int64
	database.DB.Model(&models.User{}).Where("id = ?", victim.ID).Count(&userCount)
	database.DB.Model(&models.Property{}).Where("user_id = ?", victim.ID).Count(&propCount)
	database.DB.Model(&models.Transaction{}).Where("property_id = ?", property.ID).Count(&txCount)
	assert.EqualValues(t, 0, userCount)
	assert.EqualValues(t, 0, propCount)
	assert.EqualValues(t, 0, txCount, "mülk üzerindeki tüm işlemler silinmeli")

	// Alıcının hesabı durur
	var buyerCount int64
	database.DB.Model(&models.User{}).Where("id = ?", buyer.ID).Count(&buyerCount)
	assert.EqualValues(t, 1, buyerCount)
}

func TestGetAndListUsers(t *testing.T) {
	app := testutil.NewApp(t)
	admin := testutil.CreateUser(t, "yonetici", models.RoleAdmin)
	member := testutil.CreateUser(t, "uye", models.RoleMember)
	token := testutil.Token(t, member)

	var list []users.UserResponse
	resp := testutil.DoJSON(t, app, http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.ParseJSON(t, resp, &list)
	assert.Len(t, list, 2)

	resp = testutil.DoJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d", admin.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = testutil.DoJSON(t, app, http.MethodGet, "/api/users/99999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
