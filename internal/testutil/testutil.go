// Package testutil - testlerin sqlite üzerinde tam uygulamayı ayağa
// kaldırması için yardımcılar.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"realestate-backend/internal/app"
	"realestate-backend/internal/auth"
	"realestate-backend/internal/config"
	"realestate-backend/internal/database"
	"realestate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbCounter uint64

// TestPassword - test kullanıcılarının ortak şifresi
const TestPassword = "StrongPass123!"

// Cfg - test konfigürasyonu (config.Load env ister, testte elle kurulur)
func Cfg() *config.Config {
	return &config.Config{
		HTTPPort:    "0",
		JWTSecret:   strings.Repeat("test-secret-", 4),
		CORSOrigins: "http://localhost:5173",
	}
}

// SetupDB - test başına izole, paylaşımlı cache'li in-memory sqlite açar,
// şemayı kurar ve global database.DB'yi bu veritabanına bağlar.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddUint64(&dbCounter, 1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Tek bağlantı: in-memory veritabanı bağlantıyla birlikte yaşar ve
	// sqlite'ta eşzamanlı yazar çakışması olmaz
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.DB = db

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// NewApp - taze veritabanı + route'ları bağlı fiber uygulaması
func NewApp(t *testing.T) *fiber.App {
	t.Helper()
	SetupDB(t)
	return app.New(Cfg())
}

// CreateUser - doğrudan veritabanına kullanıcı yazar
func CreateUser(t *testing.T, username string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

// Token - verilen kullanıcı için geçerli bir JWT üretir
func Token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(Cfg().JWTSecret, user)
	require.NoError(t, err)
	return token
}

// DoJSON - JSON gövdeli istek atar
func DoJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ParseJSON - cevabı verilen hedefe çözer
func ParseJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
