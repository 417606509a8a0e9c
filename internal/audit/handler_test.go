package audit_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"realestate-backend/internal/audit"
	"realestate-backend/internal/models"
	"realestate-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAuditLogsAdminOnly(t *testing.T) {
	app := testutil.NewApp(t)
	member := testutil.CreateUser(t, "uye", models.RoleMember)

	resp := testutil.DoJSON(t, app, http.MethodGet, "/api/audit-logs", testutil.Token(t, member), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListAuditLogsRecordsMutations(t *testing.T) {
	app := testutil.NewApp(t)
	admin := testutil.CreateUser(t, "yonetici", models.RoleAdmin)
	token := testutil.Token(t, admin)

	// Mutasyon yap: mülk oluştur, sonra tarihli bir işlem ekle
	resp := testutil.DoJSON(t, app, http.MethodPost, "/api/properties", token, fiber.Map{
		"title":           "Ev",
		"district":        "Nicosia",
		"estimated_value": 300000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var property struct {
		ID uint `json:"id"`
	}
	testutil.ParseJSON(t, resp, &property)

	resp = testutil.DoJSON(t, app, http.MethodPost, "/api/transactions", token, fiber.Map{
		"property":         property.ID,
		"percentage":       10,
		"price":            250000,
		"transaction_date": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var logs []audit.AuditLogResponse
	resp = testutil.DoJSON(t, app, http.MethodGet, "/api/audit-logs", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.ParseJSON(t, resp, &logs)
	require.Len(t, logs, 2)

	// entity_type filtresi
	resp = testutil.DoJSON(t, app, http.MethodGet, "/api/audit-logs?entity_type=property", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.ParseJSON(t, resp, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "property", logs[0].EntityType)
	assert.Equal(t, property.ID, logs[0].EntityID)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, admin.ID, logs[0].UserID)

	// entity_id filtresi
	resp = testutil.DoJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/audit-logs?entity_type=property&entity_id=%d", property.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.ParseJSON(t, resp, &logs)
	assert.Len(t, logs, 1)
}

func TestListAuditLogsLimit(t *testing.T) {
	app := testutil.NewApp(t)
	admin := testutil.CreateUser(t, "yonetici", models.RoleAdmin)
	token := testutil.Token(t, admin)

	for i := 0; i < 3; i++ {
		resp := testutil.DoJSON(t, app, http.MethodPost, "/api/properties", token, fiber.Map{
			"title":           fmt.Sprintf("Ev %d", i),
			"district":        "Larnaca",
			"estimated_value": 200000,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var logs []audit.AuditLogResponse
	resp := testutil.DoJSON(t, app, http.MethodGet, "/api/audit-logs?limit=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.ParseJSON(t, resp, &logs)
	assert.Len(t, logs, 2)
}

func TestListAuditLogsRejectsMalformedFilters(t *testing.T) {
	app := testutil.NewApp(t)
	admin := testutil.CreateUser(t, "yonetici", models.RoleAdmin)
	token := testutil.Token(t, admin)

	for _, q := range []string{"entity_id=12abc", "user_id=-1", "limit=abc", "limit=0", "limit=1000"} {
		resp := testutil.DoJSON(t, app, http.MethodGet, "/api/audit-logs?"+q, token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query: %s", q)
	}
}
