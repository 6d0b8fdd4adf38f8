package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yellow444/shelfmetrics/internal/api"
	"github.com/yellow444/shelfmetrics/internal/auth"
	"github.com/yellow444/shelfmetrics/internal/dataset"
	"github.com/yellow444/shelfmetrics/internal/domain"
	"github.com/yellow444/shelfmetrics/internal/engine"
	"github.com/yellow444/shelfmetrics/internal/refresh"
	"github.com/yellow444/shelfmetrics/internal/service"
	"github.com/yellow444/shelfmetrics/internal/source"
)

const (
	adminEmail  = "admin@example.com"
	viewerEmail = "viewer@example.com"
)

type testEnv struct {
	router    *gin.Engine
	issuer    *auth.TokenIssuer
	refresher *refresh.Refresher
}

func newTestEnv(t *testing.T, loadData bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	stockDump := `[
		{"НоменклатураКод": "A1", "Номенклатура": "Молоко 1л", "Родитель": "Молочные продукты",
		 "Период": "15.01.2024 08:00:00", "НачальныйОстаток": 0, "КонечныйОстаток": 10},
		{"НоменклатураКод": "A1", "Номенклатура": "Молоко 1л", "Родитель": "Молочные продукты",
		 "Период": "15.01.2024 12:00:00", "НачальныйОстаток": 12, "КонечныйОстаток": 10,
		 "СтатьяРасходов": "Порча на складах (94)"},
		{"НоменклатураКод": "B2", "Номенклатура": "Хлеб", "Родитель": "Выпечка",
		 "Период": "15.01.2024 00:00:00", "НачальныйОстаток": 5, "КонечныйОстаток": 5}
	]`
	salesDump := `[
		{"Код": "A1", "Номенклатура": "Молоко 1л", "Сумма": 100, "Количество": 10},
		{"Код": "B2", "Номенклатура": "Хлеб", "Сумма": 300, "Количество": 30}
	]`
	stockPath := filepath.Join(dir, "stock.json")
	salesPath := filepath.Join(dir, "sales.json")
	require.NoError(t, os.WriteFile(stockPath, []byte(stockDump), 0o600))
	require.NoError(t, os.WriteFile(salesPath, []byte(salesDump), 0o600))

	credPath := filepath.Join(dir, "credentials.log")
	creds := fmt.Sprintf("%s %d\n%s 42\n", adminEmail, auth.AdminID, viewerEmail)
	require.NoError(t, os.WriteFile(credPath, []byte(creds), 0o600))

	src := source.NewFileSource(stockPath, salesPath)
	store := dataset.NewStore()
	refresher := refresh.New(src, store, nil)
	if loadData {
		require.NoError(t, refresher.Refresh(context.Background()))
	}

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	identity := auth.NewIdentityLog(credPath)
	svc := service.NewAnalyticsService(engine.New(store), nil)

	router := api.NewRouter(api.Deps{
		Analytics: svc,
		Issuer:    issuer,
		Identity:  identity,
		Refresher: refresher,
	}, nil)

	return &testEnv{router: router, issuer: issuer, refresher: refresher}
}

func (e *testEnv) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetToken(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.post(t, "/api/v1/auth/token", gin.H{"email": adminEmail, "password": "pw"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	subject, err := env.issuer.Verify(resp["token"])
	require.NoError(t, err)
	assert.Equal(t, adminEmail, subject)
}

func TestGetTokenRejectsNonAdmin(t *testing.T) {
	env := newTestEnv(t, false)

	for _, email := range []string{viewerEmail, "stranger@example.com", ""} {
		rec := env.post(t, "/api/v1/auth/token", gin.H{"email": email, "password": "pw"})
		assert.Equal(t, http.StatusForbidden, rec.Code, "email %q", email)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
	}
}

func TestGetUserID(t *testing.T) {
	env := newTestEnv(t, false)

	token, err := env.issuer.Issue(viewerEmail)
	require.NoError(t, err)

	rec := env.post(t, "/api/v1/userid", gin.H{"token": token})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 42, resp["ID"])
}

func TestGetUserIDBadToken(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.post(t, "/api/v1/userid", gin.H{"token": "junk"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}

func TestItemAnalytics(t *testing.T) {
	env := newTestEnv(t, true)
	token, err := env.issuer.Issue(adminEmail)
	require.NoError(t, err)

	rec := env.post(t, "/api/v1/item-analytics", gin.H{
		"token":      token,
		"StartDate":  "15.01.2024",
		"FinishDate": "15.01.2024",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []domain.ItemRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)

	// B2 outsells A1 and ranks first.
	assert.Equal(t, "B2", rows[0].Code)
	assert.Equal(t, "A", rows[0].ABC)
	assert.Equal(t, 300.0, rows[0].Sales)

	a1 := rows[1]
	assert.Equal(t, "A1", a1.Code)
	assert.Equal(t, "Молоко 1л", a1.Name)
	assert.Equal(t, "Молочные продукты", a1.Group)
	assert.Equal(t, 100.0, a1.Sales)
	// 2 spoiled units at average price 10.
	assert.Equal(t, 20.0, a1.Loss)
	assert.Equal(t, 20.0, a1.LossOfProfit)
	assert.GreaterOrEqual(t, a1.OSA, 0.0)
	assert.LessOrEqual(t, a1.OSA, 100.0)
}

func TestItemAnalyticsInvalidDates(t *testing.T) {
	env := newTestEnv(t, true)
	token, err := env.issuer.Issue(adminEmail)
	require.NoError(t, err)

	rec := env.post(t, "/api/v1/item-analytics", gin.H{
		"token":      token,
		"StartDate":  "2024-01-15",
		"FinishDate": "15.01.2024",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid dates")
}

func TestItemAnalyticsDatasetNotReady(t *testing.T) {
	env := newTestEnv(t, false)
	token, err := env.issuer.Issue(adminEmail)
	require.NoError(t, err)

	rec := env.post(t, "/api/v1/item-analytics", gin.H{
		"token":      token,
		"StartDate":  "15.01.2024",
		"FinishDate": "15.01.2024",
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "data not loaded")
}

func TestItemAnalyticsRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, true)

	viewerToken, err := env.issuer.Issue(viewerEmail)
	require.NoError(t, err)

	for _, token := range []string{"garbage", viewerToken} {
		rec := env.post(t, "/api/v1/item-analytics", gin.H{
			"token":      token,
			"StartDate":  "15.01.2024",
			"FinishDate": "15.01.2024",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "InvalidId")
	}
}

func TestForcedRefreshLoadsDataset(t *testing.T) {
	env := newTestEnv(t, false)
	token, err := env.issuer.Issue(adminEmail)
	require.NoError(t, err)

	rec := env.post(t, "/api/v1/item-analytics/refresh", gin.H{"token": token})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.post(t, "/api/v1/item-analytics", gin.H{
		"token":      token,
		"StartDate":  "15.01.2024",
		"FinishDate": "15.01.2024",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
