package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"formdeck/config"
	"formdeck/models"
	"formdeck/routes"
	"formdeck/services"
	"formdeck/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	// Token verification uses the configured secret, never the
	// environment; the whole suite runs with JWT_SECRET unset to prove it.
	os.Unsetenv("JWT_SECRET")
	os.Exit(m.Run())
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	user   *models.User
	token  string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:ctrl_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	models.MigrateDB(db)

	cfg := &config.Config{
		JWTSecret:           testJWTSecret,
		StripeProPriceID:    "price_pro",
		StripeWebhookSecret: "whsec_test",
	}
	authService := services.NewAuthService(db, cfg)
	submissions := services.NewSubmissionService(db, utils.NewMemoryRateLimiter(), nil, nil)
	billing := &services.BillingService{DB: db, Config: cfg}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	})
	routes.AuthRoutes(r, authService, cfg.JWTSecret)
	routes.FormRoutes(r, cfg.JWTSecret)
	routes.SubmissionRoutes(r, submissions)
	routes.BillingRoutes(r, billing, cfg.JWTSecret)

	user, err := authService.Register("Dona", "dona@example.com", "password123")
	require.NoError(t, err)
	token, err := authService.GenerateToken(user.ID)
	require.NoError(t, err)

	return &testEnv{router: r, db: db, user: user, token: token}
}

func (env *testEnv) request(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+env.token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (env *testEnv) createForm(t *testing.T, published bool) *models.Form {
	t.Helper()
	form := &models.Form{
		UserID:    env.user.ID,
		Name:      "Contato",
		Slug:      utils.GenerateSlug("Contato"),
		Published: published,
	}
	require.NoError(t, env.db.Create(form).Error)
	require.NoError(t, env.db.Create(&models.FormSettings{FormID: form.ID}).Error)
	return form
}

func TestAuthFlow(t *testing.T) {
	env := setupEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "dona@example.com",
		"password": "password123",
	}, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["token"])

	w = env.request(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "dona@example.com",
		"password": "wrong",
	}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodGet, "/api/user/me", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/user/me", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenSignedWithConfiguredSecretIsAccepted(t *testing.T) {
	require.Empty(t, os.Getenv("JWT_SECRET"), "suite runs without the env var")
	env := setupEnv(t)

	w := env.request(t, http.MethodGet, "/api/user/me", nil, true)
	assert.Equal(t, http.StatusOK, w.Code, "token signed with the configured secret should be accepted")
}

func TestCreateFormAndFieldCeiling(t *testing.T) {
	env := setupEnv(t)

	w := env.request(t, http.MethodPost, "/api/forms", gin.H{"name": "Pesquisa"}, true)
	require.Equal(t, http.StatusCreated, w.Code)

	form := env.createForm(t, false)
	for i := 0; i < services.MaxFieldsPerForm; i++ {
		field := &models.Field{FormID: form.ID, Type: models.FieldTypeText, Label: fmt.Sprintf("Campo %d", i), Order: i}
		require.NoError(t, env.db.Create(field).Error)
	}

	w = env.request(t, http.MethodPost, "/api/forms/"+form.ID.String()+"/fields", gin.H{
		"type":  "text",
		"label": "Um a mais",
	}, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReorderFieldsIsAtomic(t *testing.T) {
	env := setupEnv(t)
	form := env.createForm(t, false)

	first := &models.Field{FormID: form.ID, Type: models.FieldTypeText, Label: "A", Order: 0}
	second := &models.Field{FormID: form.ID, Type: models.FieldTypeText, Label: "B", Order: 1}
	require.NoError(t, env.db.Create(first).Error)
	require.NoError(t, env.db.Create(second).Error)

	other := env.createForm(t, false)
	foreign := &models.Field{FormID: other.ID, Type: models.FieldTypeText, Label: "X", Order: 0}
	require.NoError(t, env.db.Create(foreign).Error)

	// A batch containing a field of another form fails without applying
	// any of the updates.
	w := env.request(t, http.MethodPut, "/api/forms/"+form.ID.String()+"/fields", gin.H{
		"fields": []gin.H{
			{"id": first.ID, "order": 1},
			{"id": foreign.ID, "order": 0},
		},
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var unchanged models.Field
	require.NoError(t, env.db.First(&unchanged, "id = ?", first.ID).Error)
	assert.Equal(t, 0, unchanged.Order, "failed reorder must not leave partial updates")

	w = env.request(t, http.MethodPut, "/api/forms/"+form.ID.String()+"/fields", gin.H{
		"fields": []gin.H{
			{"id": first.ID, "order": 1},
			{"id": second.ID, "order": 0},
		},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)

	var swapped models.Field
	require.NoError(t, env.db.First(&swapped, "id = ?", first.ID).Error)
	assert.Equal(t, 1, swapped.Order)
}

func TestPublicFormHidesSecrets(t *testing.T) {
	env := setupEnv(t)
	form := env.createForm(t, true)
	require.NoError(t, env.db.Model(&models.FormSettings{}).
		Where("form_id = ?", form.ID).
		Updates(map[string]interface{}{
			"captcha_enabled":    true,
			"captcha_provider":   "turnstile",
			"captcha_site_key":   "site-key",
			"captcha_secret_key": "server-only-secret",
		}).Error)

	w := env.request(t, http.MethodGet, "/api/public/forms/"+form.Slug, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "site-key")
	assert.NotContains(t, w.Body.String(), "server-only-secret")
}

func TestPublicFormNotFoundIsUniform(t *testing.T) {
	env := setupEnv(t)
	unpublished := env.createForm(t, false)

	wUnpublished := env.request(t, http.MethodGet, "/api/public/forms/"+unpublished.Slug, nil, false)
	wUnknown := env.request(t, http.MethodGet, "/api/public/forms/nope", nil, false)

	assert.Equal(t, http.StatusNotFound, wUnpublished.Code)
	assert.Equal(t, http.StatusNotFound, wUnknown.Code)
	assert.Equal(t, wUnknown.Body.String(), wUnpublished.Body.String())
}

func TestSubmitEndpoint(t *testing.T) {
	env := setupEnv(t)
	form := env.createForm(t, true)
	field := &models.Field{FormID: form.ID, Type: models.FieldTypeText, Label: "Nome", Required: true, Order: 0}
	require.NoError(t, env.db.Create(field).Error)

	payload := gin.H{"values": gin.H{field.ID.String(): "Maria"}}

	w := env.request(t, http.MethodPost, "/api/public/forms/"+form.Slug+"/submit", payload, false)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["id"])

	w = env.request(t, http.MethodPost, "/api/public/forms/nope/submit", payload, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitEndpointRateLimit(t *testing.T) {
	env := setupEnv(t)
	form := env.createForm(t, true)

	payload := gin.H{"values": gin.H{}}
	for i := 0; i < services.SubmitRateLimit; i++ {
		w := env.request(t, http.MethodPost, "/api/public/forms/"+form.Slug+"/submit", payload, false)
		require.Equal(t, http.StatusCreated, w.Code, "submission %d", i+1)
	}

	w := env.request(t, http.MethodPost, "/api/public/forms/"+form.Slug+"/submit", payload, false)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestUpdateSettingsPlanGating(t *testing.T) {
	env := setupEnv(t)
	form := env.createForm(t, false)

	w := env.request(t, http.MethodPut, "/api/forms/"+form.ID.String()+"/settings", gin.H{
		"hide_branding": true,
	}, true)
	assert.Equal(t, http.StatusForbidden, w.Code, "branding removal is a pro feature")

	w = env.request(t, http.MethodPut, "/api/forms/"+form.ID.String()+"/settings", gin.H{
		"notify_email": "dona@example.com",
	}, true)
	assert.Equal(t, http.StatusOK, w.Code, "notification settings are free")

	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", env.user.ID).Update("plan", models.PlanPro).Error)

	w = env.request(t, http.MethodPut, "/api/forms/"+form.ID.String()+"/settings", gin.H{
		"hide_branding": true,
		"theme_color":   "#10b981",
	}, true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := setupEnv(t)
	payload := []byte(`{"type":"checkout.session.completed"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/billing/webhook", bytes.NewReader(payload))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing signature header is rejected")

	// A rejected payload never mutates billing state.
	var subscriptions, payments int64
	require.NoError(t, env.db.Model(&models.Subscription{}).Count(&subscriptions).Error)
	require.NoError(t, env.db.Model(&models.PaymentHistory{}).Count(&payments).Error)
	assert.Zero(t, subscriptions)
	assert.Zero(t, payments)
}

func TestGetFormsIncludesResponseCounts(t *testing.T) {
	env := setupEnv(t)
	form := env.createForm(t, true)
	require.NoError(t, env.db.Create(&models.Response{FormID: form.ID}).Error)
	require.NoError(t, env.db.Create(&models.Response{FormID: form.ID}).Error)

	w := env.request(t, http.MethodGet, "/api/forms", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	forms, ok := body["forms"].([]interface{})
	require.True(t, ok)
	require.Len(t, forms, 1)
	summary, ok := forms[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), summary["response_count"])
}

func TestResponsesVisibleOnlyToOwner(t *testing.T) {
	env := setupEnv(t)
	form := env.createForm(t, true)

	other := &models.User{Name: "Outra", Email: "outra@example.com"}
	require.NoError(t, env.db.Create(other).Error)
	foreignForm := &models.Form{UserID: other.ID, Name: "Alheio", Slug: "alheio-abc123", Published: true}
	require.NoError(t, env.db.Create(foreignForm).Error)

	w := env.request(t, http.MethodGet, "/api/forms/"+form.ID.String()+"/responses", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/forms/"+foreignForm.ID.String()+"/responses", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code, "foreign forms look missing")
}
