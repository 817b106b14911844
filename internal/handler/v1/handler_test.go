package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/wardbook/config"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/application"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
	v1 "github.com/dmehra2102/prod-golang-projects/wardbook/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/server"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/testutil"
)

const testPassword = "correct-horse-battery"

type harness struct {
	db       *gorm.DB
	router   *gin.Engine
	services v1.Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, registry := testutil.NewDB(t)
	app, err := application.Load("")
	require.NoError(t, err)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:          "handler-test-secret-handler-test-secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
			Issuer:          "wardbook-test",
		},
		API: config.APIConfig{OptionsCacheTTL: time.Minute},
	}
	services, tokens, err := server.NewServices(server.Deps{
		Config:   cfg,
		DB:       db,
		Registry: registry,
		App:      app,
		Log:      zap.NewNop(),
	})
	require.NoError(t, err)

	h := v1.NewHandler(services)
	r := gin.New()
	r.Use(middleware.RequestID())
	authn := middleware.Authenticate(tokens, zap.NewNop())
	h.RegisterAuth(r.Group("/api/v0/auth", authn))
	h.RegisterAPI(r.Group("/api/v0", authn))
	h.RegisterLegacy(r)

	return &harness{db: db, router: r, services: services}
}

func (h *harness) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) team(t *testing.T, name string) {
	t.Helper()
	repo := repository.NewTeamRepository(h.db)
	require.NoError(t, repo.Create(context.Background(), &team.Team{Name: name, Title: name, Active: true}))
}

// login creates a user and returns an access token for them.
func (h *harness) login(t *testing.T, username string, readonly bool) string {
	t.Helper()
	_, err := h.services.Auth.CreateUser(context.Background(), service.CreateUserCommand{
		Username:  username,
		Password:  testPassword,
		FirstName: "Jo",
		LastName:  "Bloggs",
		Role:      domain.RoleClinician,
		Readonly:  readonly,
	})
	require.NoError(t, err)

	w := h.do(t, http.MethodPost, "/api/v0/auth/login/", map[string]any{
		"username": username,
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair domain.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	return pair.AccessToken
}

func (h *harness) admit(t *testing.T, data map[string]any) map[string]any {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/v0/episode/", data, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return object(t, w)
}

func object(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := object(t, w)["error"].(string)
	return msg
}

func list(t *testing.T, dict map[string]any, key string) []any {
	t.Helper()
	out, ok := dict[key].([]any)
	require.True(t, ok, "%s is %T", key, dict[key])
	return out
}

func idPath(base string, id any) string {
	return fmt.Sprintf("%s%v/", base, id)
}

func TestAPIRoot(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v0/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	root := object(t, w)

	assert.Equal(t, "http://example.com/api/v0/episode/", root["episode"])
	assert.Equal(t, "http://example.com/api/v0/diagnosis/", root["diagnosis"])
	for _, name := range []string{"patient", "flow", "record", "list-schema", "extract-schema", "options", "userprofile", "tagging", "demographics"} {
		assert.Contains(t, root, name)
	}
}

func TestEpisode_Missing(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/api/v0/episode/9999/", "/api/v0/episode/abc/"} {
		w := h.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "Episode does not exist", errorOf(t, w))
	}

	w := h.do(t, http.MethodPut, "/api/v0/episode/9999/", map[string]any{"active": false}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEpisode_CreateAndUpdate(t *testing.T) {
	h := newHarness(t)

	ep := h.admit(t, map[string]any{
		"date_of_admission": "2024-03-01",
		"demographics":      map[string]any{"name": "Ada Lovelace", "hospital_number": "H123"},
	})
	assert.Equal(t, true, ep["active"])
	assert.Equal(t, "2024-03-01", ep["date_of_admission"])
	demographics := list(t, ep, "demographics")
	require.Len(t, demographics, 1)
	assert.Equal(t, "Ada Lovelace", demographics[0].(map[string]any)["name"])
	assert.Len(t, list(t, ep, "location"), 1, "singletons are created empty")
	assert.Empty(t, list(t, ep, "diagnosis"))

	path := idPath("/api/v0/episode/", ep["id"])

	w := h.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ep["consistency_token"], object(t, w)["consistency_token"])

	w = h.do(t, http.MethodPut, path, map[string]any{"active": false}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing field (consistency_token)", errorOf(t, w))

	w = h.do(t, http.MethodPut, path, map[string]any{"consistency_token": "stale000", "active": false}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Item has changed", errorOf(t, w))

	w = h.do(t, http.MethodPut, path, map[string]any{"consistency_token": ep["consistency_token"], "hat": "fedora"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unexpected field name", errorOf(t, w))

	w = h.do(t, http.MethodPut, path, map[string]any{
		"consistency_token": ep["consistency_token"],
		"active":            false,
		"discharge_date":    "2024-03-09",
	}, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	updated := object(t, w)
	assert.Equal(t, false, updated["active"])
	assert.Equal(t, "2024-03-09", updated["discharge_date"])
	assert.NotEqual(t, ep["consistency_token"], updated["consistency_token"])
}

func TestEpisode_CreateRejectsBadInput(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/v0/episode/", "{not json", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/v0/episode/", map[string]any{"diagnosis": map[string]any{}}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unexpected field name", errorOf(t, w))

	w = h.do(t, http.MethodPost, "/api/v0/episode/", map[string]any{"tagging": []any{map[string]any{"nowhere": true}}}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEpisode_ListByTag(t *testing.T) {
	h := newHarness(t)
	h.team(t, "cardiology")

	tagged := h.admit(t, map[string]any{"tagging": []any{map[string]any{"cardiology": true}}})
	h.admit(t, map[string]any{})

	w := h.do(t, http.MethodGet, "/api/v0/episode/?tag=cardiology", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var eps []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eps))
	require.Len(t, eps, 1)
	assert.Equal(t, tagged["id"], eps[0]["id"])

	w = h.do(t, http.MethodGet, "/api/v0/episode/", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eps))
	assert.Len(t, eps, 2)

	w = h.do(t, http.MethodGet, "/api/v0/episode/?active=sometimes", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatient(t *testing.T) {
	h := newHarness(t)
	ep := h.admit(t, map[string]any{})

	w := h.do(t, http.MethodGet, idPath("/api/v0/patient/", ep["patient_id"]), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	p := object(t, w)
	assert.Equal(t, ep["patient_id"], p["id"])
	episodes, ok := p["episodes"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, episodes, fmt.Sprint(ep["id"]))
	assert.Len(t, list(t, p, "demographics"), 1)

	w = h.do(t, http.MethodGet, "/api/v0/patient/9999/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Patient does not exist", errorOf(t, w))
}

func TestSubrecord_Lifecycle(t *testing.T) {
	h := newHarness(t)
	ep := h.admit(t, map[string]any{})

	w := h.do(t, http.MethodPost, "/api/v0/diagnosis/", map[string]any{
		"episode_id": ep["id"],
		"condition":  "Sepsis",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	diagnoses := list(t, object(t, w), "diagnosis")
	require.Len(t, diagnoses, 1)
	item := diagnoses[0].(map[string]any)
	assert.Equal(t, "Sepsis", item["condition"])

	path := idPath("/api/v0/diagnosis/", item["id"])

	w = h.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, item["consistency_token"], object(t, w)["consistency_token"])

	w = h.do(t, http.MethodPut, path, map[string]any{"consistency_token": "00000000", "condition": "MI"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Item has changed", errorOf(t, w))

	w = h.do(t, http.MethodPut, path, map[string]any{"consistency_token": item["consistency_token"], "colour": "blue"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unexpected field name", errorOf(t, w))
	assert.Equal(t, []any{"colour"}, object(t, w)["fields"])

	w = h.do(t, http.MethodPut, path, map[string]any{"consistency_token": item["consistency_token"], "condition": "MI"}, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "MI", object(t, w)["condition"])

	w = h.do(t, http.MethodDelete, path, nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `"deleted"`, w.Body.String())

	w = h.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Item does not exist", errorOf(t, w))

	w = h.do(t, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubrecord_CreateErrors(t *testing.T) {
	h := newHarness(t)
	ep := h.admit(t, map[string]any{})

	w := h.do(t, http.MethodPost, "/api/v0/diagnosis/", map[string]any{"episode_id": 9999}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nonexistent episode", errorOf(t, w))

	w = h.do(t, http.MethodPost, "/api/v0/diagnosis/", map[string]any{"condition": "Sepsis"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nonexistent episode", errorOf(t, w))

	w = h.do(t, http.MethodPost, "/api/v0/diagnosis/", map[string]any{"episode_id": ep["id"], "date_of_diagnosis": "someday"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid field value", errorOf(t, w))

	w = h.do(t, http.MethodPost, "/api/v0/location/", map[string]any{"episode_id": ep["id"], "ward": "7"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Item already exists", errorOf(t, w))
}

func TestSubrecord_PatientTypeAttachesToPatient(t *testing.T) {
	h := newHarness(t)
	first := h.admit(t, map[string]any{})
	second := h.admit(t, map[string]any{"patient_id": first["patient_id"]})

	w := h.do(t, http.MethodPost, "/api/v0/allergies/", map[string]any{
		"episode_id": first["id"],
		"drug":       "Penicillin",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(t, http.MethodGet, idPath("/api/v0/episode/", second["id"]), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	allergies := list(t, object(t, w), "allergies")
	require.Len(t, allergies, 1)
	assert.Equal(t, first["patient_id"], allergies[0].(map[string]any)["patient_id"])
}

func TestTagging(t *testing.T) {
	h := newHarness(t)
	h.team(t, "cardiology")
	h.team(t, "renal")
	ep := h.admit(t, map[string]any{})
	path := idPath("/api/v0/tagging/", ep["id"])

	w := h.do(t, http.MethodPut, path, map[string]any{"id": ep["id"], "cardiology": true, "renal": false}, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"id": ep["id"], "cardiology": true}, object(t, w))

	w = h.do(t, http.MethodPut, path, map[string]any{"renal": true}, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	w = h.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"id": ep["id"], "renal": true}, object(t, w))

	w = h.do(t, http.MethodPut, path, map[string]any{"neverland": true}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/api/v0/tagging/9999/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Episode does not exist", errorOf(t, w))
}

func TestOptions(t *testing.T) {
	h := newHarness(t)
	lookups := repository.NewLookupListRepository(h.db)
	_, err := lookups.Ensure(context.Background(), "condition", "Sepsis", "Septicaemia")
	require.NoError(t, err)

	w := h.do(t, http.MethodGet, "/api/v0/options/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	opts := object(t, w)

	assert.ElementsMatch(t, []any{"Sepsis", "Septicaemia"}, opts["condition"])
	assert.Equal(t, []any{}, opts["ward"])
	assert.Equal(t, map[string]any{}, opts["tag_hierarchy"])
	assert.Equal(t, map[string]any{}, opts["tag_display"])
	assert.Equal(t, []any{}, opts["macros"])
	defaults, ok := opts["micro_test_defaults"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, defaults, "micro_test_mcs")
}

func TestOptions_TagsForAuthenticatedCaller(t *testing.T) {
	h := newHarness(t)
	h.team(t, "cardiology")
	token := h.login(t, "dr.jones", false)

	w := h.do(t, http.MethodGet, "/api/v0/options/", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	display, ok := object(t, w)["tag_display"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cardiology", display["cardiology"])
}

func TestMetadata(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v0/record/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	diagnosis, ok := object(t, w)["diagnosis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "diagnosis", diagnosis["name"])

	w = h.do(t, http.MethodGet, "/api/v0/list-schema/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list(t, object(t, w), "default"), 6)

	w = h.do(t, http.MethodGet, "/api/v0/extract-schema/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var extract []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &extract))
	assert.NotEmpty(t, extract)

	w = h.do(t, http.MethodGet, "/api/v0/flow/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, object(t, w), "default")
}

func TestUserProfile(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v0/userprofile/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Only valid for authenticated users", errorOf(t, w))

	token := h.login(t, "nurse.ratched", false)
	w = h.do(t, http.MethodGet, "/api/v0/userprofile/", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := object(t, w)
	assert.Equal(t, "nurse.ratched", profile["username"])
	assert.Equal(t, "Jo Bloggs", profile["full_name"])
	assert.Equal(t, true, profile["force_password_change"])

	w = h.do(t, http.MethodGet, "/api/v0/userprofile/", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid token", errorOf(t, w))
}

func TestReadonlyProfileCannotWrite(t *testing.T) {
	h := newHarness(t)
	ep := h.admit(t, map[string]any{})
	token := h.login(t, "observer", true)

	w := h.do(t, http.MethodPost, "/api/v0/episode/", map[string]any{}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodPost, "/api/v0/general_note/", map[string]any{"episode_id": ep["id"], "comment": "hi"}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodGet, idPath("/api/v0/episode/", ep["id"]), nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth(t *testing.T) {
	h := newHarness(t)
	h.login(t, "dr.who", false)

	w := h.do(t, http.MethodPost, "/api/v0/auth/login/", map[string]any{"username": "dr.who", "password": "wrong-password!"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", errorOf(t, w))

	w = h.do(t, http.MethodPost, "/api/v0/auth/login/", map[string]any{"username": "dr.who"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/v0/auth/login/", map[string]any{"username": "dr.who", "password": testPassword}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var pair domain.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))

	w = h.do(t, http.MethodPost, "/api/v0/auth/refresh/", map[string]any{"refresh_token": pair.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodPost, "/api/v0/auth/refresh/", map[string]any{"refresh_token": pair.AccessToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodPost, "/api/v0/auth/password/", map[string]any{"current_password": testPassword, "new_password": "another-long-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodPost, "/api/v0/auth/password/", map[string]any{"current_password": testPassword, "new_password": "short"}, pair.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/v0/auth/password/", map[string]any{"current_password": testPassword, "new_password": "another-long-password"}, pair.AccessToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(t, http.MethodGet, "/api/v0/userprofile/", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, object(t, w)["force_password_change"])
}

func TestLegacyAdmitAndRefer(t *testing.T) {
	h := newHarness(t)
	h.team(t, "infectious_diseases")
	ep := h.admit(t, map[string]any{})

	w := h.do(t, http.MethodPost, "/admit/", map[string]any{"hospital_number": "H1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"ok": "Got your admission just fine - thanks!"}, object(t, w))

	w = h.do(t, http.MethodPost, "/refer/", map[string]any{"episode": ep["id"], "target": "infectious_diseases"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"ok": "Got your referral just fine - thanks!"}, object(t, w))

	w = h.do(t, http.MethodGet, idPath("/api/v0/tagging/", ep["id"]), nil, "")
	assert.Equal(t, true, object(t, w)["infectious_diseases"])

	// a repeat referral is acknowledged without another tag change
	w = h.do(t, http.MethodPost, "/refer/", map[string]any{"episode": ep["id"], "target": "infectious_diseases"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodPost, "/refer/", map[string]any{"target": "infectious_diseases"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/refer/", map[string]any{"episode": 9999, "target": "infectious_diseases"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
