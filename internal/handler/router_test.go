package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/internal/repository"
	"github.com/noah-isme/rentflow-api/internal/service"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	tokens map[models.UserRole]string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	var users strings.Builder
	users.WriteString("users:\n")
	for _, role := range []models.UserRole{models.RoleTenant, models.RoleCollector, models.RoleManager, models.RoleAdmin} {
		fmt.Fprintf(&users, "  - id: u-%[1]s\n    email: %[1]s@example.com\n    passwordHash: %[2]s\n    role: %[3]s\n    active: true\n",
			strings.ToLower(string(role)), string(hash), role)
	}
	directory, err := repository.ParseUserDirectory([]byte(users.String()))
	require.NoError(t, err)

	metrics := service.NewMetricsService()
	auth := service.NewAuthService(directory, nil, nil, service.AuthConfig{AccessTokenSecret: "test", AccessTokenExpiry: time.Hour})
	workflow := service.NewWorkflowService(repository.NewMemorySnapshotStore(nil), nil, nil, metrics, nil, nil)
	exporter := service.NewExportService(workflow, nil, nil, nil)

	ready := func(ctx context.Context) error {
		_, err := workflow.GetSnapshot(ctx)
		return err
	}

	r := gin.New()
	RegisterRoutes(r, "/api/v1", auth, Handlers{
		Auth:     NewAuthHandler(auth),
		Snapshot: NewSnapshotHandler(workflow),
		Lease:    NewLeaseHandler(workflow),
		Vacate:   NewVacateHandler(workflow),
		Ledger:   NewLedgerHandler(workflow, exporter),
		Admin:    NewAdminHandler(workflow),
		Metrics:  NewMetricsHandler(metrics, ready),
	})

	f := &apiFixture{t: t, router: r, tokens: map[models.UserRole]string{}}
	for _, role := range []models.UserRole{models.RoleTenant, models.RoleCollector, models.RoleManager, models.RoleAdmin} {
		w, env := f.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    strings.ToLower(string(role)) + "@example.com",
			"password": "pw",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var login models.LoginResponse
		require.NoError(t, json.Unmarshal(env.Data, &login))
		f.tokens[role] = login.AccessToken
	}
	return f
}

func (f *apiFixture) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (f *apiFixture) as(role models.UserRole) string {
	return f.tokens[role]
}

func TestLeaseAndLedgerFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(http.MethodPost, "/api/v1/locations", f.as(models.RoleAdmin), map[string]string{"name": "North"})
	require.Equal(t, http.StatusCreated, w.Code)
	var locs struct {
		Locations []models.Location `json:"locations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &locs))
	require.Len(t, locs.Locations, 1)

	w, env = f.do(http.MethodPost, "/api/v1/houses", f.as(models.RoleAdmin), map[string]interface{}{
		"locationId": locs.Locations[0].ID, "name": "H1", "rentAmount": 500,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var houses struct {
		Houses []models.House `json:"houses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &houses))
	houseID := houses.Houses[0].ID

	w, env = f.do(http.MethodPost, "/api/v1/lease-requests", f.as(models.RoleTenant), map[string]string{"houseId": houseID, "applicantName": "A"})
	require.Equal(t, http.StatusCreated, w.Code)
	var lease models.LeaseRequest
	require.NoError(t, json.Unmarshal(env.Data, &lease))

	w, _ = f.do(http.MethodPost, "/api/v1/lease-requests/"+lease.ID+"/approve", f.as(models.RoleCollector), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = f.do(http.MethodPost, "/api/v1/lease-requests/"+lease.ID+"/approve", f.as(models.RoleManager), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var approval models.LeaseApproval
	require.NoError(t, json.Unmarshal(env.Data, &approval))
	require.Len(t, approval.Houses, 1)
	assert.Equal(t, models.HouseStatusOccupied, approval.Houses[0].Status)
	tenantID := approval.Houses[0].TenantID

	w, env = f.do(http.MethodPost, "/api/v1/lease-requests/"+lease.ID+"/approve", f.as(models.RoleManager), map[string]string{"note": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrAlreadyResolved.Code, env.Error.Code)

	w, _ = f.do(http.MethodPost, "/api/v1/payments", f.as(models.RoleTenant), map[string]interface{}{"houseId": houseID, "tenantId": tenantID, "amount": 500})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = f.do(http.MethodPost, "/api/v1/payments", f.as(models.RoleCollector), map[string]interface{}{"houseId": houseID, "tenantId": tenantID, "amount": 500})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var receipt models.PaymentReceipt
	require.NoError(t, json.Unmarshal(env.Data, &receipt))
	assert.Equal(t, 500.0, receipt.Payment.Amount)

	w, _ = f.do(http.MethodGet, "/api/v1/payments/export?format=csv&houseId="+houseID, f.as(models.RoleManager), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), receipt.Payment.ID)

	w, env = f.do(http.MethodGet, "/api/v1/snapshot", f.as(models.RoleTenant), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), env.Meta["version"])
	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Len(t, snapshot.Payments, 1)
	assert.Len(t, snapshot.Tenants, 1)
}

func TestErrorResponses(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(http.MethodGet, "/api/v1/snapshot", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)

	w, env = f.do(http.MethodPost, "/api/v1/handovers", f.as(models.RoleCollector), map[string]interface{}{"amount": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInvalidAmount.Code, env.Error.Code)

	w, env = f.do(http.MethodPost, "/api/v1/lease-requests", f.as(models.RoleTenant), map[string]string{"houseId": "nope", "applicantName": "A"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, appErrors.ErrInvalidTarget.Code, env.Error.Code)

	w, _ = f.do(http.MethodPost, "/api/v1/locations", f.as(models.RoleManager), map[string]string{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = f.do(http.MethodDelete, "/api/v1/houses/missing", f.as(models.RoleAdmin), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)

	w, env = f.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, env.Error.Code)

	w, _ = f.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLeaseHandlerRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLeaseHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/lease-requests", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
