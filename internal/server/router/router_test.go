package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/feedplanner/internal/catalog"
	"github.com/mamadbah2/feedplanner/internal/config"
	"github.com/mamadbah2/feedplanner/internal/server/handlers"
	"github.com/mamadbah2/feedplanner/internal/service/planner"
	"github.com/mamadbah2/feedplanner/internal/service/reporting"
	"github.com/mamadbah2/feedplanner/internal/service/whatsapp"
)

func newPlanHandler(t *testing.T) *handlers.PlanHandler {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return handlers.NewPlanHandler(planner.NewService(cat, "USD", nil), reporting.NewService("", nil), nil, nil)
}

func serve(r http.Handler, method, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestNew_CoreRoutes(t *testing.T) {
	r := New(newPlanHandler(t), nil, nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz"))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/catalog"))
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/plans"))
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/plans/publish"))
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/webhook"))
}

func TestNew_WhatsAppRoutes(t *testing.T) {
	svc := whatsapp.NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "secret"}, nil, nil, nil)
	r := New(newPlanHandler(t), handlers.NewWebhookHandler(svc, nil), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=99", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "99", w.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope"))
}
