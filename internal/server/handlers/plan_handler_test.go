package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/feedplanner/internal/catalog"
	"github.com/mamadbah2/feedplanner/internal/domain/models"
	"github.com/mamadbah2/feedplanner/internal/service/planner"
	"github.com/mamadbah2/feedplanner/internal/service/publishing"
	"github.com/mamadbah2/feedplanner/internal/service/reporting"
)

const handlerCatalog = `
max_maturity_days: 30
ingredients: [corn, soybean, fishmeal, sunflower meal, rice bran]
alternatives:
  fishmeal: [sunflower meal, rice bran]
categories:
  - name: Broilers
    maturity_days: 3
    brackets:
      - label: "0-2 weeks"
        recipe: {corn: 50, soybean: 30, fishmeal: 20}
`

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m.objects[key] = data
	return "https://files.example.com/" + key, nil
}

type memoryArchive struct {
	records []models.PlanRecord
}

func (m *memoryArchive) SavePlan(_ context.Context, record models.PlanRecord) error {
	m.records = append(m.records, record)
	return nil
}

func setupPlanTestRouter(t *testing.T, sinks publishing.Sinks) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.Parse([]byte(handlerCatalog))
	require.NoError(t, err)

	reports := reporting.NewService("Hillside", nil)
	handler := NewPlanHandler(planner.NewService(cat, "USD", nil), reports, publishing.NewService(reports, sinks, nil), nil)

	r := gin.New()
	r.GET("/catalog", handler.Catalog)
	r.POST("/plans", handler.CreatePlan)
	r.POST("/plans/export", handler.ExportPlan)
	r.POST("/plans/publish", handler.PublishPlan)
	r.POST("/plans/schedule", handler.PublishSchedule)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const scenarioBody = `{"category":"Broilers","bracket":"0-2 weeks","flock_size":10,"available":["corn","soybean"]}`

func TestCatalog(t *testing.T) {
	w := doJSON(setupPlanTestRouter(t, publishing.Sinks{}), http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view catalogView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, []string{"corn", "soybean", "fishmeal", "sunflower meal", "rice bran"}, view.Ingredients)
	assert.Equal(t, map[string][]string{"fishmeal": {"sunflower meal", "rice bran"}}, view.Alternatives)
	require.Len(t, view.Categories, 1)
	assert.Equal(t, 3, view.Categories[0].MaturityDays)
	assert.Equal(t, 20.0, view.Categories[0].Brackets[0].Recipe["fishmeal"])
}

func TestCreatePlan(t *testing.T) {
	archive := &memoryArchive{}
	r := setupPlanTestRouter(t, publishing.Sinks{Archive: archive})

	w := doJSON(r, http.MethodPost, "/plans", scenarioBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plan models.FeedPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, map[string]float64{"corn": 500, "soybean": 300}, plan.RequiredGrams)
	assert.Equal(t, []string{"fishmeal"}, plan.Omitted)
	assert.Equal(t, []string{"sunflower meal", "rice bran"}, plan.OmittedIngredients["fishmeal"])
	assert.Nil(t, plan.Costs)

	require.Len(t, archive.records, 1)
	assert.Equal(t, publishing.SourceHTTP, archive.records[0].Source)
}

func TestCreatePlan_ErrorStatuses(t *testing.T) {
	r := setupPlanTestRouter(t, publishing.Sinks{})

	tests := []struct {
		name    string
		body    string
		want    int
		message string
	}{
		{"malformed", `{`, http.StatusBadRequest, "invalid request body"},
		{"missing flock", `{"category":"Broilers","bracket":"0-2 weeks"}`, http.StatusBadRequest, "flock size must be a positive number, got 0"},
		{"zero flock", `{"category":"Broilers","bracket":"0-2 weeks","flock_size":0}`, http.StatusBadRequest, "flock size must be a positive number, got 0"},
		{"negative flock", `{"category":"Broilers","bracket":"0-2 weeks","flock_size":-1}`, http.StatusBadRequest, "flock size must be a positive number, got -1"},
		{"negative days", `{"category":"Broilers","bracket":"0-2 weeks","flock_size":1,"maturity_days":-2}`, http.StatusBadRequest, "maturity days must be a positive number"},
		{"days above cap", `{"category":"Broilers","bracket":"0-2 weeks","flock_size":1,"maturity_days":2000000000}`, http.StatusBadRequest, "at most 30"},
		{"bad currency", `{"category":"Broilers","bracket":"0-2 weeks","flock_size":1,"currency":"XXQ"}`, http.StatusBadRequest, "unknown currency code"},
		{"unknown category", `{"category":"Ducks","bracket":"0-2 weeks","flock_size":1}`, http.StatusNotFound, "unknown category"},
		{"empty category", `{"category":"","bracket":"0-2 weeks","flock_size":1}`, http.StatusNotFound, "unknown category"},
		{"empty bracket", `{"category":"Broilers","bracket":"","flock_size":1}`, http.StatusNotFound, "unknown age bracket"},
		{"unknown bracket", `{"category":"Broilers","bracket":"Laying","flock_size":1}`, http.StatusNotFound, "unknown age bracket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/plans", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body.Error, tt.message)
		})
	}
}

func TestExportPlan_ScheduleLengthIsCapped(t *testing.T) {
	r := setupPlanTestRouter(t, publishing.Sinks{})

	w := doJSON(r, http.MethodPost, "/plans/export?format=csv", `{"category":"Broilers","bracket":"0-2 weeks","flock_size":1,"available":["corn"],"maturity_days":31}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/plans/export?format=csv", `{"category":"Broilers","bracket":"0-2 weeks","flock_size":1,"available":["corn"],"maturity_days":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 31, strings.Count(w.Body.String(), "\n"))
}

func TestCreatePlan_EmptyRecipeReturnsPartialPlan(t *testing.T) {
	r := setupPlanTestRouter(t, publishing.Sinks{})

	w := doJSON(r, http.MethodPost, "/plans", `{"category":"Broilers","bracket":"0-2 weeks","flock_size":10,"available":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error string          `json:"error"`
		Plan  models.FeedPlan `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.Equal(t, []string{"corn", "soybean", "fishmeal"}, body.Plan.Omitted)
	assert.Empty(t, body.Plan.RequiredGrams)
}

func TestExportPlan(t *testing.T) {
	r := setupPlanTestRouter(t, publishing.Sinks{})

	w := doJSON(r, http.MethodPost, "/plans/export?format=csv", scenarioBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="hillside_feed_plan.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "day,corn,soybean\n1,500,300\n2,500,300\n3,500,300\n", w.Body.String())

	w = doJSON(r, http.MethodPost, "/plans/export?format=pdf", scenarioBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = doJSON(r, http.MethodPost, "/plans/export?format=docx", scenarioBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublishPlan(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	r := setupPlanTestRouter(t, publishing.Sinks{Store: store})

	w := doJSON(r, http.MethodPost, "/plans/publish?format=xlsx", scenarioBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var artifact models.PublishedArtifact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artifact))
	assert.True(t, strings.HasPrefix(artifact.Key, "plans/"))
	assert.True(t, strings.HasSuffix(artifact.Key, "/hillside_feed_plan.xlsx"))
	assert.Equal(t, "https://files.example.com/"+artifact.Key, artifact.URL)
	assert.Len(t, store.objects[artifact.Key], artifact.Size)
}

func TestPublishPlan_StorageDisabled(t *testing.T) {
	w := doJSON(setupPlanTestRouter(t, publishing.Sinks{}), http.MethodPost, "/plans/publish?format=pdf", scenarioBody)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPublishSchedule_SheetsDisabled(t *testing.T) {
	w := doJSON(setupPlanTestRouter(t, publishing.Sinks{}), http.MethodPost, "/plans/schedule", scenarioBody)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
