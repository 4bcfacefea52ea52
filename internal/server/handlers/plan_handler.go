package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedplanner/internal/catalog"
	"github.com/mamadbah2/feedplanner/internal/domain/models"
	"github.com/mamadbah2/feedplanner/internal/service/planner"
	"github.com/mamadbah2/feedplanner/internal/service/publishing"
	"github.com/mamadbah2/feedplanner/internal/service/reporting"
)

// PlanHandler serves the catalog and feed plan endpoints.
type PlanHandler struct {
	planner    *planner.Service
	reporting  *reporting.Service
	publishing *publishing.Service
	logger     *zap.Logger
}

// NewPlanHandler constructs the HTTP handler adapter.
func NewPlanHandler(plannerSvc *planner.Service, reportingSvc *reporting.Service, publishingSvc *publishing.Service, logger *zap.Logger) *PlanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanHandler{
		planner:    plannerSvc,
		reporting:  reportingSvc,
		publishing: publishingSvc,
		logger:     logger,
	}
}

type bracketView struct {
	Label  string             `json:"label"`
	Recipe map[string]float64 `json:"recipe"`
}

type categoryView struct {
	Name         string        `json:"name"`
	MaturityDays int           `json:"maturity_days"`
	Brackets     []bracketView `json:"brackets"`
}

type catalogView struct {
	Version      string              `json:"version"`
	Ingredients  []string            `json:"ingredients"`
	Alternatives map[string][]string `json:"alternatives"`
	Categories   []categoryView      `json:"categories"`
}

// Catalog lists categories, brackets with their recipes, and the ingredient vocabulary.
func (h *PlanHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, newCatalogView(h.planner.Catalog()))
}

func newCatalogView(cat *catalog.Catalog) catalogView {
	view := catalogView{
		Version:      cat.Version(),
		Ingredients:  cat.Ingredients(),
		Alternatives: make(map[string][]string),
	}
	for _, name := range view.Ingredients {
		if alts := cat.Alternatives(name); len(alts) > 0 {
			view.Alternatives[name] = alts
		}
	}

	for _, category := range cat.Categories() {
		cv := categoryView{Name: category.Name(), MaturityDays: category.MaturityDays()}
		for _, bracket := range category.Brackets() {
			recipe := make(map[string]float64)
			for _, name := range bracket.Ingredients() {
				recipe[name], _ = bracket.Grams(name)
			}
			cv.Brackets = append(cv.Brackets, bracketView{Label: bracket.Label(), Recipe: recipe})
		}
		view.Categories = append(view.Categories, cv)
	}
	return view
}

// CreatePlan derives a feed plan from a JSON PlanRequest.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	plan, ok := h.derive(c)
	if !ok {
		return
	}

	if h.publishing != nil {
		h.publishing.Archive(c.Request.Context(), publishing.SourceHTTP, plan)
	}
	c.JSON(http.StatusOK, plan)
}

// ExportPlan derives a plan and returns it as a downloadable artifact.
func (h *PlanHandler) ExportPlan(c *gin.Context) {
	format, ok := h.format(c)
	if !ok {
		return
	}
	plan, ok := h.derive(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.reporting.Export(&buf, format, plan); err != nil {
		h.renderExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.reporting.FileName(format)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// PublishPlan derives a plan, uploads the artifact to object storage and returns its URL.
func (h *PlanHandler) PublishPlan(c *gin.Context) {
	if h.publishing == nil || !h.publishing.StorageEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": publishing.ErrStorageDisabled.Error()})
		return
	}

	format, ok := h.format(c)
	if !ok {
		return
	}
	plan, ok := h.derive(c)
	if !ok {
		return
	}

	artifact, err := h.publishing.Publish(c.Request.Context(), format, plan)
	if err != nil {
		h.renderExportError(c, err)
		return
	}

	c.JSON(http.StatusCreated, artifact)
}

// PublishSchedule derives a plan and appends its daily schedule to the spreadsheet.
func (h *PlanHandler) PublishSchedule(c *gin.Context) {
	if h.publishing == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": publishing.ErrSheetsDisabled.Error()})
		return
	}

	plan, ok := h.derive(c)
	if !ok {
		return
	}

	rows, err := h.publishing.PublishSchedule(c.Request.Context(), plan)
	if err != nil {
		h.renderExportError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (h *PlanHandler) format(c *gin.Context) (reporting.Format, bool) {
	format, err := reporting.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return format, true
}

// derive binds the request body and runs the planner, writing the error response
// itself when it fails.
func (h *PlanHandler) derive(c *gin.Context) (models.FeedPlan, bool) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid plan request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return models.FeedPlan{}, false
	}

	plan, err := h.planner.DerivePlan(req)
	if err != nil {
		status := planErrorStatus(err)
		body := gin.H{"error": err.Error()}
		if status == http.StatusUnprocessableEntity {
			body["plan"] = plan
		}
		c.JSON(status, body)
		return models.FeedPlan{}, false
	}

	return plan, true
}

func (h *PlanHandler) renderExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reporting.ErrNothingToChart):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, publishing.ErrStorageDisabled), errors.Is(err, publishing.ErrSheetsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed to export plan", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to export plan"})
	}
}

func planErrorStatus(err error) int {
	switch {
	case errors.Is(err, planner.ErrUnknownCategory), errors.Is(err, planner.ErrUnknownBracket):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrEmptyRecipeAfterFiltering):
		return http.StatusUnprocessableEntity
	case errors.Is(err, planner.ErrInvalidFlockSize),
		errors.Is(err, planner.ErrInvalidMaturityDays),
		errors.Is(err, planner.ErrUnknownCurrency):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
