package publishing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedplanner/internal/domain/models"
	"github.com/mamadbah2/feedplanner/internal/repository/mongodb"
	"github.com/mamadbah2/feedplanner/internal/repository/objectstore"
	"github.com/mamadbah2/feedplanner/internal/repository/sheets"
	"github.com/mamadbah2/feedplanner/internal/service/reporting"
)

var (
	// ErrStorageDisabled is returned when no object storage bucket is configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
	// ErrSheetsDisabled is returned when no spreadsheet is configured.
	ErrSheetsDisabled = errors.New("google sheets is not configured")
)

// Plan sources recorded in the archive.
const (
	SourceHTTP     = "http"
	SourceWhatsApp = "whatsapp"
	SourceReminder = "reminder"
)

// Sinks groups the optional destinations. Any of them may be nil.
type Sinks struct {
	Store         objectstore.Store
	Sheets        sheets.Repository
	ScheduleRange string
	Archive       mongodb.Repository
}

// Service pushes rendered plans to external destinations.
type Service struct {
	reporting *reporting.Service
	sinks     Sinks
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires a publishing service around the reporting service.
func NewService(reportingSvc *reporting.Service, sinks Sinks, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reporting: reportingSvc,
		sinks:     sinks,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// StorageEnabled reports whether Publish can upload artifacts.
func (s *Service) StorageEnabled() bool { return s.sinks.Store != nil }

// Publish renders the plan and uploads it under plans/<uuid>/<file name>.
func (s *Service) Publish(ctx context.Context, format reporting.Format, plan models.FeedPlan) (models.PublishedArtifact, error) {
	if s.sinks.Store == nil {
		return models.PublishedArtifact{}, ErrStorageDisabled
	}

	var buf bytes.Buffer
	if err := s.reporting.Export(&buf, format, plan); err != nil {
		return models.PublishedArtifact{}, err
	}

	key := fmt.Sprintf("plans/%s/%s", s.newID(), s.reporting.FileName(format))
	url, err := s.sinks.Store.Put(ctx, key, format.ContentType(), buf.Bytes())
	if err != nil {
		return models.PublishedArtifact{}, fmt.Errorf("publish %s: %w", format, err)
	}

	s.logger.Info("plan published", zap.String("key", key), zap.String("format", string(format)))
	return models.PublishedArtifact{
		Key:         key,
		URL:         url,
		ContentType: format.ContentType(),
		Size:        buf.Len(),
	}, nil
}

// PublishSchedule appends the daily feeding table, header first, to the schedule range.
// It returns the number of rows written.
func (s *Service) PublishSchedule(ctx context.Context, plan models.FeedPlan) (int, error) {
	if s.sinks.Sheets == nil {
		return 0, ErrSheetsDisabled
	}

	rows := ScheduleRows(reporting.BuildSchedule(plan))
	if err := s.sinks.Sheets.WriteRows(ctx, s.sinks.ScheduleRange, rows); err != nil {
		return 0, fmt.Errorf("publish schedule: %w", err)
	}

	s.logger.Info("schedule exported to sheet", zap.String("range", s.sinks.ScheduleRange), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// Archive stores a record of the plan when an archive is configured. Archiving is
// best effort, so failures are logged and never reach the caller.
func (s *Service) Archive(ctx context.Context, source string, plan models.FeedPlan) {
	if s.sinks.Archive == nil {
		return
	}

	record := NewRecord(s.newID(), source, s.now().UTC(), plan)
	if err := s.sinks.Archive.SavePlan(ctx, record); err != nil {
		s.logger.Warn("failed to archive plan", zap.String("id", record.ID), zap.Error(err))
		return
	}
	s.logger.Debug("plan archived", zap.String("id", record.ID), zap.String("source", source))
}

// NewRecord flattens a plan into its archived form.
func NewRecord(id, source string, createdAt time.Time, plan models.FeedPlan) models.PlanRecord {
	grams := make(map[string]float64, len(plan.Ingredients))
	for _, name := range plan.Ingredients {
		grams[name] = plan.RequiredGrams[name]
	}

	record := models.PlanRecord{
		ID:           id,
		Source:       source,
		Category:     plan.Category,
		Bracket:      plan.Bracket,
		FlockSize:    plan.FlockSize,
		MaturityDays: plan.MaturityDays,
		Grams:        grams,
		Omitted:      append([]string{}, plan.Omitted...),
		CreatedAt:    createdAt,
	}

	if plan.Costs != nil {
		record.Currency = plan.Costs.Currency
		record.DailyCost = plan.Costs.Daily.InexactFloat64()
	}

	return record
}

// ScheduleRows converts a schedule into sheet rows with a header row.
func ScheduleRows(schedule models.Schedule) [][]interface{} {
	header := reporting.ScheduleHeader(schedule)
	rows := make([][]interface{}, 0, len(schedule.Rows)+1)

	headerRow := make([]interface{}, len(header))
	for i, col := range header {
		headerRow[i] = col
	}
	rows = append(rows, headerRow)

	for _, r := range schedule.Rows {
		row := make([]interface{}, 0, len(r.Grams)+1)
		row = append(row, r.Day)
		for _, g := range r.Grams {
			row = append(row, g)
		}
		rows = append(rows, row)
	}

	return rows
}
