package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/feedplanner/internal/catalog"
	"github.com/mamadbah2/feedplanner/internal/config"
	"github.com/mamadbah2/feedplanner/internal/domain/models"
	"github.com/mamadbah2/feedplanner/internal/service/commands"
	"github.com/mamadbah2/feedplanner/internal/service/planner"
	"github.com/mamadbah2/feedplanner/internal/service/reporting"
)

type fakeMessenger struct {
	sent []models.OutboundMessageRequest
	err  error
}

func (f *fakeMessenger) VerifyWebhookToken(_, _, challenge string) (string, error) {
	return challenge, nil
}

func (f *fakeMessenger) HandleWebhook(context.Context, models.WebhookPayload) error { return nil }

func (f *fakeMessenger) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.sent = append(f.sent, req)
	return f.err
}

type fakePrices map[string]float64

func (f fakePrices) Prices(context.Context) (map[string]float64, error) { return f, nil }

type fakeArchiver struct{ sources []string }

func (f *fakeArchiver) Archive(_ context.Context, source string, _ models.FeedPlan) {
	f.sources = append(f.sources, source)
}

func reminderConfig() config.ReminderConfig {
	return config.ReminderConfig{
		CronSchedule: "0 6 * * *",
		Timezone:     "UTC",
		Recipient:    "224600000000",
		Category:     "broilers",
		Bracket:      "starter",
		FlockSize:    100,
	}
}

func newTestScheduler(t *testing.T, cfg config.ReminderConfig, messenger *fakeMessenger, integrations commands.Integrations) *Scheduler {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	s, err := NewScheduler(cfg, planner.NewService(cat, "GNF", nil), reporting.NewService("", nil), messenger, integrations, nil)
	require.NoError(t, err)
	return s
}

func TestRunReminder(t *testing.T) {
	messenger := &fakeMessenger{}
	archiver := &fakeArchiver{}
	s := newTestScheduler(t, reminderConfig(), messenger, commands.Integrations{
		Prices:   fakePrices{"corn": 250000},
		Archiver: archiver,
	})

	require.NoError(t, s.RunReminder(context.Background()))

	require.Len(t, messenger.sent, 1)
	msg := messenger.sent[0]
	assert.Equal(t, "224600000000", msg.To)
	assert.Contains(t, msg.Message, "Daily ration reminder\nFeed plan: Broilers, Starter (0-4 weeks), 100 birds")
	assert.Contains(t, msg.Message, "- corn: 4000.0g")
	assert.Contains(t, msg.Message, "Daily cost: 20000.00 GNF")
	assert.Equal(t, []string{"reminder"}, archiver.sources)
}

func TestRunReminder_Errors(t *testing.T) {
	cfg := reminderConfig()
	cfg.Category = "ducks"
	err := newTestScheduler(t, cfg, &fakeMessenger{}, commands.Integrations{}).RunReminder(context.Background())
	assert.ErrorIs(t, err, planner.ErrUnknownCategory)

	cfg = reminderConfig()
	cfg.Bracket = "9"
	err = newTestScheduler(t, cfg, &fakeMessenger{}, commands.Integrations{}).RunReminder(context.Background())
	assert.ErrorIs(t, err, planner.ErrUnknownBracket)

	boom := errors.New("meta down")
	err = newTestScheduler(t, reminderConfig(), &fakeMessenger{err: boom}, commands.Integrations{}).RunReminder(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNewScheduler_InvalidTimezone(t *testing.T) {
	cfg := reminderConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err := NewScheduler(cfg, nil, nil, &fakeMessenger{}, commands.Integrations{}, nil)
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	s := newTestScheduler(t, reminderConfig(), &fakeMessenger{}, commands.Integrations{})
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()

	cfg := reminderConfig()
	cfg.CronSchedule = "every morning"
	assert.Error(t, newTestScheduler(t, cfg, &fakeMessenger{}, commands.Integrations{}).Start())
}
