package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/feedplanner/internal/catalog"
	"github.com/mamadbah2/feedplanner/internal/domain/models"
	"github.com/mamadbah2/feedplanner/internal/service/planner"
	"github.com/mamadbah2/feedplanner/internal/service/pricing"
	"github.com/mamadbah2/feedplanner/internal/service/publishing"
	"github.com/mamadbah2/feedplanner/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// PlanUsage documents the /plan syntax.
const PlanUsage = "/plan <category> <bracket> <flock size> [without ing1,ing2] [days N]"

const helpText = "Feed planner commands:\n" +
	PlanUsage + "\n" +
	"  e.g. /plan broilers 1 200 without fishmeal\n" +
	"/catalog - bird categories and age brackets\n" +
	"/ingredients - ingredient names the planner knows\n" +
	"/publish [pdf|xlsx|csv|png] - download link for your last plan"

// Summarizer renders a plan as a chat reply.
type Summarizer interface {
	Summary(plan models.FeedPlan) string
}

// Archiver records plans computed through chat.
type Archiver interface {
	Archive(ctx context.Context, source string, plan models.FeedPlan)
}

// Publisher uploads a rendered plan and returns where to download it.
type Publisher interface {
	Publish(ctx context.Context, format reporting.Format, plan models.FeedPlan) (models.PublishedArtifact, error)
}

// Integrations are the optional collaborators of the dispatcher. A nil field
// disables the matching feature.
type Integrations struct {
	Prices    pricing.Source
	Archiver  Archiver
	Publisher Publisher
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	planner   *planner.Service
	reports   Summarizer
	prices    pricing.Source
	archiver  Archiver
	publisher Publisher
	sessions  *SessionManager
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(plannerSvc *planner.Service, reports Summarizer, integrations Integrations, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		planner:   plannerSvc,
		reports:   reports,
		prices:    integrations.Prices,
		archiver:  integrations.Archiver,
		publisher: integrations.Publisher,
		sessions:  NewSessionManager(),
		logger:    logger,
	}
}

// HandleCommand runs the command on behalf of sender.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Any("args", cmd.Args))

	switch cmd.Type {
	case models.CommandPlan:
		return s.handlePlan(ctx, cmd, sender)
	case models.CommandPublish:
		return s.handlePublish(ctx, cmd, sender)
	case models.CommandCatalog:
		return s.describeCatalog(), nil
	case models.CommandIngredients:
		return s.describeIngredients(), nil
	case models.CommandHelp, models.CommandUnknown:
		return helpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) handlePlan(ctx context.Context, cmd models.Command, sender string) (string, error) {
	// A /plan that yields no plan must not leave an older one behind for /publish.
	s.sessions.Clear(sender)

	req, err := s.BuildPlanRequest(cmd.Args)
	if err != nil {
		return "", err
	}

	if s.prices != nil {
		prices, err := s.prices.Prices(ctx)
		if err != nil {
			s.logger.Warn("price lookup failed, planning without costs", zap.Error(err))
		} else {
			req.Prices = prices
		}
	}

	plan, err := s.planner.DerivePlan(req)
	switch {
	case errors.Is(err, planner.ErrEmptyRecipeAfterFiltering):
		return s.reports.Summary(plan), nil
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}

	s.sessions.Remember(sender, plan)
	if s.archiver != nil {
		s.archiver.Archive(ctx, publishing.SourceWhatsApp, plan)
	}

	return s.reports.Summary(plan), nil
}

func (s *Service) handlePublish(ctx context.Context, cmd models.Command, sender string) (string, error) {
	plan, ok := s.sessions.LastPlan(sender)
	if !ok {
		return "No plan to publish yet. Send " + PlanUsage + " first.", nil
	}

	format := reporting.FormatPDF
	if len(cmd.Args) > 0 {
		f, err := reporting.ParseFormat(cmd.Args[0])
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidArguments, err)
		}
		format = f
	}

	if s.publisher == nil {
		return "Publishing is not configured.", nil
	}

	artifact, err := s.publisher.Publish(ctx, format, plan)
	if errors.Is(err, publishing.ErrStorageDisabled) {
		return "Publishing is not configured.", nil
	}
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Your %s report for %s, %s is ready: %s", format.Extension(), plan.Category, plan.Bracket, artifact.URL), nil
}

// BuildPlanRequest turns /plan arguments into a request. Everything in the catalog
// vocabulary counts as available unless listed after "without".
func (s *Service) BuildPlanRequest(args []string) (models.PlanRequest, error) {
	head, options := splitOptions(args)
	if len(head) < 3 {
		return models.PlanRequest{}, fmt.Errorf("%w: usage %s", ErrInvalidArguments, PlanUsage)
	}

	flock, err := strconv.Atoi(head[len(head)-1])
	if err != nil || flock <= 0 {
		return models.PlanRequest{}, fmt.Errorf("%w: flock size %q must be a positive number", ErrInvalidArguments, head[len(head)-1])
	}
	head = head[:len(head)-1]

	cat := s.planner.Catalog()
	category, used := matchCategory(cat, head)
	if category == nil {
		return models.PlanRequest{}, fmt.Errorf("%w: %w: %q", ErrInvalidArguments, planner.ErrUnknownCategory, head[0])
	}

	bracketToken := strings.Join(head[used:], " ")
	if bracketToken == "" {
		return models.PlanRequest{}, fmt.Errorf("%w: missing age bracket for %s", ErrInvalidArguments, category.Name())
	}
	bracket, ok := category.ResolveBracket(bracketToken)
	if !ok {
		return models.PlanRequest{}, fmt.Errorf("%w: %w: %q", ErrInvalidArguments, planner.ErrUnknownBracket, bracketToken)
	}

	req := models.PlanRequest{
		Category:  category.Name(),
		Bracket:   bracket.Label(),
		FlockSize: flock,
		Available: cat.Ingredients(),
	}

	if without, ok := options["without"]; ok {
		excluded := make(map[string]struct{})
		for _, name := range strings.Split(without, ",") {
			if name = catalog.NormalizeIngredient(name); name != "" {
				excluded[name] = struct{}{}
			}
		}
		available := req.Available[:0]
		for _, name := range req.Available {
			if _, skip := excluded[name]; !skip {
				available = append(available, name)
			}
		}
		req.Available = available
	}

	if days, ok := options["days"]; ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return models.PlanRequest{}, fmt.Errorf("%w: days %q must be a positive number", ErrInvalidArguments, days)
		}
		if limit := cat.MaxMaturityDays(); n > limit {
			return models.PlanRequest{}, fmt.Errorf("%w: days %d exceeds the limit of %d", ErrInvalidArguments, n, limit)
		}
		req.MaturityDays = n
	}

	return req, nil
}

var optionKeywords = map[string]struct{}{"without": {}, "days": {}}

// splitOptions separates positional tokens from keyword options. Each option value
// runs until the next keyword.
func splitOptions(args []string) ([]string, map[string]string) {
	options := make(map[string]string)
	head := args
	for i, tok := range args {
		if _, ok := optionKeywords[tok]; ok {
			head = args[:i]
			break
		}
	}

	var key string
	var values []string
	flush := func() {
		if key != "" {
			options[key] = strings.Join(values, " ")
		}
	}
	for _, tok := range args[len(head):] {
		if _, ok := optionKeywords[tok]; ok {
			flush()
			key, values = tok, nil
			continue
		}
		values = append(values, tok)
	}
	flush()

	return head, options
}

// matchCategory finds the longest leading run of tokens naming a category, so
// "free range" and "free-range" both resolve. It returns the tokens consumed.
func matchCategory(cat *catalog.Catalog, tokens []string) (*catalog.Category, int) {
	for n := len(tokens); n > 0; n-- {
		name := strings.Join(tokens[:n], " ")
		if category, ok := cat.Category(name); ok {
			return category, n
		}
		if category, ok := cat.Category(strings.ReplaceAll(name, " ", "-")); ok {
			return category, n
		}
	}
	return nil, 0
}

func (s *Service) describeCatalog() string {
	var b strings.Builder
	b.WriteString("Bird categories:")
	for _, category := range s.planner.Catalog().Categories() {
		fmt.Fprintf(&b, "\n%s (%d days to maturity)", category.Name(), category.MaturityDays())
		for i, bracket := range category.Brackets() {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, bracket.Label())
		}
	}
	return b.String()
}

func (s *Service) describeIngredients() string {
	return "Known ingredients: " + strings.Join(s.planner.Catalog().Ingredients(), ", ")
}
