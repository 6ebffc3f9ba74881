package usecase

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
	"go.uber.org/zap"
)

var (
	menuPattern = regexp.MustCompile(`^([Tt]\s*$|查)`)
	traPattern  = regexp.MustCompile(`^(查)?(臺鐵|TRA)`)
	thsrPattern = regexp.MustCompile(`^(查)?(高鐵|THSR)`)
)

// resultCacheKey scopes the cached full result list to one conversation.
func resultCacheKey(mode domain.Mode, userID string, groupID *string) string {
	g := ""
	if groupID != nil {
		g = *groupID
	}
	return fmt.Sprintf("results:%s:%s:%s", mode, userID, g)
}

// ConversationUseCase walks a user through the origin/destination/time
// slots and hands the completed query to the matcher. One call handles one
// inbound event and returns at most one reply; a nil reply means the event
// is ignored.
type ConversationUseCase struct {
	states   repository.StateRepository
	activity repository.ActivityRepository
	cache    repository.CacheRepository
	matcher  *MatchUseCase
	logger   *zap.Logger

	resultTTL time.Duration
	now       func() time.Time
}

func NewConversationUseCase(
	states repository.StateRepository,
	activity repository.ActivityRepository,
	cache repository.CacheRepository,
	matcher *MatchUseCase,
	resultTTL time.Duration,
	logger *zap.Logger,
) *ConversationUseCase {
	return &ConversationUseCase{
		states:    states,
		activity:  activity,
		cache:     cache,
		matcher:   matcher,
		resultTTL: resultTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleEvent dispatches one inbound event.
func (u *ConversationUseCase) HandleEvent(ctx context.Context, ev domain.Event) (*domain.Reply, error) {
	switch ev.Kind {
	case domain.EventMessage:
		return u.handleText(ctx, ev)
	case domain.EventPostback:
		return u.askQuestionStates(ctx, ev)
	case domain.EventFollow:
		return nil, u.activity.RecordFollow(ctx, ev.UserID)
	case domain.EventUnfollow:
		return nil, u.activity.RecordUnfollow(ctx, ev.UserID)
	case domain.EventJoin:
		if ev.GroupID == nil {
			return nil, nil
		}
		return nil, u.activity.RecordJoin(ctx, *ev.GroupID)
	case domain.EventLeave:
		if ev.GroupID == nil {
			return nil, nil
		}
		return nil, u.activity.RecordLeave(ctx, *ev.GroupID)
	}
	return nil, nil
}

// handleText matches command keywords first; anything else feeds the
// active question state.
func (u *ConversationUseCase) handleText(ctx context.Context, ev domain.Event) (*domain.Reply, error) {
	text := domain.NormalizeStationText(ev.Text)

	switch {
	case traPattern.MatchString(text):
		return u.startConversation(ctx, domain.ModeTRA, ev)
	case thsrPattern.MatchString(text):
		return u.startConversation(ctx, domain.ModeTHSR, ev)
	case menuPattern.MatchString(text):
		// Presenting the menu never touches state.
		return MainMenuReply(), nil
	}
	return u.askQuestionStates(ctx, ev)
}

// startConversation expires every prior state for both networks and opens
// a fresh one at the origin slot.
func (u *ConversationUseCase) startConversation(ctx context.Context, mode domain.Mode, ev domain.Event) (*domain.Reply, error) {
	for _, m := range domain.Modes {
		if err := u.states.ExpireAll(ctx, m, ev.UserID, ev.GroupID); err != nil {
			return nil, fmt.Errorf("expire prior states: %w", err)
		}
	}
	st := &domain.QuestionState{
		Mode:    mode,
		UserID:  ev.UserID,
		GroupID: ev.GroupID,
		Update:  u.now(),
	}
	if err := u.states.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create question state: %w", err)
	}
	return OriginPromptReply(), nil
}

// askQuestionStates finds the single active state for this (user, group),
// TRA before THSR, and advances it. Finding more than one active state for
// a network is an invariant violation repaired by expiring them all.
func (u *ConversationUseCase) askQuestionStates(ctx context.Context, ev domain.Event) (*domain.Reply, error) {
	for _, mode := range domain.Modes {
		states, err := u.states.FindActive(ctx, mode, ev.UserID, ev.GroupID)
		if err != nil {
			return nil, fmt.Errorf("find active states: %w", err)
		}
		fresh := states[:0]
		for _, st := range states {
			if !st.Stale(u.now()) {
				fresh = append(fresh, st)
			}
		}
		switch len(fresh) {
		case 0:
			continue
		case 1:
			return u.advanceState(ctx, mode, fresh[0], ev)
		default:
			if err := u.states.ExpireAll(ctx, mode, ev.UserID, ev.GroupID); err != nil {
				return nil, fmt.Errorf("repair duplicate states: %w", err)
			}
			u.logger.Warn("Expired duplicate question states",
				zap.String("mode", mode.String()),
				zap.String("user_id", ev.UserID),
				zap.Int("count", len(fresh)))
			return nil, nil
		}
	}
	// No active conversation: the message is ignored.
	return nil, nil
}

func (u *ConversationUseCase) advanceState(ctx context.Context, mode domain.Mode, st *domain.QuestionState, ev domain.Event) (*domain.Reply, error) {
	switch st.Stage() {
	case domain.StageAwaitingOrigin:
		return u.fillOrigin(ctx, st, ev)
	case domain.StageAwaitingDestination:
		return u.fillDestination(ctx, st, ev)
	case domain.StageAwaitingTime:
		return u.fillTime(ctx, mode, st, ev)
	case domain.StageComplete:
		return u.handleComplete(ctx, mode, st, ev)
	}
	return nil, nil
}

func (u *ConversationUseCase) fillOrigin(ctx context.Context, st *domain.QuestionState, ev domain.Event) (*domain.Reply, error) {
	if ev.Kind != domain.EventMessage {
		return nil, nil
	}
	name, ok := domain.MatchStation(st.Mode, ev.Text)
	if !ok {
		// Stay in this slot; the user is implicitly reprompted.
		return nil, nil
	}
	st.DepartureStation = name
	if err := u.touch(ctx, st); err != nil {
		return nil, err
	}
	return DestinationPromptReply(), nil
}

func (u *ConversationUseCase) fillDestination(ctx context.Context, st *domain.QuestionState, ev domain.Event) (*domain.Reply, error) {
	if ev.Kind != domain.EventMessage {
		return nil, nil
	}
	name, ok := domain.MatchStation(st.Mode, ev.Text)
	if !ok {
		return nil, nil
	}
	if name == st.DepartureStation {
		if err := u.touch(ctx, st); err != nil {
			return nil, err
		}
		return IdenticalStationReply(name), nil
	}
	st.DestinationStation = name
	if err := u.touch(ctx, st); err != nil {
		return nil, err
	}
	return TimePickerReply(), nil
}

func (u *ConversationUseCase) fillTime(ctx context.Context, mode domain.Mode, st *domain.QuestionState, ev domain.Event) (*domain.Reply, error) {
	// Only the datetime picker postback advances this slot.
	if ev.Kind != domain.EventPostback || ev.Datetime == "" {
		return nil, nil
	}
	departure, err := time.ParseInLocation("2006-01-02T15:04", ev.Datetime, time.Local)
	if err != nil {
		u.logger.Warn("Unparseable datetime postback",
			zap.String("value", ev.Datetime),
			zap.Error(err))
		return nil, nil
	}
	st.DepartureTime = &departure
	if err := u.touch(ctx, st); err != nil {
		return nil, err
	}
	return u.runSearch(ctx, mode, st, false)
}

func (u *ConversationUseCase) handleComplete(ctx context.Context, mode domain.Mode, st *domain.QuestionState, ev domain.Event) (*domain.Reply, error) {
	switch {
	case ev.Kind == domain.EventPostback && ev.Datetime != "":
		// Picking a new time re-runs the search without re-asking slots.
		return u.fillTimeAgain(ctx, mode, st, ev)
	case ev.Kind == domain.EventMessage && domain.NormalizeStationText(ev.Text) == TextShowMore:
		if err := u.touch(ctx, st); err != nil {
			return nil, err
		}
		return u.showMore(ctx, mode, st)
	}
	return nil, nil
}

func (u *ConversationUseCase) fillTimeAgain(ctx context.Context, mode domain.Mode, st *domain.QuestionState, ev domain.Event) (*domain.Reply, error) {
	departure, err := time.ParseInLocation("2006-01-02T15:04", ev.Datetime, time.Local)
	if err != nil {
		return nil, nil
	}
	st.DepartureTime = &departure
	if err := u.touch(ctx, st); err != nil {
		return nil, err
	}
	return u.runSearch(ctx, mode, st, false)
}

// runSearch executes the matcher for a completed state. The full formatted
// list is cached so the show-more path does not hit the store again.
func (u *ConversationUseCase) runSearch(ctx context.Context, mode domain.Mode, st *domain.QuestionState, full bool) (*domain.Reply, error) {
	conns, err := u.matcher.Find(ctx, mode, st.DepartureStation, st.DestinationStation, *st.DepartureTime)
	if err != nil {
		return nil, fmt.Errorf("match itineraries: %w", err)
	}

	if len(conns) > 0 {
		fullText, _ := FormatConnections(mode, conns, fullListLimit)
		key := resultCacheKey(mode, st.UserID, st.GroupID)
		if cerr := u.cache.Set(ctx, key, []byte(fullText), u.resultTTL); cerr != nil {
			u.logger.Warn("Failed to cache result list", zap.Error(cerr))
		}
	}

	if full {
		return ConnectionsFullReply(mode, conns), nil
	}
	return ConnectionsPreviewReply(mode, conns), nil
}

func (u *ConversationUseCase) showMore(ctx context.Context, mode domain.Mode, st *domain.QuestionState) (*domain.Reply, error) {
	key := resultCacheKey(mode, st.UserID, st.GroupID)
	cached, err := u.cache.Get(ctx, key)
	if err != nil {
		u.logger.Warn("Result cache read failed", zap.Error(err))
	}
	if len(cached) > 0 {
		return domain.TextReply(string(cached)), nil
	}
	return u.runSearch(ctx, mode, st, true)
}

// touch persists slot changes and refreshes the update timestamp; every
// transition that produces a response goes through here.
func (u *ConversationUseCase) touch(ctx context.Context, st *domain.QuestionState) error {
	st.Update = u.now()
	if err := u.states.Save(ctx, st); err != nil {
		return fmt.Errorf("save question state: %w", err)
	}
	return nil
}
