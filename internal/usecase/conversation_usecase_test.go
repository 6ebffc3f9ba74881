package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/usecase"
)

type conversationFixture struct {
	states   *MockStateRepository
	activity *MockActivityRepository
	cache    *MockCacheRepository
	store    *MockTimetableRepository
	uc       *usecase.ConversationUseCase
}

func newConversationFixture() *conversationFixture {
	logger := zap.NewNop()
	f := &conversationFixture{
		states:   &MockStateRepository{},
		activity: &MockActivityRepository{},
		cache:    &MockCacheRepository{},
		store:    &MockTimetableRepository{},
	}
	matcher := usecase.NewMatchUseCase(f.store, logger)
	f.uc = usecase.NewConversationUseCase(
		f.states, f.activity, f.cache, matcher, time.Hour, logger)
	return f
}

func msgEvent(text string) domain.Event {
	return domain.Event{
		Kind:       domain.EventMessage,
		UserID:     "U1",
		ReplyToken: "rt",
		Text:       text,
	}
}

func postbackEvent(datetime string) domain.Event {
	return domain.Event{
		Kind:       domain.EventPostback,
		UserID:     "U1",
		ReplyToken: "rt",
		Datetime:   datetime,
	}
}

func freshState(mode domain.Mode) *domain.QuestionState {
	return &domain.QuestionState{
		ID:     1,
		Mode:   mode,
		UserID: "U1",
		Update: time.Now(),
	}
}

func TestConversationUseCase_Menu(t *testing.T) {
	ctx := context.Background()

	for _, text := range []string{"T", "t", "查", "查詢"} {
		t.Run("menu keyword "+text, func(t *testing.T) {
			f := newConversationFixture()

			reply, err := f.uc.HandleEvent(ctx, msgEvent(text))
			require.NoError(t, err)
			require.NotNil(t, reply)

			assert.Equal(t, domain.ReplyTemplate, reply.Kind)
			assert.Equal(t, usecase.TextMainMenuAlt, reply.AltText)
			f.states.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.states.AssertNotCalled(t, "ExpireAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("text merely starting with T is not the menu", func(t *testing.T) {
		f := newConversationFixture()
		f.states.On("FindActive", mock.Anything, mock.Anything, "U1", mock.Anything).
			Return([]*domain.QuestionState{}, nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent("Tomorrow plans"))
		require.NoError(t, err)
		assert.Nil(t, reply)
	})
}

func TestConversationUseCase_StartConversation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		text string
		mode domain.Mode
	}{
		{"查臺鐵", domain.ModeTRA},
		{"查台鐵", domain.ModeTRA},
		{"臺鐵", domain.ModeTRA},
		{"TRA", domain.ModeTRA},
		{"查高鐵", domain.ModeTHSR},
		{"高鐵", domain.ModeTHSR},
		{"THSR", domain.ModeTHSR},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			f := newConversationFixture()
			f.states.On("ExpireAll", mock.Anything, domain.ModeTRA, "U1", mock.Anything).Return(nil)
			f.states.On("ExpireAll", mock.Anything, domain.ModeTHSR, "U1", mock.Anything).Return(nil)
			f.states.On("Create", mock.Anything, mock.MatchedBy(func(st *domain.QuestionState) bool {
				return st.Mode == tc.mode && st.UserID == "U1" && st.DepartureStation == ""
			})).Return(nil)

			reply, err := f.uc.HandleEvent(ctx, msgEvent(tc.text))
			require.NoError(t, err)
			require.NotNil(t, reply)

			assert.Equal(t, usecase.TextAskOrigin, reply.Text)
			f.states.AssertCalled(t, "ExpireAll", mock.Anything, domain.ModeTRA, "U1", mock.Anything)
			f.states.AssertCalled(t, "ExpireAll", mock.Anything, domain.ModeTHSR, "U1", mock.Anything)
		})
	}
}

func TestConversationUseCase_SlotFilling(t *testing.T) {
	ctx := context.Background()

	t.Run("origin answer advances to destination prompt", func(t *testing.T) {
		f := newConversationFixture()
		st := freshState(domain.ModeTRA)
		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{st}, nil)
		f.states.On("Save", mock.Anything, st).Return(nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent("新竹"))
		require.NoError(t, err)
		require.NotNil(t, reply)

		assert.Equal(t, usecase.TextAskDestination, reply.Text)
		assert.Equal(t, "新竹", st.DepartureStation)
	})

	t.Run("unrecognized origin text is ignored and state kept", func(t *testing.T) {
		f := newConversationFixture()
		st := freshState(domain.ModeTRA)
		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{st}, nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent("hello"))
		require.NoError(t, err)
		assert.Nil(t, reply)
		assert.Empty(t, st.DepartureStation)
	})

	t.Run("identical destination is rejected with the literal error", func(t *testing.T) {
		f := newConversationFixture()
		st := freshState(domain.ModeTRA)
		st.DepartureStation = "新竹"
		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{st}, nil)
		f.states.On("Save", mock.Anything, st).Return(nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent("新竹"))
		require.NoError(t, err)
		require.NotNil(t, reply)

		assert.Equal(t, "輸入的目的站與起程站皆是新竹，請重新輸入有效目的站", reply.Text)
		assert.Empty(t, st.DestinationStation)
	})

	t.Run("valid destination advances to time picker", func(t *testing.T) {
		f := newConversationFixture()
		st := freshState(domain.ModeTRA)
		st.DepartureStation = "新竹"
		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{st}, nil)
		f.states.On("Save", mock.Anything, st).Return(nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent("高雄"))
		require.NoError(t, err)
		require.NotNil(t, reply)

		assert.Equal(t, domain.ReplyTemplate, reply.Kind)
		assert.Equal(t, usecase.TextAskTimeAlt, reply.AltText)
		assert.Equal(t, "高雄", st.DestinationStation)
	})

	t.Run("datetime postback completes the state and searches", func(t *testing.T) {
		f := newConversationFixture()
		st := freshState(domain.ModeTRA)
		st.DepartureStation = "新竹"
		st.DestinationStation = "高雄"
		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{st}, nil)
		f.states.On("Save", mock.Anything, st).Return(nil)
		f.store.On("FindCandidates", mock.Anything, domain.ModeTRA, mock.Anything).
			Return([]*domain.Timetable{
				tratt(day(2018, time.June, 2), "51", "莒光",
					"新竹", 7, 19, 7, 19,
					"高雄", 11, 16, 11, 16),
			}, nil)
		f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, time.Hour).Return(nil)

		reply, err := f.uc.HandleEvent(ctx, postbackEvent("2018-06-02T07:00"))
		require.NoError(t, err)
		require.NotNil(t, reply)

		assert.Equal(t, domain.ReplyTemplate, reply.Kind)
		assert.Equal(t, usecase.TextResultTitle, reply.AltText)
		assert.Contains(t, reply.Text, "0051 莒光 07:19→11:16")
		require.NotNil(t, st.DepartureTime)
		assert.Equal(t, time.Date(2018, time.June, 2, 7, 0, 0, 0, time.Local), *st.DepartureTime)
	})

	t.Run("no matching trains yields the no-service text", func(t *testing.T) {
		f := newConversationFixture()
		st := freshState(domain.ModeTRA)
		st.DepartureStation = "新竹"
		st.DestinationStation = "高雄"
		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{st}, nil)
		f.states.On("Save", mock.Anything, st).Return(nil)
		f.store.On("FindCandidates", mock.Anything, domain.ModeTRA, mock.Anything).
			Return([]*domain.Timetable{}, nil)

		reply, err := f.uc.HandleEvent(ctx, postbackEvent("2018-06-02T07:00"))
		require.NoError(t, err)
		require.NotNil(t, reply)

		assert.Equal(t, usecase.TextNoService, reply.Text)
		f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConversationUseCase_StateHygiene(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate active states are all expired", func(t *testing.T) {
		f := newConversationFixture()
		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{freshState(domain.ModeTRA), freshState(domain.ModeTRA)}, nil)
		f.states.On("ExpireAll", mock.Anything, domain.ModeTRA, "U1", mock.Anything).Return(nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent("新竹"))
		require.NoError(t, err)
		assert.Nil(t, reply)
		f.states.AssertCalled(t, "ExpireAll", mock.Anything, domain.ModeTRA, "U1", mock.Anything)
	})

	t.Run("stale states are ignored", func(t *testing.T) {
		f := newConversationFixture()
		stale := freshState(domain.ModeTRA)
		stale.Update = time.Now().Add(-2 * time.Hour)
		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{stale}, nil)
		f.states.On("FindActive", mock.Anything, domain.ModeTHSR, "U1", mock.Anything).
			Return([]*domain.QuestionState{}, nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent("新竹"))
		require.NoError(t, err)
		assert.Nil(t, reply)
		f.states.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("TRA state wins over THSR when both networks checked", func(t *testing.T) {
		f := newConversationFixture()
		st := freshState(domain.ModeTRA)
		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{st}, nil)
		f.states.On("Save", mock.Anything, st).Return(nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent("新竹"))
		require.NoError(t, err)
		require.NotNil(t, reply)
		f.states.AssertNotCalled(t, "FindActive", mock.Anything, domain.ModeTHSR, "U1", mock.Anything)
	})
}

func TestConversationUseCase_ShowMore(t *testing.T) {
	ctx := context.Background()

	t.Run("show more replays the cached full list", func(t *testing.T) {
		f := newConversationFixture()
		st := freshState(domain.ModeTRA)
		st.DepartureStation = "新竹"
		st.DestinationStation = "高雄"
		dep := time.Date(2018, time.June, 2, 7, 0, 0, 0, time.Local)
		st.DepartureTime = &dep

		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{st}, nil)
		f.states.On("Save", mock.Anything, st).Return(nil)
		f.cache.On("Get", mock.Anything, "results:TRA:U1:").
			Return([]byte("0051 莒光 07:19→11:16"), nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent(usecase.TextShowMore))
		require.NoError(t, err)
		require.NotNil(t, reply)

		assert.Equal(t, domain.ReplyText, reply.Kind)
		assert.Equal(t, "0051 莒光 07:19→11:16", reply.Text)
		f.store.AssertNotCalled(t, "FindCandidates", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache miss re-runs the search for the full list", func(t *testing.T) {
		f := newConversationFixture()
		st := freshState(domain.ModeTRA)
		st.DepartureStation = "新竹"
		st.DestinationStation = "高雄"
		dep := time.Date(2018, time.June, 2, 7, 0, 0, 0, time.Local)
		st.DepartureTime = &dep

		f.states.On("FindActive", mock.Anything, domain.ModeTRA, "U1", mock.Anything).
			Return([]*domain.QuestionState{st}, nil)
		f.states.On("Save", mock.Anything, st).Return(nil)
		f.cache.On("Get", mock.Anything, "results:TRA:U1:").Return(nil, nil)
		f.cache.On("Set", mock.Anything, "results:TRA:U1:", mock.Anything, time.Hour).Return(nil)
		f.store.On("FindCandidates", mock.Anything, domain.ModeTRA, mock.Anything).
			Return([]*domain.Timetable{
				tratt(day(2018, time.June, 2), "51", "莒光",
					"新竹", 7, 19, 7, 19,
					"高雄", 11, 16, 11, 16),
			}, nil)

		reply, err := f.uc.HandleEvent(ctx, msgEvent(usecase.TextShowMore))
		require.NoError(t, err)
		require.NotNil(t, reply)

		assert.Equal(t, domain.ReplyText, reply.Kind)
		assert.Equal(t, "0051 莒光 07:19→11:16", reply.Text)
	})
}

func TestConversationUseCase_Activity(t *testing.T) {
	ctx := context.Background()
	gid := "G1"

	t.Run("follow is recorded", func(t *testing.T) {
		f := newConversationFixture()
		f.activity.On("RecordFollow", mock.Anything, "U1").Return(nil)

		reply, err := f.uc.HandleEvent(ctx, domain.Event{Kind: domain.EventFollow, UserID: "U1"})
		require.NoError(t, err)
		assert.Nil(t, reply)
		f.activity.AssertCalled(t, "RecordFollow", mock.Anything, "U1")
	})

	t.Run("unfollow is recorded", func(t *testing.T) {
		f := newConversationFixture()
		f.activity.On("RecordUnfollow", mock.Anything, "U1").Return(nil)

		_, err := f.uc.HandleEvent(ctx, domain.Event{Kind: domain.EventUnfollow, UserID: "U1"})
		require.NoError(t, err)
		f.activity.AssertCalled(t, "RecordUnfollow", mock.Anything, "U1")
	})

	t.Run("join and leave are recorded for groups", func(t *testing.T) {
		f := newConversationFixture()
		f.activity.On("RecordJoin", mock.Anything, gid).Return(nil)
		f.activity.On("RecordLeave", mock.Anything, gid).Return(nil)

		_, err := f.uc.HandleEvent(ctx, domain.Event{Kind: domain.EventJoin, GroupID: &gid})
		require.NoError(t, err)
		_, err = f.uc.HandleEvent(ctx, domain.Event{Kind: domain.EventLeave, GroupID: &gid})
		require.NoError(t, err)

		f.activity.AssertCalled(t, "RecordJoin", mock.Anything, gid)
		f.activity.AssertCalled(t, "RecordLeave", mock.Anything, gid)
	})
}
