package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rentals/internal/line"
	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/service"
)

type fakeAnalytics struct {
	vacant    []model.VacantRoom
	incomeErr error
}

func (f *fakeAnalytics) CurrentPeriod() (int, int) { return 2024, 3 }

func (f *fakeAnalytics) MonthlyIncome(context.Context, int, int) (*model.MonthlyIncome, error) {
	if f.incomeErr != nil {
		return nil, f.incomeErr
	}
	return &model.MonthlyIncome{
		Year: 2024, Month: 3, Total: 16000,
		ByBuilding: []model.BuildingIncome{{BuildingName: "Baan Suan", Total: 16000}},
	}, nil
}

func (f *fakeAnalytics) CollectionRate(context.Context, int, int) (*model.CollectionReport, error) {
	return &model.CollectionReport{Expected: 24000, Collected: 16000, Rate: 67}, nil
}

func (f *fakeAnalytics) VacantRooms(context.Context) ([]model.VacantRoom, error) {
	return f.vacant, nil
}

type fakeAssistant struct{}

func (fakeAssistant) MonthlySummary(context.Context, int, int) (*service.AssistantResponse, error) {
	return &service.AssistantResponse{Content: "summary text", Fallback: true}, nil
}

func (fakeAssistant) DetectAnomalies(context.Context) (*service.AssistantResponse, error) {
	return &service.AssistantResponse{Content: "anomaly text"}, nil
}

func (fakeAssistant) ExpiryReminder(context.Context) (*service.AssistantResponse, error) {
	return &service.AssistantResponse{Content: "expiry text"}, nil
}

type recordingReplier struct {
	replies map[string]string
	err     error
}

func (r *recordingReplier) ReplyText(_ context.Context, token, text string) error {
	if r.replies == nil {
		r.replies = map[string]string{}
	}
	r.replies[token] = text
	return r.err
}

func textEvent(userID, token, text string) line.Event {
	return line.Event{
		Type:       line.EventTypeMessage,
		ReplyToken: token,
		Source:     line.Source{Type: "user", UserID: userID},
		Message:    &line.EventMessage{Type: line.MessageTypeText, Text: text},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{"รายได้เดือนนี้", CommandIncome},
		{"  INCOME please ", CommandIncome},
		{"ห้องว่าง", CommandVacant},
		{"Vacant", CommandVacant},
		{"ช่วย", CommandHelp},
		{"?", CommandHelp},
		{"สรุปเดือนนี้", CommandSummary},
		{"ปรับค่าเช่า", CommandAdvice},
		{"hello", CommandUnknown},
		{"", CommandUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}

func TestRespond(t *testing.T) {
	analytics := &fakeAnalytics{vacant: []model.VacantRoom{{RoomNumber: "102", BuildingName: "Baan Suan", BaseRentTHB: 7500}}}
	b := New(analytics, fakeAssistant{}, &recordingReplier{}, []string{"Uowner"}, zerolog.Nop())
	ctx := context.Background()

	t.Run("stranger is refused", func(t *testing.T) {
		text, ok := b.Respond(ctx, textEvent("Ustranger", "rt", "รายได้"))
		require.True(t, ok)
		assert.Equal(t, unauthorizedText, text)
	})

	t.Run("follow gets greeting", func(t *testing.T) {
		text, ok := b.Respond(ctx, line.Event{Type: line.EventTypeFollow, ReplyToken: "rt"})
		require.True(t, ok)
		assert.Equal(t, greetingText, text)
	})

	t.Run("sticker is ignored", func(t *testing.T) {
		_, ok := b.Respond(ctx, line.Event{Type: line.EventTypeMessage, Message: &line.EventMessage{Type: "sticker"}})
		assert.False(t, ok)
	})

	t.Run("income", func(t *testing.T) {
		text, _ := b.Respond(ctx, textEvent("Uowner", "rt", "รายได้"))
		assert.Contains(t, text, "Baan Suan: ฿16,000")
		assert.Contains(t, text, "รอชำระ: ฿8,000")
		assert.Contains(t, text, "67%")
	})

	t.Run("vacant", func(t *testing.T) {
		text, _ := b.Respond(ctx, textEvent("Uowner", "rt", "ห้องว่าง"))
		assert.Contains(t, text, "ห้องว่าง (1 ห้อง)")
		assert.Contains(t, text, "Baan Suan 102 - ฿7,500/เดือน")
	})

	t.Run("summary", func(t *testing.T) {
		text, _ := b.Respond(ctx, textEvent("Uowner", "rt", "สรุป"))
		assert.Equal(t, "summary text", text)
	})

	t.Run("advice", func(t *testing.T) {
		text, _ := b.Respond(ctx, textEvent("Uowner", "rt", "แนะนำ"))
		assert.Contains(t, text, "anomaly text")
		assert.Contains(t, text, "expiry text")
	})

	t.Run("unknown", func(t *testing.T) {
		text, _ := b.Respond(ctx, textEvent("Uowner", "rt", "hello"))
		assert.Equal(t, unknownText, text)
	})
}

func TestRespondReportsFailure(t *testing.T) {
	b := New(&fakeAnalytics{incomeErr: errors.New("db down")}, fakeAssistant{}, &recordingReplier{}, []string{"Uowner"}, zerolog.Nop())
	text, ok := b.Respond(context.Background(), textEvent("Uowner", "rt", "income"))
	require.True(t, ok)
	assert.Contains(t, text, "เกิดข้อผิดพลาด")
}

func TestHandleEventsReplies(t *testing.T) {
	replier := &recordingReplier{err: errors.New("expired token")}
	b := New(&fakeAnalytics{}, fakeAssistant{}, replier, []string{"Uowner"}, zerolog.Nop())

	b.HandleEvents(context.Background(), []line.Event{
		textEvent("Uowner", "rt-1", "help"),
		{Type: line.EventTypeFollow, ReplyToken: "rt-2"},
		{Type: "unfollow", ReplyToken: "rt-3"},
	})

	assert.Equal(t, helpText, replier.replies["rt-1"])
	assert.Equal(t, greetingText, replier.replies["rt-2"])
	assert.NotContains(t, replier.replies, "rt-3")
}
