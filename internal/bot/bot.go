// Package bot answers owner commands sent over LINE chat.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nurpe/rentals/internal/line"
	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/money"
	"github.com/nurpe/rentals/internal/service"
)

type Command string

const (
	CommandIncome  Command = "income"
	CommandVacant  Command = "vacant"
	CommandHelp    Command = "help"
	CommandSummary Command = "summary"
	CommandAdvice  Command = "advice"
	CommandUnknown Command = ""
)

// Aliases are tried in this order; the first command with an alias contained
// in the message wins.
var commandAliases = []struct {
	command Command
	aliases []string
}{
	{CommandIncome, []string{"รายได้", "รายได้เดือนนี้", "income", "เงิน"}},
	{CommandVacant, []string{"ห้องว่าง", "vacant", "ว่าง"}},
	{CommandHelp, []string{"help", "ช่วย", "คำสั่ง", "?"}},
	{CommandSummary, []string{"สรุป", "summary", "สรุปเดือนนี้"}},
	{CommandAdvice, []string{"แนะนำ", "ปรับค่าเช่า", "advice"}},
}

const (
	unauthorizedText = "❌ คุณไม่มีสิทธิ์ใช้งานระบบนี้"
	unknownText      = "🤔 ไม่เข้าใจคำสั่ง\n\nลองพิมพ์:\n• รายได้เดือนนี้\n• ห้องว่าง\n• สรุป\n• ช่วย"
	greetingText     = "👋 สวัสดีค่ะ! ยินดีต้อนรับสู่ระบบจัดการการเช่า\n\nพิมพ์ \"ช่วย\" เพื่อดูคำสั่งที่ใช้ได้"
	helpText         = "📋 คำสั่งที่ใช้ได้:\n\n" +
		"💰 รายได้เดือนนี้\n→ ดูสรุปรายได้แบบละเอียด\n\n" +
		"🏠 ห้องว่าง\n→ ดูห้องที่ว่างอยู่\n\n" +
		"📊 สรุป\n→ ให้ AI สรุปภาพรวมเดือนนี้\n\n" +
		"🤖 แนะนำ\n→ ให้ AI วิเคราะห์ความผิดปกติและแจ้งเตือน\n\n" +
		"❓ ช่วย\n→ แสดงคำสั่งทั้งหมด"
)

// Parse maps free text onto a command, ignoring case and surrounding space.
func Parse(text string) Command {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return CommandUnknown
	}
	for _, entry := range commandAliases {
		for _, alias := range entry.aliases {
			if strings.Contains(text, strings.ToLower(alias)) {
				return entry.command
			}
		}
	}
	return CommandUnknown
}

type Analytics interface {
	CurrentPeriod() (int, int)
	MonthlyIncome(ctx context.Context, year, month int) (*model.MonthlyIncome, error)
	CollectionRate(ctx context.Context, year, month int) (*model.CollectionReport, error)
	VacantRooms(ctx context.Context) ([]model.VacantRoom, error)
}

type Assistant interface {
	MonthlySummary(ctx context.Context, year, month int) (*service.AssistantResponse, error)
	DetectAnomalies(ctx context.Context) (*service.AssistantResponse, error)
	ExpiryReminder(ctx context.Context) (*service.AssistantResponse, error)
}

type Replier interface {
	ReplyText(ctx context.Context, replyToken, text string) error
}

type Bot struct {
	analytics Analytics
	assistant Assistant
	replier   Replier
	owners    map[string]struct{}
	log       zerolog.Logger
}

func New(analytics Analytics, assistant Assistant, replier Replier, ownerIDs []string, log zerolog.Logger) *Bot {
	owners := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}
	return &Bot{
		analytics: analytics,
		assistant: assistant,
		replier:   replier,
		owners:    owners,
		log:       log,
	}
}

func (b *Bot) IsOwner(userID string) bool {
	_, ok := b.owners[userID]
	return userID != "" && ok
}

// HandleEvents answers each text message and follow event through the reply
// API. One failing event does not stop the rest.
func (b *Bot) HandleEvents(ctx context.Context, events []line.Event) {
	for _, event := range events {
		text, ok := b.Respond(ctx, event)
		if !ok || event.ReplyToken == "" {
			continue
		}
		if err := b.replier.ReplyText(ctx, event.ReplyToken, text); err != nil {
			b.log.Warn().Err(err).Str("user_id", event.Source.UserID).Msg("line reply failed")
		}
	}
}

// Respond computes the reply for one event. ok is false for events that get
// no reply.
func (b *Bot) Respond(ctx context.Context, event line.Event) (string, bool) {
	switch {
	case event.Type == line.EventTypeFollow:
		return greetingText, true
	case event.Type == line.EventTypeMessage && event.Message != nil && event.Message.Type == line.MessageTypeText:
	default:
		return "", false
	}

	if !b.IsOwner(event.Source.UserID) {
		return unauthorizedText, true
	}

	command := Parse(event.Message.Text)
	b.log.Debug().Str("command", string(command)).Str("user_id", event.Source.UserID).Msg("line command")

	text, err := b.run(ctx, command)
	if err != nil {
		b.log.Error().Err(err).Str("command", string(command)).Msg("line command failed")
		return "❌ เกิดข้อผิดพลาด กรุณาลองใหม่อีกครั้ง", true
	}
	return text, true
}

func (b *Bot) run(ctx context.Context, command Command) (string, error) {
	switch command {
	case CommandIncome:
		return b.income(ctx)
	case CommandVacant:
		return b.vacant(ctx)
	case CommandHelp:
		return helpText, nil
	case CommandSummary:
		year, month := b.analytics.CurrentPeriod()
		resp, err := b.assistant.MonthlySummary(ctx, year, month)
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	case CommandAdvice:
		anomaly, err := b.assistant.DetectAnomalies(ctx)
		if err != nil {
			return "", err
		}
		expiry, err := b.assistant.ExpiryReminder(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🤖 AI วิเคราะห์ระบบ:\n\n%s\n\n%s", anomaly.Content, expiry.Content), nil
	}
	return unknownText, nil
}

func (b *Bot) income(ctx context.Context) (string, error) {
	year, month := b.analytics.CurrentPeriod()
	income, err := b.analytics.MonthlyIncome(ctx, year, month)
	if err != nil {
		return "", err
	}
	collection, err := b.analytics.CollectionRate(ctx, year, month)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 รายได้ %s\n\n", money.Period(year, month))
	for _, building := range income.ByBuilding {
		fmt.Fprintf(&sb, "🏢 %s: %s\n", building.BuildingName, money.THB(building.Total))
	}
	fmt.Fprintf(&sb, "\nรวม: %s\n", money.THB(income.Total))
	fmt.Fprintf(&sb, "✅ เก็บแล้ว: %s\n", money.THB(collection.Collected))
	pending := collection.Expected - collection.Collected
	if pending < 0 {
		pending = 0
	}
	fmt.Fprintf(&sb, "⏳ รอชำระ: %s\n", money.THB(pending))
	fmt.Fprintf(&sb, "📈 อัตราเก็บเงิน %d%%", collection.Rate)
	return sb.String(), nil
}

func (b *Bot) vacant(ctx context.Context) (string, error) {
	rooms, err := b.analytics.VacantRooms(ctx)
	if err != nil {
		return "", err
	}
	if len(rooms) == 0 {
		return "🎉 ไม่มีห้องว่าง ทุกห้องมีผู้เช่าแล้ว", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏠 ห้องว่าง (%d ห้อง)\n", len(rooms))
	for _, room := range rooms {
		fmt.Fprintf(&sb, "\n• %s %s - %s/เดือน", room.BuildingName, room.RoomNumber, money.THB(room.BaseRentTHB))
	}
	return sb.String(), nil
}
