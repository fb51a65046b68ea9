package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/money"
	"github.com/nurpe/rentals/internal/repository"
)

// NotificationService pushes digests and reminders over LINE. Every
// operation returns how many pushes succeeded; failed pushes are logged.
type NotificationService struct {
	store     *repository.Store
	analytics *AnalyticsService
	messenger Messenger
	owners    []string
	dueDay    int
	opts      options
}

func NewNotificationService(
	store *repository.Store,
	analytics *AnalyticsService,
	messenger Messenger,
	owners []string,
	dueDay int,
	opts ...Option,
) *NotificationService {
	return &NotificationService{
		store:     store,
		analytics: analytics,
		messenger: messenger,
		owners:    owners,
		dueDay:    dueDay,
		opts:      newOptions(opts),
	}
}

// NotifyExpiringContracts sends the expiring-contracts digest to every owner.
func (s *NotificationService) NotifyExpiringContracts(ctx context.Context) (int, error) {
	expiring, err := s.analytics.ExpiringContracts(ctx)
	if err != nil {
		return 0, err
	}
	if len(expiring) == 0 {
		return 0, nil
	}

	lines := make([]string, 0, len(expiring))
	for _, c := range expiring {
		lines = append(lines, fmt.Sprintf("• %s %s - %s (%d วัน)", c.BuildingName, c.RoomNumber, c.TenantName, c.DaysLeft))
	}
	text := fmt.Sprintf("⚠️ สัญญาใกล้หมดอายุ (%d สัญญา)\n\n%s\n\n💡 โปรดติดต่อผู้เช่าเพื่อต่อสัญญา",
		len(expiring), strings.Join(lines, "\n"))
	return s.pushOwners(ctx, "expiring_digest", text), nil
}

// NotifyOverduePayments sends the overdue digest with the outstanding total.
func (s *NotificationService) NotifyOverduePayments(ctx context.Context) (int, error) {
	overdue, err := s.store.Payments.ListOverdue(ctx)
	if err != nil {
		return 0, err
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	now := s.opts.now()
	total := 0.0
	lines := make([]string, 0, len(overdue))
	for _, p := range overdue {
		outstanding := p.Outstanding()
		total += outstanding
		days := int(math.Ceil(now.Sub(p.DueDate).Hours() / 24))
		if days < 0 {
			days = 0
		}
		lines = append(lines, fmt.Sprintf("• %s - %s (%d วัน)", roomLabel(p.Contract), money.THB(outstanding), days))
	}
	text := fmt.Sprintf("🔴 ค่าเช่าค้างชำระ (%d รายการ)\n\nรวม: %s\n\n%s\n\n💡 โปรดติดตามเก็บเงิน",
		len(overdue), money.THB(total), strings.Join(lines, "\n"))
	return s.pushOwners(ctx, "overdue_digest", text), nil
}

// SendRentDueReminder reminds the tenant of one contract, when the tenant
// has linked a LINE account.
func (s *NotificationService) SendRentDueReminder(ctx context.Context, contractID uuid.UUID) (int, error) {
	contract, err := s.store.Contracts.GetWithParties(ctx, contractID)
	if err != nil {
		return 0, storeError(err, "contract")
	}
	if contract.Tenant == nil || contract.Tenant.LineUserID == nil {
		return 0, nil
	}
	text := fmt.Sprintf("🔔 แจ้งเตือนค่าเช่า\n\nห้อง %s\nจำนวน %s\n\nกรุณาชำระภายในวันที่ %d ของเดือน\nขอบคุณค่ะ 🙏",
		roomLabel(contract), money.THB(contract.RentAmountTHB), s.dueDay)
	return s.push(ctx, "rent_due", *contract.Tenant.LineUserID, text), nil
}

// NotifyContractRenewal announces a renewal to owners and the tenant.
// contractID may name either the renewed contract or its successor.
func (s *NotificationService) NotifyContractRenewal(ctx context.Context, contractID uuid.UUID) (int, error) {
	contract, err := s.store.Contracts.GetWithParties(ctx, contractID)
	if err != nil {
		return 0, storeError(err, "contract")
	}
	if contract.Status == model.ContractStatusRenewed {
		successor, err := s.store.Contracts.GetSuccessor(ctx, contractID)
		if err != nil {
			return 0, storeError(err, "renewal")
		}
		contract = successor
	}

	term := fmt.Sprintf("%s - %s", money.ThaiDate(contract.StartDate), money.ThaiDate(contract.EndDate))
	tenantName := ""
	if contract.Tenant != nil {
		tenantName = contract.Tenant.Name
	}
	ownerText := fmt.Sprintf("✅ ต่อสัญญาสำเร็จ\n\nห้อง %s\nผู้เช่า: %s\nค่าเช่า: %s/เดือน\nระยะเวลา: %s",
		roomLabel(contract), tenantName, money.THB(contract.RentAmountTHB), term)
	sent := s.pushOwners(ctx, "renewal", ownerText)

	if contract.Tenant != nil && contract.Tenant.LineUserID != nil {
		tenantText := fmt.Sprintf("🎉 ต่อสัญญาเรียบร้อยแล้ว!\n\nห้อง %s\nสัญญาใหม่: %s\n\nขอบคุณที่ไว้วางใจค่ะ 🙏",
			roomLabel(contract), term)
		sent += s.push(ctx, "renewal", *contract.Tenant.LineUserID, tenantText)
	}
	return sent, nil
}

// NotifyStatusChange tells owners a contract was signed or terminated.
func (s *NotificationService) NotifyStatusChange(ctx context.Context, event model.ContractEvent) (int, error) {
	var headline string
	switch event.To {
	case model.ContractStatusSigned:
		headline = "✍️ สัญญาลงนามครบแล้ว"
	case model.ContractStatusTerminated:
		headline = "🚪 สัญญาสิ้นสุดแล้ว"
	default:
		return 0, nil
	}
	contract, err := s.store.Contracts.GetWithParties(ctx, event.ContractID)
	if err != nil {
		return 0, storeError(err, "contract")
	}
	text := fmt.Sprintf("%s\n\nห้อง %s", headline, roomLabel(contract))
	if contract.Tenant != nil {
		text += "\nผู้เช่า: " + contract.Tenant.Name
	}
	if event.Reason != "" {
		text += "\nเหตุผล: " + event.Reason
	}
	return s.pushOwners(ctx, "status_change", text), nil
}

// HandleContractEvent routes a queued contract event to its notice.
func (s *NotificationService) HandleContractEvent(ctx context.Context, event model.ContractEvent) error {
	var err error
	switch event.To {
	case model.ContractStatusRenewed:
		_, err = s.NotifyContractRenewal(ctx, event.ContractID)
	case model.ContractStatusSigned, model.ContractStatusTerminated:
		_, err = s.NotifyStatusChange(ctx, event)
	}
	return err
}

func (s *NotificationService) pushOwners(ctx context.Context, kind, text string) int {
	sent := 0
	for _, owner := range s.owners {
		sent += s.push(ctx, kind, owner, text)
	}
	return sent
}

func (s *NotificationService) push(ctx context.Context, kind, to, text string) int {
	if s.messenger == nil {
		return 0
	}
	if err := s.messenger.PushText(ctx, to, text); err != nil {
		s.opts.log.Warn().Err(err).Str("kind", kind).Str("to", to).Msg("line push failed")
		return 0
	}
	return 1
}

func roomLabel(c *model.Contract) string {
	if c == nil || c.Room == nil {
		return "-"
	}
	if c.Room.Building == nil {
		return c.Room.RoomNumber
	}
	return c.Room.Building.Name + " " + c.Room.RoomNumber
}
