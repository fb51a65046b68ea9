package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
)

const defaultPaymentDueDay = 5

type PaymentService struct {
	store  *repository.Store
	dueDay int
	opts   options
}

type CreatePaymentInput struct {
	ContractID  uuid.UUID
	PeriodYear  int
	PeriodMonth int
	AmountTHB   float64
	DueDate     *time.Time
	Notes       *string
}

type RecordPaymentInput struct {
	Amount   float64
	PaidDate *time.Time
	Notes    *string
}

type GenerateResult struct {
	Year    int `json:"year"`
	Month   int `json:"month"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// NewPaymentService builds the payment service. dueDay is the day of month
// rent falls due; zero means the 5th.
func NewPaymentService(store *repository.Store, dueDay int, opts ...Option) *PaymentService {
	if dueDay <= 0 {
		dueDay = defaultPaymentDueDay
	}
	return &PaymentService{store: store, dueDay: dueDay, opts: newOptions(opts)}
}

// GenerateMonthlyPayments creates the period's payment for every billable
// contract overlapping the month. Existing rows, including ones inserted
// concurrently, count as skipped.
func (s *PaymentService) GenerateMonthlyPayments(ctx context.Context, year, month int) (*GenerateResult, error) {
	if !validPeriod(year, month) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, year, month)
	}
	monthStart := model.FirstOfMonth(year, month)
	monthEnd := monthStart.AddDate(0, 1, -1)

	contracts, err := s.store.Contracts.ListBillableOverlapping(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{Year: year, Month: month}
	for _, contract := range contracts {
		exists, err := s.store.Payments.ExistsForPeriod(ctx, contract.ID, year, month)
		if err != nil {
			return result, err
		}
		if exists {
			result.Skipped++
			continue
		}

		err = s.store.Payments.Create(ctx, &model.Payment{
			ContractID:  contract.ID,
			PeriodYear:  year,
			PeriodMonth: month,
			AmountTHB:   contract.RentAmountTHB,
			DueDate:     s.dueDate(year, month),
			Status:      model.PaymentStatusPending,
		})
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			result.Skipped++
		case err != nil:
			return result, fmt.Errorf("create payment for contract %s: %w", contract.ID, err)
		default:
			result.Created++
		}
	}

	s.opts.log.Info().
		Int("year", year).
		Int("month", month).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("monthly payments generated")
	return result, nil
}

// AutoMarkOverdue moves unsettled payments whose due date has passed to
// OVERDUE.
func (s *PaymentService) AutoMarkOverdue(ctx context.Context) (int64, error) {
	count, err := s.store.Payments.MarkOverdueBefore(ctx, s.opts.now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.opts.log.Info().Int64("count", count).Msg("payments marked overdue")
	}
	return count, nil
}

func (s *PaymentService) RecordPayment(ctx context.Context, id uuid.UUID, input RecordPaymentInput) (*model.Payment, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	var payment *model.Payment
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		p, err := tx.Payments.GetForUpdate(ctx, id)
		if err != nil {
			return storeError(err, "payment")
		}
		if p.Status == model.PaymentStatusPaid || p.Status == model.PaymentStatusCancelled {
			return fmt.Errorf("%w: payment is already %s", ErrInvalidState, p.Status)
		}

		p.PaidTHB += input.Amount
		if p.PaidTHB >= p.AmountTHB {
			p.Status = model.PaymentStatusPaid
		} else {
			p.Status = model.PaymentStatusPartial
		}
		paidDate := s.opts.now().UTC()
		if input.PaidDate != nil {
			paidDate = input.PaidDate.UTC()
		}
		p.PaidDate = &paidDate
		if note := trimmedOrNil(input.Notes); note != nil {
			p.Notes = appendNote(p.Notes, *note)
		}

		if err := tx.Payments.Save(ctx, p); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.log.Info().
		Str("payment_id", payment.ID.String()).
		Float64("amount", input.Amount).
		Str("status", string(payment.Status)).
		Msg("payment recorded")
	return payment, nil
}

// Create adds a single PENDING payment outside the monthly run.
func (s *PaymentService) Create(ctx context.Context, input CreatePaymentInput) (*model.Payment, error) {
	if !validPeriod(input.PeriodYear, input.PeriodMonth) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, input.PeriodYear, input.PeriodMonth)
	}
	if input.AmountTHB <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if _, err := s.store.Contracts.GetByID(ctx, input.ContractID); err != nil {
		return nil, storeError(err, "contract")
	}

	dueDate := s.dueDate(input.PeriodYear, input.PeriodMonth)
	if input.DueDate != nil {
		dueDate = dateOnly(*input.DueDate)
	}
	payment := &model.Payment{
		ContractID:  input.ContractID,
		PeriodYear:  input.PeriodYear,
		PeriodMonth: input.PeriodMonth,
		AmountTHB:   input.AmountTHB,
		DueDate:     dueDate,
		Status:      model.PaymentStatusPending,
		Notes:       trimmedOrNil(input.Notes),
	}
	if err := s.store.Payments.Create(ctx, payment); err != nil {
		return nil, storeError(err, "payment for this period")
	}
	return payment, nil
}

func (s *PaymentService) FindAll(ctx context.Context, filter repository.PaymentFilter) ([]model.Payment, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *filter.Status)
	}
	return s.store.Payments.List(ctx, filter)
}

func (s *PaymentService) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.store.Payments.GetWithContract(ctx, id)
	if err != nil {
		return nil, storeError(err, "payment")
	}
	return payment, nil
}

func (s *PaymentService) MarkOverdue(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return s.setStatus(ctx, id, model.PaymentStatusOverdue)
}

func (s *PaymentService) Cancel(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return s.setStatus(ctx, id, model.PaymentStatusCancelled)
}

func (s *PaymentService) setStatus(ctx context.Context, id uuid.UUID, to model.PaymentStatus) (*model.Payment, error) {
	payment, err := s.store.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "payment")
	}
	if !model.CanTransitionPayment(payment.Status, to) {
		return nil, fmt.Errorf("%w: cannot move payment from %s to %s", ErrInvalidTransition, payment.Status, to)
	}
	ok, err := s.store.Payments.CompareAndSetStatus(ctx, id, payment.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: payment status changed concurrently", ErrInvalidTransition)
	}
	payment.Status = to
	return payment, nil
}

// dueDate clamps the configured day to the last day of short months.
func (s *PaymentService) dueDate(year, month int) time.Time {
	day := s.dueDay
	if last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func appendNote(existing *string, note string) *string {
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return &note
	}
	joined := *existing + "\n" + note
	return &joined
}
