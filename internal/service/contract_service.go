package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
)

const triggeredBySystem = "system"

// EventPublisher receives committed contract status changes.
type EventPublisher interface {
	PublishContractEvent(ctx context.Context, event model.ContractEvent) error
}

type ContractService struct {
	store  *repository.Store
	events EventPublisher
	opts   options
}

type CreateContractInput struct {
	RoomID        uuid.UUID
	TenantID      uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	RentAmountTHB float64
	DepositTHB    float64
	Notes         *string
}

type UpdateContractInput struct {
	StartDate     *time.Time
	EndDate       *time.Time
	RentAmountTHB *float64
	DepositTHB    *float64
	Notes         *string
}

type RenewContractInput struct {
	StartDate     time.Time
	EndDate       time.Time
	RentAmountTHB float64
	DepositTHB    float64
	Notes         *string
}

type TransitionInput struct {
	ContractID  uuid.UUID
	Target      model.ContractStatus
	Reason      string
	TriggeredBy string
}

// NewContractService builds the lease lifecycle service. events may be nil.
func NewContractService(store *repository.Store, events EventPublisher, opts ...Option) *ContractService {
	return &ContractService{
		store:  store,
		events: events,
		opts:   newOptions(opts),
	}
}

func (s *ContractService) Create(ctx context.Context, input CreateContractInput) (*model.Contract, error) {
	if _, err := s.store.Rooms.GetByID(ctx, input.RoomID); err != nil {
		return nil, storeError(err, "room")
	}
	if _, err := s.store.Tenants.GetByID(ctx, input.TenantID); err != nil {
		return nil, storeError(err, "tenant")
	}
	open, err := s.store.Contracts.CountOpenForRoom(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, fmt.Errorf("%w: room already has an active or pending contract", ErrConflict)
	}

	startDate := dateOnly(input.StartDate)
	endDate := dateOnly(input.EndDate)
	if err := validateTerms(startDate, endDate, input.RentAmountTHB, input.DepositTHB); err != nil {
		return nil, err
	}

	contract := &model.Contract{
		RoomID:        input.RoomID,
		TenantID:      input.TenantID,
		StartDate:     startDate,
		EndDate:       endDate,
		RentAmountTHB: input.RentAmountTHB,
		DepositTHB:    input.DepositTHB,
		Status:        model.ContractStatusDraft,
		Version:       1,
		Notes:         trimmedOrNil(input.Notes),
	}
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		if err := tx.Contracts.Create(ctx, contract); err != nil {
			return storeError(err, "contract")
		}
		return tx.Contracts.AddTransition(ctx, &model.ContractStateTransition{
			ContractID:  contract.ID,
			FromState:   model.ContractStatusDraft,
			ToState:     model.ContractStatusDraft,
			Reason:      strPtr("Contract created"),
			TriggeredBy: triggeredBySystem,
		})
	})
	if err != nil {
		return nil, err
	}
	s.opts.log.Info().Str("contract_id", contract.ID.String()).Str("room_id", contract.RoomID.String()).Msg("contract created")
	return contract, nil
}

func (s *ContractService) Update(ctx context.Context, id uuid.UUID, input UpdateContractInput) (*model.Contract, error) {
	contract, err := s.store.Contracts.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	if contract.Status != model.ContractStatusDraft {
		return nil, fmt.Errorf("%w: only draft contracts can be edited", ErrInvalidInput)
	}

	if input.StartDate != nil {
		contract.StartDate = dateOnly(*input.StartDate)
	}
	if input.EndDate != nil {
		contract.EndDate = dateOnly(*input.EndDate)
	}
	if input.RentAmountTHB != nil {
		contract.RentAmountTHB = *input.RentAmountTHB
	}
	if input.DepositTHB != nil {
		contract.DepositTHB = *input.DepositTHB
	}
	if input.Notes != nil {
		contract.Notes = trimmedOrNil(input.Notes)
	}
	if err := validateTerms(contract.StartDate, contract.EndDate, contract.RentAmountTHB, contract.DepositTHB); err != nil {
		return nil, err
	}

	if err := s.store.Contracts.Save(ctx, contract); err != nil {
		return nil, storeError(err, "contract")
	}
	return contract, nil
}

// TransitionStatus moves the contract along one edge of the lifecycle graph.
// The status change, its audit row and the room side effect commit together.
func (s *ContractService) TransitionStatus(ctx context.Context, input TransitionInput) (*model.Contract, error) {
	if !input.Target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Target)
	}
	contract, err := s.store.Contracts.GetByID(ctx, input.ContractID)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	if !model.CanTransitionContract(contract.Status, input.Target) {
		return nil, invalidTransition(contract.Status, input.Target)
	}

	var event model.ContractEvent
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		locked, err := tx.Contracts.GetForUpdate(ctx, input.ContractID)
		if err != nil {
			return storeError(err, "contract")
		}
		if !model.CanTransitionContract(locked.Status, input.Target) {
			return invalidTransition(locked.Status, input.Target)
		}
		event, err = applyTransition(ctx, tx, locked, input.Target, input.Reason, input.TriggeredBy, s.opts.now())
		if err != nil {
			return err
		}
		contract = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.log.Info().
		Str("contract_id", contract.ID.String()).
		Str("from", string(event.From)).
		Str("to", string(event.To)).
		Msg("contract status changed")
	publishEvents(ctx, s.events, s.opts, event)
	return contract, nil
}

func (s *ContractService) Renew(ctx context.Context, previousID uuid.UUID, input RenewContractInput) (*model.Contract, error) {
	previous, err := s.store.Contracts.GetByID(ctx, previousID)
	if err != nil {
		return nil, storeError(err, "previous contract")
	}
	if previous.Status != model.ContractStatusActive && previous.Status != model.ContractStatusExpiring {
		return nil, fmt.Errorf("%w: can only renew active or expiring contracts, contract is %s", ErrInvalidState, previous.Status)
	}

	startDate := dateOnly(input.StartDate)
	endDate := dateOnly(input.EndDate)
	if err := validateTerms(startDate, endDate, input.RentAmountTHB, input.DepositTHB); err != nil {
		return nil, err
	}

	var (
		renewed *model.Contract
		event   model.ContractEvent
	)
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		locked, err := tx.Contracts.GetForUpdate(ctx, previousID)
		if err != nil {
			return storeError(err, "previous contract")
		}
		if locked.Status != model.ContractStatusActive && locked.Status != model.ContractStatusExpiring {
			return fmt.Errorf("%w: can only renew active or expiring contracts, contract is %s", ErrInvalidState, locked.Status)
		}
		event, err = applyTransition(ctx, tx, locked, model.ContractStatusRenewed, "Contract renewed", triggeredBySystem, s.opts.now())
		if err != nil {
			return err
		}

		renewed = &model.Contract{
			RoomID:        locked.RoomID,
			TenantID:      locked.TenantID,
			StartDate:     startDate,
			EndDate:       endDate,
			RentAmountTHB: input.RentAmountTHB,
			DepositTHB:    input.DepositTHB,
			Status:        model.ContractStatusDraft,
			Version:       locked.Version + 1,
			PreviousID:    &locked.ID,
			Notes:         trimmedOrNil(input.Notes),
		}
		if err := tx.Contracts.Create(ctx, renewed); err != nil {
			return storeError(err, "contract")
		}
		return tx.Contracts.AddTransition(ctx, &model.ContractStateTransition{
			ContractID:  renewed.ID,
			FromState:   model.ContractStatusDraft,
			ToState:     model.ContractStatusDraft,
			Reason:      strPtr(fmt.Sprintf("Renewed from contract v%d", locked.Version)),
			TriggeredBy: triggeredBySystem,
		})
	})
	if err != nil {
		return nil, err
	}

	s.opts.log.Info().
		Str("previous_id", previousID.String()).
		Str("contract_id", renewed.ID.String()).
		Int("version", renewed.Version).
		Msg("contract renewed")
	publishEvents(ctx, s.events, s.opts, event)
	return renewed, nil
}

func (s *ContractService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Atomic(ctx, func(tx *repository.Store) error {
		contract, err := tx.Contracts.GetForUpdate(ctx, id)
		if err != nil {
			return storeError(err, "contract")
		}
		if contract.Status != model.ContractStatusDraft {
			return fmt.Errorf("%w: only draft contracts can be deleted", ErrInvalidState)
		}
		return storeError(tx.Contracts.Delete(ctx, id), "contract")
	})
}

func (s *ContractService) FindAll(ctx context.Context, filter repository.ContractFilter) ([]model.Contract, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *filter.Status)
	}
	return s.store.Contracts.List(ctx, filter)
}

func (s *ContractService) FindByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.store.Contracts.GetDetailed(ctx, id)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	return contract, nil
}

// FindExpiring returns billable contracts ending within days from today.
func (s *ContractService) FindExpiring(ctx context.Context, days int) ([]model.Contract, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days must not be negative", ErrInvalidInput)
	}
	today := s.opts.today()
	return s.store.Contracts.ListEndingBetween(ctx, today, today.AddDate(0, 0, days))
}

func (s *ContractService) SetPdfURL(ctx context.Context, id uuid.UUID, url string) error {
	return storeError(s.store.Contracts.SetPdfURL(ctx, id, url), "contract")
}

// MarkExpiring moves ACTIVE contracts ending within days to EXPIRING. It
// returns how many contracts moved; individual failures are logged.
func (s *ContractService) MarkExpiring(ctx context.Context, days int) (int, error) {
	contracts, err := s.FindExpiring(ctx, days)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, c := range contracts {
		if c.Status != model.ContractStatusActive {
			continue
		}
		_, err := s.TransitionStatus(ctx, TransitionInput{
			ContractID:  c.ID,
			Target:      model.ContractStatusExpiring,
			Reason:      fmt.Sprintf("Contract ends on %s", c.EndDate.Format("2006-01-02")),
			TriggeredBy: "scheduler",
		})
		if err != nil {
			s.opts.log.Warn().Err(err).Str("contract_id", c.ID.String()).Msg("mark expiring failed")
			continue
		}
		moved++
	}
	return moved, nil
}

// applyTransition writes the status change, its audit row and the room side
// effect through tx. Callers check the edge against the lifecycle graph.
func applyTransition(
	ctx context.Context,
	tx *repository.Store,
	contract *model.Contract,
	to model.ContractStatus,
	reason, triggeredBy string,
	at time.Time,
) (model.ContractEvent, error) {
	from := contract.Status
	if reason == "" {
		reason = fmt.Sprintf("Status changed to %s", to)
	}
	if triggeredBy == "" {
		triggeredBy = triggeredBySystem
	}

	ok, err := tx.Contracts.CompareAndSetStatus(ctx, contract.ID, from, to)
	if err != nil {
		// uq_contracts_open_room: another contract on the room is already open.
		return model.ContractEvent{}, storeError(err, "open contract for this room")
	}
	if !ok {
		return model.ContractEvent{}, fmt.Errorf("%w: contract status changed concurrently", ErrInvalidTransition)
	}
	err = tx.Contracts.AddTransition(ctx, &model.ContractStateTransition{
		ContractID:  contract.ID,
		FromState:   from,
		ToState:     to,
		Reason:      &reason,
		TriggeredBy: triggeredBy,
	})
	if err != nil {
		return model.ContractEvent{}, err
	}

	switch to {
	case model.ContractStatusActive:
		err = tx.Rooms.UpdateStatus(ctx, contract.RoomID, model.RoomStatusOccupied)
	case model.ContractStatusTerminated:
		err = tx.Rooms.UpdateStatus(ctx, contract.RoomID, model.RoomStatusVacant)
	}
	if err != nil {
		return model.ContractEvent{}, storeError(err, "room")
	}

	contract.Status = to
	return model.ContractEvent{
		ContractID:  contract.ID,
		From:        from,
		To:          to,
		Reason:      reason,
		TriggeredBy: triggeredBy,
		OccurredAt:  at.UTC(),
	}, nil
}

// publishEvents is best-effort: the change is already committed.
func publishEvents(ctx context.Context, publisher EventPublisher, opts options, events ...model.ContractEvent) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		if err := publisher.PublishContractEvent(ctx, event); err != nil {
			opts.log.Warn().Err(err).Str("contract_id", event.ContractID.String()).Msg("publish contract event failed")
		}
	}
}

func invalidTransition(from, to model.ContractStatus) error {
	return fmt.Errorf("%w: cannot move contract from %s to %s", ErrInvalidTransition, from, to)
}

func validateTerms(startDate, endDate time.Time, rent, deposit float64) error {
	if startDate.IsZero() || endDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrInvalidInput)
	}
	if !endDate.After(startDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidInput)
	}
	if rent <= 0 {
		return fmt.Errorf("%w: rent amount must be positive", ErrInvalidInput)
	}
	if deposit < 0 {
		return fmt.Errorf("%w: deposit cannot be negative", ErrInvalidInput)
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
