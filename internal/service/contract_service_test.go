package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/testutil"
)

func TestContractCreate(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewContractService(store, nil, at(2024, time.March, 1)...)
	ctx := context.Background()

	notes := "  corner unit  "
	contract, err := svc.Create(ctx, CreateContractInput{
		RoomID:        fx.Room.ID,
		TenantID:      fx.Tenant.ID,
		StartDate:     testutil.Date(2024, time.April, 1),
		EndDate:       testutil.Date(2025, time.March, 31),
		RentAmountTHB: 8000,
		DepositTHB:    16000,
		Notes:         &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, contract.Status)
	assert.Equal(t, 1, contract.Version)
	require.NotNil(t, contract.Notes)
	assert.Equal(t, "corner unit", *contract.Notes)

	detailed, err := svc.FindByID(ctx, contract.ID)
	require.NoError(t, err)
	require.Len(t, detailed.Transitions, 1)
	assert.Equal(t, model.ContractStatusDraft, detailed.Transitions[0].ToState)
}

func TestContractCreateValidation(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewContractService(store, nil)
	ctx := context.Background()

	valid := CreateContractInput{
		RoomID:        fx.Room.ID,
		TenantID:      fx.Tenant.ID,
		StartDate:     testutil.Date(2024, time.April, 1),
		EndDate:       testutil.Date(2025, time.March, 31),
		RentAmountTHB: 8000,
	}
	tests := []struct {
		name   string
		mutate func(*CreateContractInput)
		want   error
	}{
		{name: "end before start", mutate: func(in *CreateContractInput) { in.EndDate = in.StartDate.AddDate(0, 0, -1) }, want: ErrInvalidInput},
		{name: "end equals start", mutate: func(in *CreateContractInput) { in.EndDate = in.StartDate }, want: ErrInvalidInput},
		{name: "zero rent", mutate: func(in *CreateContractInput) { in.RentAmountTHB = 0 }, want: ErrInvalidInput},
		{name: "negative deposit", mutate: func(in *CreateContractInput) { in.DepositTHB = -1 }, want: ErrInvalidInput},
		{name: "unknown room", mutate: func(in *CreateContractInput) { in.RoomID = uuid.New() }, want: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestContractCreateRejectsOccupiedRoom(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})
	svc := NewContractService(store, nil)

	_, err := svc.Create(context.Background(), CreateContractInput{
		RoomID:        fx.Room.ID,
		TenantID:      fx.Tenant.ID,
		StartDate:     testutil.Date(2025, time.January, 1),
		EndDate:       testutil.Date(2025, time.December, 31),
		RentAmountTHB: 8500,
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestContractTransitions(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	events := &recordingPublisher{}
	svc := NewContractService(store, events)
	ctx := context.Background()
	contract := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID})

	move := func(to model.ContractStatus) error {
		_, err := svc.TransitionStatus(ctx, TransitionInput{ContractID: contract.ID, Target: to, TriggeredBy: "test"})
		return err
	}

	assert.ErrorIs(t, move(model.ContractStatusActive), ErrInvalidTransition)
	assert.ErrorIs(t, move("BOGUS"), ErrInvalidInput)

	require.NoError(t, move(model.ContractStatusPendingSignature))
	require.NoError(t, move(model.ContractStatusSigned))
	require.NoError(t, move(model.ContractStatusActive))

	room, err := store.Rooms.GetByID(ctx, fx.Room.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusOccupied, room.Status)

	require.NoError(t, move(model.ContractStatusExpiring))
	require.NoError(t, move(model.ContractStatusTerminated))
	assert.ErrorIs(t, move(model.ContractStatusActive), ErrInvalidTransition)

	room, err = store.Rooms.GetByID(ctx, fx.Room.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusVacant, room.Status)

	assert.Equal(t, []model.ContractStatus{
		model.ContractStatusPendingSignature,
		model.ContractStatusSigned,
		model.ContractStatusActive,
		model.ContractStatusExpiring,
		model.ContractStatusTerminated,
	}, events.targets())

	transitions, err := store.Contracts.ListTransitions(ctx, contract.ID)
	require.NoError(t, err)
	assert.Len(t, transitions, 5)
}

func TestContractRenew(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	events := &recordingPublisher{}
	svc := NewContractService(store, events)
	ctx := context.Background()
	previous := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusExpiring})

	input := RenewContractInput{
		StartDate:     testutil.Date(2025, time.January, 1),
		EndDate:       testutil.Date(2025, time.December, 31),
		RentAmountTHB: 8400,
		DepositTHB:    16800,
	}
	renewed, err := svc.Renew(ctx, previous.ID, input)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, renewed.Status)
	assert.Equal(t, 2, renewed.Version)
	require.NotNil(t, renewed.PreviousID)
	assert.Equal(t, previous.ID, *renewed.PreviousID)

	old, err := store.Contracts.GetByID(ctx, previous.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusRenewed, old.Status)
	assert.Equal(t, []model.ContractStatus{model.ContractStatusRenewed}, events.targets())

	successor, err := store.Contracts.GetSuccessor(ctx, previous.ID)
	require.NoError(t, err)
	assert.Equal(t, renewed.ID, successor.ID)

	_, err = svc.Renew(ctx, renewed.ID, input)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestContractEditOnlyInDraft(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewContractService(store, nil)
	ctx := context.Background()

	draft := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID})
	rent := 9000.0
	updated, err := svc.Update(ctx, draft.ID, UpdateContractInput{RentAmountTHB: &rent})
	require.NoError(t, err)
	assert.Equal(t, 9000.0, updated.RentAmountTHB)

	other := testutil.CreateRoom(t, gdb, fx.Building.ID, "102", 7000)
	active := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: other.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})
	_, err = svc.Update(ctx, active.ID, UpdateContractInput{RentAmountTHB: &rent})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, svc.Delete(ctx, active.ID), ErrInvalidState)

	require.NoError(t, svc.Delete(ctx, draft.ID))
	_, err = svc.FindByID(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkExpiring(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewContractService(store, nil, at(2024, time.December, 10)...)
	ctx := context.Background()

	ending := testutil.CreateContract(t, gdb, testutil.ContractSpec{
		RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive,
		StartDate: testutil.Date(2024, time.January, 1), EndDate: testutil.Date(2024, time.December, 31),
	})
	later := testutil.CreateRoom(t, gdb, fx.Building.ID, "102", 7000)
	testutil.CreateContract(t, gdb, testutil.ContractSpec{
		RoomID: later.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive,
		StartDate: testutil.Date(2024, time.July, 1), EndDate: testutil.Date(2025, time.June, 30),
	})

	moved, err := svc.MarkExpiring(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	got, err := store.Contracts.GetByID(ctx, ending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusExpiring, got.Status)

	moved, err = svc.MarkExpiring(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestContractSecondDraftOnRoomConflicts(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewContractService(store, nil)
	ctx := context.Background()

	first := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID})
	second := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID})

	_, err := svc.TransitionStatus(ctx, TransitionInput{ContractID: first.ID, Target: model.ContractStatusPendingSignature})
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, TransitionInput{ContractID: second.ID, Target: model.ContractStatusPendingSignature})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := store.Contracts.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, got.Status)
	transitions, err := store.Contracts.ListTransitions(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, transitions)
}

func TestContractTransitionRollsBackWhenRoomUpdateFails(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	events := &recordingPublisher{}
	svc := NewContractService(store, events)
	ctx := context.Background()

	signed := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusSigned})
	require.NoError(t, gdb.Exec("DELETE FROM rooms WHERE id = ?", fx.Room.ID).Error)

	_, err := svc.TransitionStatus(ctx, TransitionInput{ContractID: signed.ID, Target: model.ContractStatusActive})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.Contracts.GetByID(ctx, signed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusSigned, got.Status)
	transitions, err := store.Contracts.ListTransitions(ctx, signed.ID)
	require.NoError(t, err)
	assert.Empty(t, transitions)
	assert.Empty(t, events.targets())
}

func TestContractDeleteGuardsStatus(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewContractService(store, nil)
	ctx := context.Background()

	pending := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusPendingSignature})
	assert.ErrorIs(t, svc.Delete(ctx, pending.ID), ErrInvalidState)
	assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), ErrNotFound)

	got, err := store.Contracts.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusPendingSignature, got.Status)
}
