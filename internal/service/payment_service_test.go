package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
	"github.com/nurpe/rentals/internal/testutil"
)

func TestGenerateMonthlyPayments(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewPaymentService(store, 0, at(2024, time.March, 10)...)
	ctx := context.Background()

	active := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})
	draftRoom := testutil.CreateRoom(t, gdb, fx.Building.ID, "102", 7000)
	testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: draftRoom.ID, TenantID: fx.Tenant.ID})
	endedRoom := testutil.CreateRoom(t, gdb, fx.Building.ID, "103", 6000)
	testutil.CreateContract(t, gdb, testutil.ContractSpec{
		RoomID: endedRoom.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusExpiring,
		StartDate: testutil.Date(2023, time.March, 1), EndDate: testutil.Date(2024, time.February, 15),
	})

	result, err := svc.GenerateMonthlyPayments(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Skipped)

	payments, err := svc.FindAll(ctx, repository.PaymentFilter{ContractID: &active.ID})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 8000.0, payments[0].AmountTHB)
	assert.Equal(t, model.PaymentStatusPending, payments[0].Status)
	assert.True(t, payments[0].DueDate.Equal(testutil.Date(2024, time.March, 5)))

	again, err := svc.GenerateMonthlyPayments(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 1, again.Skipped)

	_, err = svc.GenerateMonthlyPayments(ctx, 2024, 13)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDueDateClampsToMonthEnd(t *testing.T) {
	svc := NewPaymentService(nil, 31)
	tests := []struct {
		year, month int
		want        time.Time
	}{
		{2024, 2, testutil.Date(2024, time.February, 29)},
		{2023, 2, testutil.Date(2023, time.February, 28)},
		{2024, 4, testutil.Date(2024, time.April, 30)},
		{2024, 12, testutil.Date(2024, time.December, 31)},
	}
	for _, tt := range tests {
		assert.True(t, svc.dueDate(tt.year, tt.month).Equal(tt.want), "%d-%02d", tt.year, tt.month)
	}
}

func TestAutoMarkOverdue(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	contract := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})
	ctx := context.Background()

	early := NewPaymentService(store, 5, at(2024, time.March, 3)...)
	_, err := early.GenerateMonthlyPayments(ctx, 2024, 3)
	require.NoError(t, err)

	n, err := early.AutoMarkOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	late := NewPaymentService(store, 5, at(2024, time.March, 10)...)
	n, err = late.AutoMarkOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	payments, err := late.FindAll(ctx, repository.PaymentFilter{ContractID: &contract.ID})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentStatusOverdue, payments[0].Status)
}

func TestRecordPayment(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	contract := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})
	svc := NewPaymentService(store, 5, at(2024, time.March, 4)...)
	ctx := context.Background()

	note := "first instalment"
	payment, err := svc.Create(ctx, CreatePaymentInput{ContractID: contract.ID, PeriodYear: 2024, PeriodMonth: 3, AmountTHB: 8000, Notes: &note})
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, payment.ID, RecordPaymentInput{Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	cash := "cash"
	partial, err := svc.RecordPayment(ctx, payment.ID, RecordPaymentInput{Amount: 3000, Notes: &cash})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPartial, partial.Status)
	assert.Equal(t, 3000.0, partial.PaidTHB)
	assert.Equal(t, 5000.0, partial.Outstanding())
	require.NotNil(t, partial.Notes)
	assert.Equal(t, "first instalment\ncash", *partial.Notes)

	paidOn := testutil.Date(2024, time.March, 6)
	paid, err := svc.RecordPayment(ctx, payment.ID, RecordPaymentInput{Amount: 5000, PaidDate: &paidOn})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.True(t, paid.PaidDate.Equal(paidOn))

	_, err = svc.RecordPayment(ctx, payment.ID, RecordPaymentInput{Amount: 100})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Create(ctx, CreatePaymentInput{ContractID: contract.ID, PeriodYear: 2024, PeriodMonth: 3, AmountTHB: 8000})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPaymentStatusChanges(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	contract := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})
	svc := NewPaymentService(store, 5)
	ctx := context.Background()

	payment, err := svc.Create(ctx, CreatePaymentInput{ContractID: contract.ID, PeriodYear: 2024, PeriodMonth: 4, AmountTHB: 8000})
	require.NoError(t, err)

	overdue, err := svc.MarkOverdue(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusOverdue, overdue.Status)

	_, err = svc.MarkOverdue(ctx, payment.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	partial, err := svc.RecordPayment(ctx, payment.ID, RecordPaymentInput{Amount: 1000})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPartial, partial.Status)

	cancelled, err := svc.Cancel(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, payment.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.RecordPayment(ctx, payment.ID, RecordPaymentInput{Amount: 1000})
	assert.ErrorIs(t, err, ErrInvalidState)
}
