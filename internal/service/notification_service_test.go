package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/testutil"
)

func TestNotifyExpiringContracts(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})

	ctrl := gomock.NewController(t)
	messenger := NewMockMessenger(ctrl)
	messenger.EXPECT().
		PushText(gomock.Any(), "U-owner-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, text string) error {
			assert.Contains(t, text, "Baan Suan 101 - Somchai (21 วัน)")
			return nil
		})
	messenger.EXPECT().PushText(gomock.Any(), "U-owner-2", gomock.Any()).Return(errors.New("line down"))

	opts := at(2024, time.December, 10)
	analytics := NewAnalyticsService(store, nil, 0, 30, opts...)
	svc := NewNotificationService(store, analytics, messenger, []string{"U-owner-1", "U-owner-2"}, 5, opts...)

	sent, err := svc.NotifyExpiringContracts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestNotifyOverduePayments(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	c := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})
	insertPayment(t, gdb, c.ID, 2024, 3, 8000, 3000, model.PaymentStatusOverdue)

	ctrl := gomock.NewController(t)
	messenger := NewMockMessenger(ctrl)
	messenger.EXPECT().
		PushText(gomock.Any(), "U-owner", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, text string) error {
			assert.Contains(t, text, "ค่าเช่าค้างชำระ (1 รายการ)")
			assert.Contains(t, text, "Baan Suan 101")
			assert.Contains(t, text, "5,000")
			return nil
		})

	opts := at(2024, time.March, 10)
	svc := NewNotificationService(store, NewAnalyticsService(store, nil, 0, 30, opts...), messenger, []string{"U-owner"}, 5, opts...)
	sent, err := svc.NotifyOverduePayments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestNotifyNothingToSend(t *testing.T) {
	store, _ := newTestStore(t)
	ctrl := gomock.NewController(t)
	messenger := NewMockMessenger(ctrl)
	svc := NewNotificationService(store, NewAnalyticsService(store, nil, 0, 30), messenger, []string{"U-owner"}, 5)

	sent, err := svc.NotifyOverduePayments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	sent, err = svc.NotifyExpiringContracts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestSendRentDueReminder(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	c := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})

	ctrl := gomock.NewController(t)
	messenger := NewMockMessenger(ctrl)
	svc := NewNotificationService(store, NewAnalyticsService(store, nil, 0, 30), messenger, nil, 5)
	ctx := context.Background()

	sent, err := svc.SendRentDueReminder(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, sent, "tenant without LINE account")

	require.NoError(t, gdb.Model(fx.Tenant).Update("line_user_id", "U-tenant").Error)
	messenger.EXPECT().
		PushText(gomock.Any(), "U-tenant", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, text string) error {
			assert.Contains(t, text, "8,000")
			assert.Contains(t, text, "วันที่ 5")
			return nil
		})
	sent, err = svc.SendRentDueReminder(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestHandleContractEventRenewal(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	require.NoError(t, gdb.Model(fx.Tenant).Update("line_user_id", "U-tenant").Error)
	previous := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusExpiring})

	contracts := NewContractService(store, nil)
	renewed, err := contracts.Renew(context.Background(), previous.ID, RenewContractInput{
		StartDate:     testutil.Date(2025, time.January, 1),
		EndDate:       testutil.Date(2025, time.December, 31),
		RentAmountTHB: 8400,
	})
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	messenger := NewMockMessenger(ctrl)
	messenger.EXPECT().
		PushText(gomock.Any(), "U-owner", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, text string) error {
			assert.Contains(t, text, "ต่อสัญญาสำเร็จ")
			assert.Contains(t, text, "8,400")
			return nil
		})
	messenger.EXPECT().PushText(gomock.Any(), "U-tenant", gomock.Any()).Return(nil)

	svc := NewNotificationService(store, NewAnalyticsService(store, nil, 0, 30), messenger, []string{"U-owner"}, 5)
	err = svc.HandleContractEvent(context.Background(), model.ContractEvent{ContractID: previous.ID, From: model.ContractStatusExpiring, To: model.ContractStatusRenewed})
	require.NoError(t, err)
	assert.NotEqual(t, previous.ID, renewed.ID)
}

func TestHandleContractEventIgnoresOtherStatuses(t *testing.T) {
	store, _ := newTestStore(t)
	ctrl := gomock.NewController(t)
	svc := NewNotificationService(store, NewAnalyticsService(store, nil, 0, 30), NewMockMessenger(ctrl), []string{"U-owner"}, 5)

	err := svc.HandleContractEvent(context.Background(), model.ContractEvent{To: model.ContractStatusPendingSignature})
	assert.NoError(t, err)
}
