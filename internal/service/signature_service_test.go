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

const pngData = "data:image/png;base64,iVBORw0KGgo="

type staticTokens struct{}

func (staticTokens) Issue(contractID uuid.UUID, role model.SignerRole) (string, time.Time, error) {
	return string(role) + "-" + contractID.String()[:8], time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), nil
}

func TestSignatureCompletesContract(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	events := &recordingPublisher{}
	svc := NewSignatureService(store, staticTokens{}, events, "https://rent.example/", at(2024, time.March, 1)...)
	ctx := context.Background()
	contract := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusPendingSignature})

	first, err := svc.Create(ctx, CreateSignatureInput{ContractID: contract.ID, SignerRole: model.SignerRoleOwner, SignerName: " Owner ", SignatureData: pngData})
	require.NoError(t, err)
	assert.False(t, first.AllSigned)
	assert.Equal(t, "Owner", first.Signature.SignerName)
	assert.Len(t, first.Signature.SignatureHash, 64)

	_, err = svc.Create(ctx, CreateSignatureInput{ContractID: contract.ID, SignerRole: model.SignerRoleOwner, SignerName: "Owner", SignatureData: pngData})
	assert.ErrorIs(t, err, ErrConflict)

	second, err := svc.Create(ctx, CreateSignatureInput{ContractID: contract.ID, SignerRole: model.SignerRoleTenant, SignerName: "Somchai", SignatureData: pngData})
	require.NoError(t, err)
	assert.True(t, second.AllSigned)

	got, err := store.Contracts.GetByID(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusSigned, got.Status)
	assert.Equal(t, []model.ContractStatus{model.ContractStatusSigned}, events.targets())

	all, err := svc.HasAllSignatures(ctx, contract.ID)
	require.NoError(t, err)
	assert.True(t, all)

	signatures, err := svc.ListByContract(ctx, contract.ID)
	require.NoError(t, err)
	require.Len(t, signatures, 2)
	for _, s := range signatures {
		require.NotNil(t, s.Verified)
		assert.True(t, *s.Verified)
	}
}

func TestSignatureValidation(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewSignatureService(store, staticTokens{}, nil, "")
	ctx := context.Background()
	pending := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusPendingSignature})
	other := testutil.CreateRoom(t, gdb, fx.Building.ID, "102", 7000)
	draft := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: other.ID, TenantID: fx.Tenant.ID})

	tests := []struct {
		name  string
		input CreateSignatureInput
		want  error
	}{
		{name: "draft contract", input: CreateSignatureInput{ContractID: draft.ID, SignerRole: model.SignerRoleOwner, SignerName: "Owner", SignatureData: pngData}, want: ErrInvalidState},
		{name: "unknown role", input: CreateSignatureInput{ContractID: pending.ID, SignerRole: "WITNESS", SignerName: "Owner", SignatureData: pngData}, want: ErrInvalidInput},
		{name: "blank name", input: CreateSignatureInput{ContractID: pending.ID, SignerRole: model.SignerRoleOwner, SignerName: "  ", SignatureData: pngData}, want: ErrInvalidInput},
		{name: "not an image", input: CreateSignatureInput{ContractID: pending.ID, SignerRole: model.SignerRoleOwner, SignerName: "Owner", SignatureData: "hello"}, want: ErrInvalidInput},
		{name: "unknown contract", input: CreateSignatureInput{ContractID: uuid.New(), SignerRole: model.SignerRoleOwner, SignerName: "Owner", SignatureData: pngData}, want: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignatureVerifyDetectsTampering(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewSignatureService(store, staticTokens{}, nil, "")
	ctx := context.Background()
	contract := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusPendingSignature})

	res, err := svc.Create(ctx, CreateSignatureInput{ContractID: contract.ID, SignerRole: model.SignerRoleTenant, SignerName: "Somchai", SignatureData: pngData})
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, res.Signature.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, gdb.Model(&model.ContractSignature{}).Where("id = ?", res.Signature.ID).
		Update("signature_data", "data:image/png;base64,AAAA").Error)
	ok, err = svc.Verify(ctx, res.Signature.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignatureDelete(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewSignatureService(store, staticTokens{}, nil, "")
	ctx := context.Background()
	contract := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusPendingSignature})

	res, err := svc.Create(ctx, CreateSignatureInput{ContractID: contract.ID, SignerRole: model.SignerRoleOwner, SignerName: "Owner", SignatureData: pngData})
	require.NoError(t, err)

	require.NoError(t, gdb.Model(&model.Contract{}).Where("id = ?", contract.ID).Update("status", model.ContractStatusActive).Error)
	assert.ErrorIs(t, svc.Delete(ctx, res.Signature.ID), ErrInvalidState)

	require.NoError(t, gdb.Model(&model.Contract{}).Where("id = ?", contract.ID).Update("status", model.ContractStatusPendingSignature).Error)
	require.NoError(t, svc.Delete(ctx, res.Signature.ID))
	assert.ErrorIs(t, svc.Delete(ctx, res.Signature.ID), ErrNotFound)
}

func TestIssueSigningLinks(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewSignatureService(store, staticTokens{}, nil, "https://rent.example/")
	ctx := context.Background()
	draft := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID})

	_, err := svc.IssueSigningLinks(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, gdb.Model(&model.Contract{}).Where("id = ?", draft.ID).Update("status", model.ContractStatusPendingSignature).Error)
	links, err := svc.IssueSigningLinks(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, link := range links {
		assert.Contains(t, link.URL, "https://rent.example/sign/"+draft.ID.String()+"?token="+string(link.Role)+"-")
	}
}
