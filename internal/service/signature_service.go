package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
)

const signatureDataPrefix = "data:image/"

// TokenIssuer mints signing-link tokens.
type TokenIssuer interface {
	Issue(contractID uuid.UUID, role model.SignerRole) (string, time.Time, error)
}

type SignatureService struct {
	store  *repository.Store
	tokens TokenIssuer
	events EventPublisher
	appURL string
	opts   options
}

type CreateSignatureInput struct {
	ContractID    uuid.UUID
	SignerRole    model.SignerRole
	SignerName    string
	SignatureData string
	IPAddress     *string
}

type CreateSignatureResult struct {
	Signature *model.ContractSignature `json:"signature"`
	AllSigned bool                     `json:"all_signed"`
}

type SigningLink struct {
	Role      model.SignerRole `json:"role"`
	URL       string           `json:"url"`
	ExpiresAt time.Time        `json:"expires_at"`
}

func NewSignatureService(store *repository.Store, tokens TokenIssuer, events EventPublisher, appURL string, opts ...Option) *SignatureService {
	return &SignatureService{
		store:  store,
		tokens: tokens,
		events: events,
		appURL: strings.TrimRight(appURL, "/"),
		opts:   newOptions(opts),
	}
}

// Create records one party's signature. When it completes the pair on a
// PENDING_SIGNATURE contract, the contract moves to SIGNED in the same
// transaction.
func (s *SignatureService) Create(ctx context.Context, input CreateSignatureInput) (*CreateSignatureResult, error) {
	if !input.SignerRole.Valid() {
		return nil, fmt.Errorf("%w: signer_role must be OWNER or TENANT", ErrInvalidInput)
	}
	signerName := strings.TrimSpace(input.SignerName)
	if signerName == "" {
		return nil, fmt.Errorf("%w: signer_name is required", ErrInvalidInput)
	}

	contract, err := s.store.Contracts.GetByID(ctx, input.ContractID)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	if !signable(contract.Status) {
		return nil, fmt.Errorf("%w: contract is not in a signable state (%s)", ErrInvalidState, contract.Status)
	}
	exists, err := s.store.Signatures.ExistsForRole(ctx, contract.ID, input.SignerRole)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s has already signed this contract", ErrConflict, input.SignerRole)
	}
	if !strings.HasPrefix(input.SignatureData, signatureDataPrefix) {
		return nil, fmt.Errorf("%w: invalid signature data format", ErrInvalidInput)
	}

	signature := &model.ContractSignature{
		ContractID:    contract.ID,
		SignerRole:    input.SignerRole,
		SignerName:    signerName,
		SignatureData: input.SignatureData,
		SignatureHash: hashSignature(input.SignatureData),
		IPAddress:     input.IPAddress,
		SignedAt:      s.opts.now().UTC(),
	}

	var (
		allSigned bool
		events    []model.ContractEvent
	)
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		locked, err := tx.Contracts.GetForUpdate(ctx, contract.ID)
		if err != nil {
			return storeError(err, "contract")
		}
		if !signable(locked.Status) {
			return fmt.Errorf("%w: contract is not in a signable state (%s)", ErrInvalidState, locked.Status)
		}
		if err := tx.Signatures.Create(ctx, signature); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s has already signed this contract", ErrConflict, input.SignerRole)
			}
			return err
		}

		roles, err := tx.Signatures.SignedRoles(ctx, locked.ID)
		if err != nil {
			return err
		}
		allSigned = hasAllRoles(roles)
		if allSigned && locked.Status == model.ContractStatusPendingSignature {
			event, err := applyTransition(ctx, tx, locked, model.ContractStatusSigned, "All parties have signed", "signature_service", s.opts.now())
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.log.Info().
		Str("contract_id", contract.ID.String()).
		Str("role", string(signature.SignerRole)).
		Bool("all_signed", allSigned).
		Msg("contract signed")
	publishEvents(ctx, s.events, s.opts, events...)
	return &CreateSignatureResult{Signature: signature, AllSigned: allSigned}, nil
}

// ListByContract returns the contract's signatures with their integrity
// flag evaluated.
func (s *SignatureService) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.ContractSignature, error) {
	if _, err := s.store.Contracts.GetByID(ctx, contractID); err != nil {
		return nil, storeError(err, "contract")
	}
	signatures, err := s.store.Signatures.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	for i := range signatures {
		ok := verifyHash(signatures[i])
		signatures[i].Verified = &ok
	}
	return signatures, nil
}

func (s *SignatureService) HasAllSignatures(ctx context.Context, contractID uuid.UUID) (bool, error) {
	roles, err := s.store.Signatures.SignedRoles(ctx, contractID)
	if err != nil {
		return false, err
	}
	return hasAllRoles(roles), nil
}

// Verify recomputes the signature digest and compares it with the stored
// one.
func (s *SignatureService) Verify(ctx context.Context, signatureID uuid.UUID) (bool, error) {
	signature, err := s.store.Signatures.GetByID(ctx, signatureID)
	if err != nil {
		return false, storeError(err, "signature")
	}
	return verifyHash(*signature), nil
}

func (s *SignatureService) Delete(ctx context.Context, signatureID uuid.UUID) error {
	signature, err := s.store.Signatures.GetByID(ctx, signatureID)
	if err != nil {
		return storeError(err, "signature")
	}
	contract, err := s.store.Contracts.GetByID(ctx, signature.ContractID)
	if err != nil {
		return storeError(err, "contract")
	}
	if contract.Status == model.ContractStatusActive {
		return fmt.Errorf("%w: cannot delete signature from active contract", ErrInvalidState)
	}
	return storeError(s.store.Signatures.Delete(ctx, signatureID), "signature")
}

// IssueSigningLinks returns one signing URL per party for a contract
// awaiting signatures.
func (s *SignatureService) IssueSigningLinks(ctx context.Context, contractID uuid.UUID) ([]SigningLink, error) {
	contract, err := s.store.Contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	if contract.Status != model.ContractStatusPendingSignature {
		return nil, fmt.Errorf("%w: signing links need a contract pending signature, contract is %s", ErrInvalidState, contract.Status)
	}
	if s.tokens == nil {
		return nil, errors.New("signing tokens are not configured")
	}

	links := make([]SigningLink, 0, 2)
	for _, role := range model.SignerRoles() {
		token, expiresAt, err := s.tokens.Issue(contract.ID, role)
		if err != nil {
			return nil, err
		}
		links = append(links, SigningLink{
			Role:      role,
			URL:       fmt.Sprintf("%s/sign/%s?token=%s", s.appURL, contract.ID, token),
			ExpiresAt: expiresAt,
		})
	}
	return links, nil
}

func signable(status model.ContractStatus) bool {
	return status == model.ContractStatusPendingSignature || status == model.ContractStatusSigned
}

func hasAllRoles(roles []model.SignerRole) bool {
	seen := make(map[model.SignerRole]bool, len(roles))
	for _, role := range roles {
		seen[role] = true
	}
	for _, role := range model.SignerRoles() {
		if !seen[role] {
			return false
		}
	}
	return true
}

func hashSignature(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func verifyHash(signature model.ContractSignature) bool {
	expected := hashSignature(signature.SignatureData)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature.SignatureHash)) == 1
}
