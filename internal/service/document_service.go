package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
)

// ContractRenderer turns a lease into a PDF.
type ContractRenderer interface {
	Generate(doc model.ContractDocument) ([]byte, error)
}

type DocumentService struct {
	store  *repository.Store
	pdf    ContractRenderer
	events EventPublisher
	dir    string
	owner  model.Party
	dueDay int
	opts   options
}

type GenerateDocumentResult struct {
	Contract *model.Contract `json:"contract"`
	URL      string          `json:"url"`
	Path     string          `json:"-"`
}

// NewDocumentService stores rendered leases under dir. URLs handed out are
// rooted at /contracts.
func NewDocumentService(
	store *repository.Store,
	pdf ContractRenderer,
	events EventPublisher,
	dir string,
	owner model.Party,
	dueDay int,
	opts ...Option,
) *DocumentService {
	return &DocumentService{
		store:  store,
		pdf:    pdf,
		events: events,
		dir:    dir,
		owner:  owner,
		dueDay: dueDay,
		opts:   newOptions(opts),
	}
}

// GenerateDocument renders the lease, writes it to disk and records its URL.
// A DRAFT contract then moves to PENDING_SIGNATURE.
func (s *DocumentService) GenerateDocument(ctx context.Context, contractID uuid.UUID) (*GenerateDocumentResult, error) {
	contract, err := s.store.Contracts.GetWithParties(ctx, contractID)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	if contract.Room == nil || contract.Tenant == nil {
		return nil, fmt.Errorf("%w: contract is missing room or tenant", ErrInvalidState)
	}

	content, err := s.pdf.Generate(s.buildDocument(contract))
	if err != nil {
		return nil, fmt.Errorf("render contract: %w", err)
	}

	folder := documentFolder(contract.Status)
	fileName := fmt.Sprintf("%s_v%d.pdf", contract.ID, contract.Version)
	path := filepath.Join(s.dir, folder, fileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("write contract pdf: %w", err)
	}
	url := fmt.Sprintf("/contracts/%s/%s", folder, fileName)

	var event *model.ContractEvent
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		locked, err := tx.Contracts.GetForUpdate(ctx, contractID)
		if err != nil {
			return storeError(err, "contract")
		}
		if err := tx.Contracts.SetPdfURL(ctx, contractID, url); err != nil {
			return storeError(err, "contract")
		}
		locked.PdfURL = &url
		if locked.Status == model.ContractStatusDraft {
			ev, err := applyTransition(ctx, tx, locked, model.ContractStatusPendingSignature,
				"Document generated, ready for signatures", triggeredBySystem, s.opts.now())
			if err != nil {
				return err
			}
			event = &ev
		}
		contract.Status = locked.Status
		contract.PdfURL = locked.PdfURL
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.log.Info().
		Str("contract_id", contractID.String()).
		Str("path", path).
		Msg("contract document generated")
	if event != nil {
		publishEvents(ctx, s.events, s.opts, *event)
	}
	return &GenerateDocumentResult{Contract: contract, URL: url, Path: path}, nil
}

func (s *DocumentService) buildDocument(c *model.Contract) model.ContractDocument {
	doc := model.ContractDocument{
		Contract:    *c,
		Owner:       s.owner,
		RoomNumber:  c.Room.RoomNumber,
		Floor:       c.Room.Floor,
		TermMonths:  termMonths(c.StartDate, c.EndDate),
		PaymentDay:  s.dueDay,
		GeneratedAt: s.opts.today(),
		Tenant: model.Party{
			Name:    c.Tenant.Name,
			Phone:   c.Tenant.Phone,
			IDCard:  derefOr(c.Tenant.IDCard, ""),
			Address: derefOr(c.Tenant.Address, ""),
		},
	}
	if c.Room.Building != nil {
		doc.BuildingName = c.Room.Building.Name
	}
	return doc
}

// documentFolder keeps unsigned leases apart from signed ones.
func documentFolder(status model.ContractStatus) string {
	switch status {
	case model.ContractStatusDraft, model.ContractStatusPendingSignature:
		return "drafts"
	}
	return "signed"
}

// termMonths counts whole months in an inclusive date range, so
// 2024-01-01..2024-12-31 is 12.
func termMonths(start, end time.Time) int {
	after := end.AddDate(0, 0, 1)
	sy, sm, _ := start.Date()
	ey, em, _ := after.Date()
	return (ey-sy)*12 + int(em) - int(sm)
}

func derefOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}
