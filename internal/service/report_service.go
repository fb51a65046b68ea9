package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
)

type LedgerGenerator interface {
	Generate(ledger model.PaymentLedger) ([]byte, error)
}

type ReportService struct {
	store     *repository.Store
	analytics *AnalyticsService
	excel     LedgerGenerator
	opts      options
}

type ExportLedgerResult struct {
	FileName string
	Content  []byte
}

func NewReportService(store *repository.Store, analytics *AnalyticsService, excel LedgerGenerator, opts ...Option) *ReportService {
	return &ReportService{
		store:     store,
		analytics: analytics,
		excel:     excel,
		opts:      newOptions(opts),
	}
}

// ExportLedger builds the payment ledger workbook for one period.
func (s *ReportService) ExportLedger(ctx context.Context, year, month int) (*ExportLedgerResult, error) {
	if !validPeriod(year, month) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, year, month)
	}

	collection, err := s.analytics.CollectionRate(ctx, year, month)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments.List(ctx, repository.PaymentFilter{Year: &year, Month: &month})
	if err != nil {
		return nil, err
	}

	ledger := model.PaymentLedger{
		Year:       year,
		Month:      month,
		Collection: *collection,
		Groups:     groupByBuilding(payments),
	}
	content, err := s.excel.Generate(ledger)
	if err != nil {
		return nil, err
	}

	s.opts.log.Info().
		Int("year", year).
		Int("month", month).
		Int("payments", len(payments)).
		Msg("payment ledger exported")
	return &ExportLedgerResult{
		FileName: buildFileName("payments", year, month),
		Content:  content,
	}, nil
}

func groupByBuilding(payments []model.Payment) []model.LedgerGroup {
	index := make(map[uuid.UUID]int)
	var groups []model.LedgerGroup
	for _, p := range payments {
		var (
			id   uuid.UUID
			name string
		)
		if p.Contract != nil && p.Contract.Room != nil && p.Contract.Room.Building != nil {
			id = p.Contract.Room.Building.ID
			name = p.Contract.Room.Building.Name
		}
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, model.LedgerGroup{BuildingID: id, BuildingName: name})
		}
		groups[i].Payments = append(groups[i].Payments, p)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].BuildingName < groups[j].BuildingName
	})
	for _, g := range groups {
		sort.SliceStable(g.Payments, func(i, j int) bool {
			return roomOf(g.Payments[i]) < roomOf(g.Payments[j])
		})
	}
	return groups
}

func roomOf(p model.Payment) string {
	if p.Contract == nil || p.Contract.Room == nil {
		return ""
	}
	return p.Contract.Room.RoomNumber
}

func buildFileName(kind string, year, month int) string {
	return fmt.Sprintf("%s-%04d-%02d.xlsx", sanitizeFileName(kind), year, month)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
