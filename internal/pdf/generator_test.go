package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rentals/internal/model"
)

func TestGenerateLease(t *testing.T) {
	gen, err := NewGenerator("")
	require.NoError(t, err)

	notes := "Parking space B2 included"
	doc := model.ContractDocument{
		Contract: model.Contract{
			ID:            uuid.New(),
			Version:       1,
			StartDate:     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
			RentAmountTHB: 8000,
			DepositTHB:    16000,
			Notes:         &notes,
		},
		Owner:        model.Party{Name: "Property Owner"},
		Tenant:       model.Party{Name: "Somchai", Phone: "081-234-5678"},
		BuildingName: "Baan Suan",
		RoomNumber:   "101",
		Floor:        1,
		TermMonths:   12,
		PaymentDay:   5,
		GeneratedAt:  time.Date(2023, time.December, 20, 0, 0, 0, 0, time.UTC),
	}

	content, err := gen.Generate(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestNewGeneratorMissingFont(t *testing.T) {
	_, err := NewGenerator("/nonexistent/font.ttf")
	assert.Error(t, err)
}

func TestSafeValue(t *testing.T) {
	assert.Equal(t, "-", safeValue("  "))
	assert.Equal(t, "x", safeValue("x"))
	assert.Equal(t, "-", formatDate(time.Time{}))
}
