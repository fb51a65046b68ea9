package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/rentals/internal/model"
)

func TestGenerateLedger(t *testing.T) {
	paid := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	ledger := model.PaymentLedger{
		Year:  2024,
		Month: 3,
		Collection: model.CollectionReport{
			Expected: 16000, Collected: 8000, Rate: 50,
		},
		Groups: []model.LedgerGroup{
			{
				BuildingID:   uuid.New(),
				BuildingName: "Baan Suan",
				Payments: []model.Payment{
					{
						AmountTHB: 8000, PaidTHB: 8000, Status: model.PaymentStatusPaid,
						DueDate: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), PaidDate: &paid,
						Contract: &model.Contract{Room: &model.Room{RoomNumber: "101"}, Tenant: &model.Tenant{Name: "Somchai"}},
					},
					{
						AmountTHB: 8000, Status: model.PaymentStatusPending,
						DueDate: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
					},
				},
			},
		},
	}

	content, err := NewGenerator().Generate(ledger)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Summary", "Baan Suan"}, file.GetSheetList())

	period, err := file.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", period)

	room, err := file.GetCellValue("Baan Suan", "A7")
	require.NoError(t, err)
	assert.Equal(t, "101", room)

	outstanding, err := file.GetCellValue("Baan Suan", "F8")
	require.NoError(t, err)
	assert.Equal(t, "8000", outstanding)
}

func TestBuildSheetName(t *testing.T) {
	used := map[string]struct{}{"Summary": {}}
	id := uuid.New()

	first := buildSheetName("Tower A/B", id, used)
	assert.Equal(t, "Tower A-B", first)
	used[first] = struct{}{}

	assert.Equal(t, "Tower A-B-2", buildSheetName("Tower A/B", id, used))
	assert.Equal(t, id.String()[:31], buildSheetName("  ", id, used))

	long := buildSheetName("อาคารที่พักอาศัยริมแม่น้ำเจ้าพระยาฝั่งตะวันออก", id, used)
	assert.LessOrEqual(t, len([]rune(long)), 31)
}
