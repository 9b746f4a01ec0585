package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/models"
)

func TestReportKey(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 5, 7, 0, time.FixedZone("CEST", 2*3600))
	require.Equal(t, "reports/reconcile/2026/10/16/20261016T070507Z.json", ReportKey(at))
}

func TestEncodeReport(t *testing.T) {
	r := &models.ReconcileReport{
		CheckedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		EventsChecked: 2,
		Drift:         []models.SeatDrift{{EventID: uuid.New(), Capacity: 5, AvailableSeats: 3, ActiveCount: 1, Expected: 4}},
	}
	b, err := EncodeReport(r)
	require.NoError(t, err)

	var back models.ReconcileReport
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, 2, back.EventsChecked)
	require.Len(t, back.Drift, 1)
	require.Equal(t, 4, back.Drift[0].Expected)
}
