package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zovida/core/internal/models"
)

func entry(id, timestamp string, risk models.RiskLevel, medicines ...string) models.AnalysisResult {
	r := models.AnalysisResult{ID: id, Timestamp: timestamp, OverallRisk: risk}
	for _, name := range medicines {
		r.Medicines = append(r.Medicines, models.Medicine{Name: name})
	}
	return r
}

func TestSafetyScore(t *testing.T) {
	tests := []struct {
		name  string
		risks []models.RiskLevel
		want  int
	}{
		{"empty history scores full", nil, 100},
		{"all safe", []models.RiskLevel{models.RiskSafe, models.RiskSafe}, 100},
		{"none safe", []models.RiskLevel{models.RiskDanger, models.RiskCaution}, 0},
		{"one of three", []models.RiskLevel{models.RiskSafe, models.RiskDanger, models.RiskCaution}, 33},
		{"two of three rounds up", []models.RiskLevel{models.RiskSafe, models.RiskSafe, models.RiskDanger}, 67},
		{"half", []models.RiskLevel{models.RiskSafe, models.RiskDanger}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := make([]models.AnalysisResult, len(tt.risks))
			for i, risk := range tt.risks {
				list[i] = models.AnalysisResult{OverallRisk: risk}
			}
			assert.Equal(t, tt.want, SafetyScore(list))
		})
	}
}

func TestComputeStats(t *testing.T) {
	list := []models.AnalysisResult{
		{OverallRisk: models.RiskSafe},
		{OverallRisk: models.RiskSafe},
		{OverallRisk: models.RiskCaution},
		{OverallRisk: models.RiskDanger},
	}

	stats := ComputeStats(list)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Safe)
	assert.Equal(t, 1, stats.Danger)
	assert.Equal(t, 50, stats.SafetyScore)
}

func TestGroupByDay(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

	list := []models.AnalysisResult{
		entry("scan-1", "2025-03-10T12:00:00Z", models.RiskSafe),
		entry("scan-2", "2025-03-10T08:00:00Z", models.RiskCaution),
		entry("scan-3", "2025-03-09T22:00:00Z", models.RiskSafe),
		entry("scan-4", "2025-03-01T09:00:00Z", models.RiskDanger),
		entry("scan-5", "not a timestamp", models.RiskSafe),
	}

	groups := GroupByDay(list, now)
	require.Len(t, groups, 3)

	assert.Equal(t, "Today", groups[0].Label)
	require.Len(t, groups[0].Items, 2)
	assert.Equal(t, "scan-1", groups[0].Items[0].ID)
	assert.Equal(t, "scan-2", groups[0].Items[1].ID)

	assert.Equal(t, "Yesterday", groups[1].Label)
	require.Len(t, groups[1].Items, 1)

	assert.Equal(t, "March 1, 2025", groups[2].Label)
	require.Len(t, groups[2].Items, 1)
	assert.Equal(t, "scan-4", groups[2].Items[0].ID)
}

func TestGroupByDayEmpty(t *testing.T) {
	assert.Empty(t, GroupByDay(nil, time.Now()))
}

func TestFilter(t *testing.T) {
	list := []models.AnalysisResult{
		entry("scan-1", "2025-03-10T12:00:00Z", models.RiskSafe, "Aspirin"),
		entry("scan-2", "2025-03-10T11:00:00Z", models.RiskDanger, "Warfarin", "Ibuprofen"),
		entry("scan-3", "2025-03-10T10:00:00Z", models.RiskCaution, "Metformin"),
	}

	tests := []struct {
		name    string
		query   string
		risk    string
		wantIDs []string
	}{
		{"no filters", "", "", []string{"scan-1", "scan-2", "scan-3"}},
		{"risk all", "", RiskFilterAll, []string{"scan-1", "scan-2", "scan-3"}},
		{"risk danger", "", "danger", []string{"scan-2"}},
		{"query matches medicine case-insensitively", "ASPIRIN", "", []string{"scan-1"}},
		{"query matches partial medicine", "farin", "", []string{"scan-2"}},
		{"query matches risk string", "caution", "", []string{"scan-3"}},
		{"query and risk combine", "ibu", "danger", []string{"scan-2"}},
		{"query and risk conflict", "aspirin", "danger", []string{}},
		{"no match", "paracetamol", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(list, tt.query, tt.risk)
			ids := make([]string, 0, len(got))
			for _, item := range got {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
