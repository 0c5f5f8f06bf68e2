package history

import (
	"math"
	"strings"
	"time"

	"github.com/zovida/core/internal/models"
)

// RiskFilterAll matches every risk level.
const RiskFilterAll = "all"

// Stats are the aggregate safety metrics shown above the history list.
type Stats struct {
	Total       int `json:"total"`
	Danger      int `json:"danger"`
	Safe        int `json:"safe"`
	SafetyScore int `json:"safetyScore"`
}

// ComputeStats derives the aggregate counters from a history snapshot.
func ComputeStats(list []models.AnalysisResult) Stats {
	stats := Stats{Total: len(list)}
	for _, item := range list {
		switch item.OverallRisk {
		case models.RiskDanger:
			stats.Danger++
		case models.RiskSafe:
			stats.Safe++
		}
	}
	stats.SafetyScore = SafetyScore(list)
	return stats
}

// SafetyScore is the share of safe results, 0-100. An empty history scores
// 100.
func SafetyScore(list []models.AnalysisResult) int {
	if len(list) == 0 {
		return 100
	}
	safe := 0
	for _, item := range list {
		if item.OverallRisk == models.RiskSafe {
			safe++
		}
	}
	return int(math.Round(float64(safe) / float64(len(list)) * 100))
}

// DayGroup is one calendar day's worth of history entries.
type DayGroup struct {
	Label string                  `json:"label"`
	Items []models.AnalysisResult `json:"items"`
}

// GroupByDay buckets entries by the calendar day of their record time,
// labeling the two most recent days "Today" and "Yesterday" relative to now.
// Entries with an unparseable time are excluded from every group. Input
// order is preserved within each group, and groups appear in input order of
// their first entry.
func GroupByDay(list []models.AnalysisResult, now time.Time) []DayGroup {
	var groups []DayGroup
	index := make(map[string]int)

	for _, item := range list {
		t := recordTime(&item)
		if t.IsZero() {
			continue
		}

		label := t.Format("January 2, 2006")
		if sameDay(t, now) {
			label = "Today"
		} else if sameDay(t, now.AddDate(0, 0, -1)) {
			label = "Yesterday"
		}

		pos, ok := index[label]
		if !ok {
			pos = len(groups)
			index[label] = pos
			groups = append(groups, DayGroup{Label: label})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}
	return groups
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Filter narrows a snapshot by a free-text query and a risk filter. A record
// matches the query (case-insensitive) when any medicine name or the risk
// string contains it; it matches the risk filter when that is "all" or equal
// to its overallRisk. Both must hold.
func Filter(list []models.AnalysisResult, query, riskFilter string) []models.AnalysisResult {
	query = strings.ToLower(strings.TrimSpace(query))
	riskFilter = strings.TrimSpace(riskFilter)

	out := make([]models.AnalysisResult, 0, len(list))
	for _, item := range list {
		if !matchesQuery(&item, query) {
			continue
		}
		if riskFilter != "" && riskFilter != RiskFilterAll && string(item.OverallRisk) != riskFilter {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesQuery(r *models.AnalysisResult, query string) bool {
	if query == "" {
		return true
	}
	for _, med := range r.Medicines {
		if strings.Contains(strings.ToLower(med.Name), query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(string(r.OverallRisk)), query)
}
