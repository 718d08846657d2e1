package types

import (
	"time"
)

// HalsteadMetrics captures the entropy-style size/difficulty measures derived
// from distinct/total operator and operand counts.
type HalsteadMetrics struct {
	Difficulty float64 `json:"difficulty"`
	Volume     float64 `json:"volume"`
	Effort     float64 `json:"effort"`
}

// ComplexityMetrics is the immutable result of one analysis pass over a file.
// A fresh value is produced per call; it is never mutated in place.
type ComplexityMetrics struct {
	Cyclomatic      int             `json:"cyclomatic_complexity"`
	Maintainability float64         `json:"maintainability_index"`
	Halstead        HalsteadMetrics `json:"halstead"`
}

// FileRecord is the per-file analysis result held in the metric cache.
// Records are superseded wholesale on re-analysis, never merged.
type FileRecord struct {
	Path        string            `json:"path"`
	Language    string            `json:"language"`
	LineCount   int               `json:"line_count"`
	ContentHash uint64            `json:"content_hash"`
	Metrics     ComplexityMetrics `json:"metrics"`
	ObservedAt  time.Time         `json:"observed_at"`
}

// SessionInsights is the aggregated view of the current coding session.
type SessionInsights struct {
	DurationMinutes   float64        `json:"duration_minutes"`
	ActiveMinutes     float64        `json:"active_minutes"`
	IdleMinutes       float64        `json:"idle_minutes"`
	FilesTracked      int            `json:"files_tracked"`
	LanguageBreakdown map[string]int `json:"language_breakdown"`
	AverageComplexity float64        `json:"average_complexity"`
}

// DayTotals accumulates flushed session data for one calendar day.
type DayTotals struct {
	ActiveMinutes     float64        `json:"active_minutes"`
	IdleMinutes       float64        `json:"idle_minutes"`
	FilesAnalyzed     int            `json:"files_analyzed"`
	Sessions          int            `json:"sessions"`
	LanguageCounts    map[string]int `json:"language_counts"`
	AverageComplexity float64        `json:"average_complexity"`
}

// Snapshot is the durable form handed to the persistence collaborator at
// flush points. The core never depends on how it is stored.
type Snapshot struct {
	DailyTotals map[string]DayTotals `json:"daily_totals"` // keyed by YYYY-MM-DD
	Files       []FileRecord         `json:"files"`
	SavedAt     time.Time            `json:"saved_at"`
}

// NewSnapshot returns an empty snapshot ready for accumulation.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		DailyTotals: make(map[string]DayTotals),
	}
}
