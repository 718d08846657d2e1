// Package scheduler turns host editor events into bounded analysis work.
// It debounces change bursts per file, dispatches deep analysis on save,
// tracks session active/idle time, and aggregates cached metrics into
// session insights.
package scheduler

import (
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/codepulse/internal/analyzer"
	"github.com/standardbeagle/codepulse/internal/cache"
	"github.com/standardbeagle/codepulse/internal/config"
	"github.com/standardbeagle/codepulse/internal/debug"
	cperrors "github.com/standardbeagle/codepulse/internal/errors"
	"github.com/standardbeagle/codepulse/internal/storage"
	"github.com/standardbeagle/codepulse/internal/types"
)

// EventKind classifies host editor notifications.
type EventKind int

const (
	EventChange EventKind = iota
	EventSave
	EventFocus
)

// Options carries the scheduler's collaborators. Config, Analyzer, Cache,
// and Store are required; Now and ReadFile default to the real clock and
// filesystem and exist for tests.
type Options struct {
	Config   *config.Config
	Analyzer *analyzer.Analyzer
	Cache    *cache.MetricCache[types.FileRecord]
	Store    storage.SnapshotStore
	Now      func() time.Time
	ReadFile func(path string) ([]byte, error)
}

// Scheduler owns the current session and the metric cache. All mutation
// happens behind one mutex; timer and ticker callbacks take it on entry.
type Scheduler struct {
	mu sync.Mutex

	cfg      *config.Config
	analyzer *analyzer.Analyzer
	cache    *cache.MetricCache[types.FileRecord]
	store    storage.SnapshotStore
	now      func() time.Time
	readFile func(string) ([]byte, error)

	debouncer     *analysisDebouncer
	sess          *session
	idleThreshold time.Duration

	done     chan struct{}
	tickerWg sync.WaitGroup
	started  bool
}

// New constructs a scheduler and begins its first session. The idle ticker
// does not run until Start.
func New(opts Options) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}

	s := &Scheduler{
		cfg:           opts.Config,
		analyzer:      opts.Analyzer,
		cache:         opts.Cache,
		store:         opts.Store,
		now:           opts.Now,
		readFile:      opts.ReadFile,
		idleThreshold: time.Duration(opts.Config.Scheduler.IdleAfterMin) * time.Minute,
		sess:          newSession(opts.Now()),
		done:          make(chan struct{}),
	}
	s.debouncer = newAnalysisDebouncer(
		time.Duration(opts.Config.Scheduler.DebounceMs)*time.Millisecond,
		s.runPendingAnalyses,
	)
	return s
}

// Start launches the periodic idle check. Safe to skip in tests that call
// checkIdle directly.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	tick := time.Duration(s.cfg.Scheduler.IdleTickSec) * time.Second
	if tick <= 0 {
		tick = time.Minute
	}

	s.tickerWg.Add(1)
	go func() {
		defer s.tickerWg.Done()
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case now := <-ticker.C:
				s.checkIdle(now)
			}
		}
	}()

	// Periodic flush is opt-in; zero leaves persistence to explicit Flush
	// and Teardown.
	if s.cfg.Scheduler.AutoFlushMin > 0 {
		interval := time.Duration(s.cfg.Scheduler.AutoFlushMin) * time.Minute
		s.tickerWg.Add(1)
		go func() {
			defer s.tickerWg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-s.done:
					return
				case <-ticker.C:
					if err := s.Flush(); err != nil {
						// A failed flush loses session data; surface it
						// even when component logging is off.
						debug.CatastrophicError("auto flush failed: %v\n", err)
					}
				}
			}
		}()
	}
}

// RecordEvent is the single entry point for host editor notifications.
// Content may be nil; it is read from disk when needed.
func (s *Scheduler) RecordEvent(kind EventKind, path string, content []byte) {
	switch kind {
	case EventChange:
		s.markActivity(path)
		s.debouncer.Schedule(path, content)

	case EventSave:
		s.markActivity(path)
		s.deepAnalyze(path, content)

	case EventFocus:
		if path == "" {
			return
		}
		language := analyzer.LanguageForPath(path)
		if s.cfg.IsTracked(path) && !s.cfg.LanguageExcluded(language) {
			s.markActivity(path)
		}
	}
}

func (s *Scheduler) markActivity(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.touch(path, s.now())
}

// runPendingAnalyses is the debounce-fire path: light analysis for every
// file still pending. A live cache entry means typed-but-unsaved edits do
// not overwrite it; the next save refreshes it instead.
func (s *Scheduler) runPendingAnalyses(pending map[string][]byte) {
	for path, payload := range pending {
		if s.cache.Contains(path) {
			debug.LogSched("light analysis skipped for %s (live cache entry)", path)
			continue
		}

		content := payload
		if content == nil {
			data, err := s.readFile(path)
			if err != nil {
				debug.LogSched("dropping %s: %v", path, cperrors.NewFileError("read", path, err))
				continue
			}
			content = data
		}

		// A deep save may land between the Contains check and this write;
		// SetIfAbsent makes the existence check and the store atomic so the
		// stale change payload never clobbers the save's result.
		if !s.cache.SetIfAbsent(path, s.buildRecord(path, content, false)) {
			debug.LogSched("light analysis discarded for %s (deep result landed first)", path)
		}
	}
}

// deepAnalyze runs synchronously on save, bypassing the debounce window
// and any cached entry.
func (s *Scheduler) deepAnalyze(path string, content []byte) {
	if content == nil {
		data, err := s.readFile(path)
		if err != nil {
			debug.LogSched("deep analysis dropped for %s: %v", path, err)
			return
		}
		content = data
	}

	// Unchanged content keeps its metrics; only the observation time moves.
	// Update holds the cache lock across the hash comparison and the write,
	// so a concurrent save of different content cannot be rolled back.
	hash := xxhash.Sum64(content)
	refreshed := s.cache.Update(path, func(record types.FileRecord) (types.FileRecord, bool) {
		if record.ContentHash != hash {
			return record, false
		}
		record.ObservedAt = s.now()
		return record, true
	})
	if refreshed {
		debug.LogSched("deep analysis short-circuited for %s (hash match)", path)
		return
	}

	s.cache.Set(path, s.buildRecord(path, content, true))
}

// buildRecord picks full vs. quick analysis and assembles the record.
// Saves always analyze fully; light analysis goes quick past the size
// threshold to bound latency on large documents.
func (s *Scheduler) buildRecord(path string, content []byte, deep bool) types.FileRecord {
	language := analyzer.LanguageForPath(path)

	var metrics types.ComplexityMetrics
	if deep || len(content) < s.cfg.Analysis.QuickThresholdBytes {
		metrics = s.analyzer.Analyze(content, language)
	} else {
		metrics = s.analyzer.QuickAnalyze(content, language)
	}

	return types.FileRecord{
		Path:        path,
		Language:    language,
		LineCount:   lineCount(content),
		ContentHash: xxhash.Sum64(content),
		Metrics:     metrics,
		ObservedAt:  s.now(),
	}
}

// checkIdle adds the whole gap since last activity to the idle accumulator
// once it crosses the threshold, then resets the activity clock.
func (s *Scheduler) checkIdle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gap := now.Sub(s.sess.lastActivity)
	if gap > s.idleThreshold {
		s.sess.idleAccumulated += gap
		s.sess.lastActivity = now
		debug.LogSched("idle gap of %v added (total idle %v)", gap, s.sess.idleAccumulated)
	}
}

// Insights aggregates the current session and cache contents.
func (s *Scheduler) Insights() types.SessionInsights {
	s.mu.Lock()
	now := s.now()
	duration := s.sess.duration(now)
	active := s.sess.activeTime(now)
	idle := s.sess.idleAccumulated
	filesTracked := len(s.sess.activeFiles)
	s.mu.Unlock()

	languages := make(map[string]int)
	var complexities []float64
	s.cache.ForEach(func(_ string, record types.FileRecord) {
		languages[record.Language]++
		complexities = append(complexities, float64(record.Metrics.Cyclomatic))
	})

	return types.SessionInsights{
		DurationMinutes:   duration.Minutes(),
		ActiveMinutes:     active.Minutes(),
		IdleMinutes:       idle.Minutes(),
		FilesTracked:      filesTracked,
		LanguageBreakdown: languages,
		AverageComplexity: outlierFilteredMean(complexities),
	}
}

// Flush folds the current session and cache into the persisted snapshot
// and begins a fresh session. This is the only way a session ends, apart
// from Teardown (which flushes too).
func (s *Scheduler) Flush() error {
	snap, err := s.store.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	now := s.now()
	active := s.sess.activeTime(now)
	idle := s.sess.idleAccumulated
	filesTouched := len(s.sess.activeFiles)
	s.sess = newSession(now)
	s.mu.Unlock()

	languages := make(map[string]int)
	var complexities []float64
	var records []types.FileRecord
	s.cache.ForEach(func(_ string, record types.FileRecord) {
		languages[record.Language]++
		complexities = append(complexities, float64(record.Metrics.Cyclomatic))
		records = append(records, record)
	})

	day := now.Format("2006-01-02")
	totals := snap.DailyTotals[day]
	totals.ActiveMinutes += active.Minutes()
	totals.IdleMinutes += idle.Minutes()
	totals.Sessions++
	totals.FilesAnalyzed += filesTouched
	if totals.LanguageCounts == nil {
		totals.LanguageCounts = make(map[string]int)
	}
	for language, count := range languages {
		totals.LanguageCounts[language] += count
	}
	totals.AverageComplexity = outlierFilteredMean(complexities)
	snap.DailyTotals[day] = totals

	snap.Files = records
	snap.SavedAt = now

	return s.store.Save(snap)
}

// Teardown stops timers and flushes the final session.
func (s *Scheduler) Teardown() error {
	s.mu.Lock()
	if s.started {
		close(s.done)
		s.started = false
	}
	s.mu.Unlock()
	s.tickerWg.Wait()

	s.debouncer.Stop()
	return s.Flush()
}

func lineCount(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 0
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
