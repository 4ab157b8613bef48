package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSpringTearing BookmarkType = "spring_tearing"
	BookmarkPoolSaturated BookmarkType = "pool_saturated"
	BookmarkMassRelease   BookmarkType = "mass_release"
	BookmarkSettled       BookmarkType = "settled"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Tick        int32        `json:"tick"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// Thresholds for bookmark detection.
const (
	tearingMinBroken   = 10   // springs broken in one window
	saturatedFill      = 0.99 // particle pool fill
	massReleaseMin     = 20   // particles released in one window
	massReleaseFrac    = 0.3  // of the previous window's live count
	settledSpeedP90    = 0.05 // world units per second
	settledWindows     = 4
	settledMinParticle = 10
)

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	saturated   bool // edge trigger for pool saturation
	quietCount  int  // consecutive windows below the settled speed
	settledSeen bool // settled already reported since the last disturbance
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < settledWindows+1 {
		historySize = settledWindows + 1
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Tearing: broken springs > 2x rolling average
		if b := bd.checkSpringTearing(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Mass release: a large share of particles erased at once
		if b := bd.checkMassRelease(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if b := bd.checkPoolSaturated(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// previous returns the most recent window added to the history.
func (bd *BookmarkDetector) previous() WindowStats {
	i := bd.historyIdx - 1
	if i < 0 {
		i = bd.historySize - 1
	}
	return bd.history[i]
}

func (bd *BookmarkDetector) checkSpringTearing(stats WindowStats) *Bookmark {
	if stats.SpringsBroken < tearingMinBroken {
		return nil
	}

	history := bd.getHistory()
	var total int
	for _, h := range history {
		total += h.SpringsBroken
	}
	avg := float64(total) / float64(len(history))

	if float64(stats.SpringsBroken) > avg*2 {
		return &Bookmark{
			Type:        BookmarkSpringTearing,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d springs broke, average %.1f per window", stats.SpringsBroken, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkMassRelease(stats WindowStats) *Bookmark {
	prev := bd.previous()
	if stats.Released < massReleaseMin || prev.Particles == 0 {
		return nil
	}

	frac := float64(stats.Released) / float64(prev.Particles)
	if frac < massReleaseFrac {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkMassRelease,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d particles released (%.0f%% of %d)", stats.Released, frac*100, prev.Particles),
	}
}

func (bd *BookmarkDetector) checkPoolSaturated(stats WindowStats) *Bookmark {
	full := stats.ParticleFill >= saturatedFill
	was := bd.saturated
	bd.saturated = full
	if !full || was {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkPoolSaturated,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("particle pool %.0f%% full, %d spawns dropped", stats.ParticleFill*100, stats.SpawnsDropped),
	}
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.Particles < settledMinParticle || stats.SpeedP90 > settledSpeedP90 {
		bd.quietCount = 0
		bd.settledSeen = false
		return nil
	}

	bd.quietCount++
	if bd.quietCount < settledWindows || bd.settledSeen {
		return nil
	}
	bd.settledSeen = true
	return &Bookmark{
		Type:        BookmarkSettled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d particles at rest for %d windows (p90 speed %.3f)", stats.Particles, bd.quietCount, stats.SpeedP90),
	}
}
