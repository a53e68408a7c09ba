package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"odl-backend/internal/cache"
	"odl-backend/internal/models"
)

// ScanGuard is the advisory replay/rate filter in front of the
// transition pipeline. It suppresses double-taps of the same physical
// code and caps per-operator scan rates. It is not an authority:
// losing its state (restart, Redis outage) can at worst let a
// duplicate legal scan through, which the transition engine rejects on
// its own.
type ScanGuard struct {
	duplicateWindow time.Duration
	ratePerMinute   int
	now             func() time.Time

	// in-process fallback when Redis is unavailable
	mu         sync.Mutex
	seenTokens map[string]time.Time
	actorScans map[int][]time.Time
}

func NewScanGuard(duplicateWindow time.Duration, ratePerMinute int) *ScanGuard {
	return &ScanGuard{
		duplicateWindow: duplicateWindow,
		ratePerMinute:   ratePerMinute,
		now:             time.Now,
		seenTokens:      make(map[string]time.Time),
		actorScans:      make(map[int][]time.Time),
	}
}

// Admit decides whether a scan may proceed to the transition engine.
func (g *ScanGuard) Admit(ctx context.Context, token string, actorID int) error {
	hash := tokenHash(token)
	now := g.now()

	// Duplicate suppression: same token seen within the window
	if firstSeen, ok := cache.RegisterScanToken(ctx, hash, g.duplicateWindow); ok {
		if !firstSeen {
			return models.ErrDuplicateScan
		}
	} else if !g.localRegister(hash, now) {
		return models.ErrDuplicateScan
	}

	// Per-actor rate ceiling over a one-minute window
	if count, ok := cache.CountActorScan(ctx, actorID, now); ok {
		if count > int64(g.ratePerMinute) {
			return models.ErrRateExceeded
		}
	} else if g.localCount(actorID, now) > g.ratePerMinute {
		return models.ErrRateExceeded
	}

	return nil
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:32]
}

func (g *ScanGuard) localRegister(hash string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for h, seen := range g.seenTokens {
		if now.Sub(seen) > g.duplicateWindow {
			delete(g.seenTokens, h)
		}
	}

	if _, seen := g.seenTokens[hash]; seen {
		return false
	}
	g.seenTokens[hash] = now
	return true
}

func (g *ScanGuard) localCount(actorID int, now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	recent := g.actorScans[actorID][:0]
	for _, t := range g.actorScans[actorID] {
		if now.Sub(t) <= time.Minute {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	g.actorScans[actorID] = recent
	return len(recent)
}
