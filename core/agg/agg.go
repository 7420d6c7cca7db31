// Package agg has the scorecard formulas and the fan-out helper shared by the audit passes.
package agg

import (
	"context"
	"fmt"
	"iter"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/huangsam/codeaudit/schema"
)

// Score bounds shared by every scorecard field and per-file quality score.
const (
	MinScore = 1.0
	MaxScore = 10.0

	// NeutralQualityScore stands in for code quality when no file was scored.
	NeutralQualityScore = 5.0
)

// Security deductions per finding, by tier.
var securityPenalty = map[schema.Severity]float64{
	schema.CriticalSeverity: 3.0,
	schema.HighSeverity:     2.0,
	schema.MediumSeverity:   0.5,
	schema.LowSeverity:      0.1,
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ClampScore rounds to one decimal and bounds the result to [MinScore, MaxScore].
func ClampScore(v float64) float64 {
	return Clamp(Round1(v), MinScore, MaxScore)
}

// CodeQuality is the quality average, or the neutral score when nothing was scored.
func CodeQuality(q schema.QualityReport) float64 {
	if q.FilesAnalyzed == 0 {
		return NeutralQualityScore
	}
	return ClampScore(q.AverageScore)
}

// Security deducts a fixed penalty per finding from a perfect score.
func Security(s schema.SecurityReport) float64 {
	score := MaxScore
	for _, sev := range schema.AllSeverities {
		score -= securityPenalty[sev] * float64(len(s.Bucket(sev)))
	}
	return ClampScore(score)
}

// FeatureCompleteness maps coverage percentage onto the 10-point scale.
func FeatureCompleteness(f schema.FeatureReport) float64 {
	return ClampScore(f.CoveragePercentage / 10)
}

// Database deducts one point per issue and half a point per recommendation.
func Database(d schema.DatabaseReport) float64 {
	return ClampScore(MaxScore - float64(len(d.Issues)) - 0.5*float64(len(d.Recommendations)))
}

// Overall is the mean of the four category scores, rounded to one decimal.
func Overall(codeQuality, security, features, database float64) float64 {
	return Round1((codeQuality + security + features + database) / 4)
}

// ScoreCard derives every scorecard field from the pass results of a report.
func ScoreCard(r *schema.Report) schema.ScoreCard {
	card := schema.ScoreCard{
		CodeQuality:         CodeQuality(r.Quality),
		Security:            Security(r.Security),
		FeatureCompleteness: FeatureCompleteness(r.Features),
		Database:            Database(r.Database),
	}
	card.Overall = Overall(card.CodeQuality, card.Security, card.FeatureCompleteness, card.Database)
	return card
}

// WorkerPanic carries a panic raised inside a FanOut worker back to the caller.
type WorkerPanic struct {
	Value any
	Stack []byte
}

func (p *WorkerPanic) Error() string {
	return fmt.Sprintf("worker panicked: %v", p.Value)
}

// FanOut applies work to every item of seq on a pool of workers and collects
// the results. Result order is unspecified; callers sort when they need to.
// Feeding stops once ctx is cancelled. A panic in work stops feeding and is
// re-raised on the calling goroutine as a *WorkerPanic once the pool drains.
func FanOut[T, R any](ctx context.Context, seq iter.Seq[T], workers int, work func(T) R) []R {
	if workers < 1 {
		workers = 1
	}

	itemCh := make(chan T, workers)
	resultCh := make(chan R, workers)
	var wg sync.WaitGroup
	var failure atomic.Pointer[WorkerPanic]

	safeWork := func(item T) (r R, ok bool) {
		defer func() {
			if v := recover(); v != nil {
				failure.CompareAndSwap(nil, &WorkerPanic{Value: v, Stack: debug.Stack()})
			}
		}()
		return work(item), true
	}

	// Start worker pool; workers keep draining after a panic so the feeder never blocks
	for range workers {
		wg.Go(func() {
			for item := range itemCh {
				if failure.Load() != nil {
					continue
				}
				if r, ok := safeWork(item); ok {
					resultCh <- r
				}
			}
		})
	}

	// Fan in on a single goroutine while the caller feeds
	var results []R
	done := make(chan struct{})
	go func() {
		for r := range resultCh {
			results = append(results, r)
		}
		close(done)
	}()

	for item := range seq {
		if ctx.Err() != nil || failure.Load() != nil {
			break
		}
		itemCh <- item
	}
	close(itemCh)

	wg.Wait()
	close(resultCh)
	<-done

	if p := failure.Load(); p != nil {
		panic(p)
	}
	return results
}
