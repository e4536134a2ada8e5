package homework

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/metrics"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/wise"
)

// TestLink is one currently-active test a student can open. The JSON keys
// and the test_link format are a contract with the front end's link
// resolver and must not change.
type TestLink struct {
	TestName  string `json:"test_name"`
	Subject   string `json:"subject"`
	ClassName string `json:"class_name"`
	Duration  any    `json:"duration"`
	MaxMarks  any    `json:"max_marks"`
	CreatedAt string `json:"created_at"`
	TestLink  string `json:"test_link"`
}

// TimelineSource fetches one class's content timeline.
type TimelineSource interface {
	ContentTimeline(ctx context.Context, classID string) ([]wise.TimelineSection, error)
}

// Discovery fans out one timeline fetch per enrolled class and merges the
// active tests. A failed class contributes zero tests and never fails the
// aggregate; that best-effort contract is deliberate.
type Discovery struct {
	source      TimelineSource
	linkPrefix  string
	concurrency int
	perCall     time.Duration
}

// NewDiscovery creates a discovery with a bounded number of in-flight
// fetches and a per-fetch timeout.
func NewDiscovery(source TimelineSource, linkPrefix string, concurrency int, perCall time.Duration) *Discovery {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Discovery{source: source, linkPrefix: linkPrefix, concurrency: concurrency, perCall: perCall}
}

// ActiveTests returns every ACTIVE test across the given classes, newest
// first. Classes are fetched concurrently with no completion-order
// guarantee; the output order is imposed by the final merge alone. The sort
// is stable, so tests sharing a timestamp keep their discovery order
// (class input order, then timeline order within a class).
func (d *Discovery) ActiveTests(ctx context.Context, classes []wise.Class) []TestLink {
	perClass := make([][]TestLink, len(classes))

	var wg sync.WaitGroup
	sem := make(chan struct{}, d.concurrency)
	for i, cls := range classes {
		wg.Add(1)
		go func(i int, cls wise.Class) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			perClass[i] = d.fetchClass(ctx, cls)
		}(i, cls)
	}
	wg.Wait()

	merged := make([]TestLink, 0)
	for _, tests := range perClass {
		merged = append(merged, tests...)
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return parseCreatedAt(merged[a].CreatedAt).After(parseCreatedAt(merged[b].CreatedAt))
	})
	return merged
}

// fetchClass pulls one timeline and extracts its active tests. Any failure
// is logged, counted, and swallowed.
func (d *Discovery) fetchClass(ctx context.Context, cls wise.Class) []TestLink {
	callCtx := ctx
	if d.perCall > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.perCall)
		defer cancel()
	}

	timeline, err := d.source.ContentTimeline(callCtx, cls.ID)
	if err != nil {
		metrics.FanoutClassFetches.WithLabelValues("error").Inc()
		log.Printf("content timeline fetch failed for class %s: %v", cls.ID, err)
		return nil
	}
	metrics.FanoutClassFetches.WithLabelValues("ok").Inc()

	var tests []TestLink
	for _, section := range timeline {
		for _, entity := range section.Entities {
			if entity.EntityType != "test" || entity.Status != "ACTIVE" {
				continue
			}
			tests = append(tests, TestLink{
				TestName:  entity.Name,
				Subject:   cls.Subject,
				ClassName: cls.Name,
				Duration:  entity.Duration,
				MaxMarks:  entity.MaxMarks,
				CreatedAt: entity.CreatedAt,
				TestLink:  d.linkPrefix + entity.ID + classIDSuffix(cls.ID),
			})
		}
	}
	return tests
}

// classIDSuffix is the last eight characters of the class id. The front
// end's link resolver splits the link at this boundary, so the slice width
// is part of the wire contract.
func classIDSuffix(classID string) string {
	if len(classID) <= 8 {
		return classID
	}
	return classID[len(classID)-8:]
}

func parseCreatedAt(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
