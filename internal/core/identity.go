package core

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator assigns workout identifiers.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

// NewID calls f.
func (f IDGeneratorFunc) NewID() string {
	return f()
}

// ClockIDGenerator derives ids from the millisecond clock, truncated to a
// ten digit suffix, followed by a process-wide counter and a random tail.
// The counter keeps ids unique when the clock does not advance between calls.
type ClockIDGenerator struct {
	now     func() time.Time
	counter atomic.Uint64
}

// NewClockIDGenerator creates a generator reading the wall clock.
func NewClockIDGenerator() *ClockIDGenerator {
	return &ClockIDGenerator{now: time.Now}
}

// NewClockIDGeneratorWithClock creates a generator with an injected clock.
func NewClockIDGeneratorWithClock(now func() time.Time) *ClockIDGenerator {
	return &ClockIDGenerator{now: now}
}

// NewID returns an identifier of the form "<clock>-<counter>-<random>".
func (g *ClockIDGenerator) NewID() string {
	ms := g.now().UnixMilli() % 1e10
	n := g.counter.Add(1)
	return fmt.Sprintf("%010d-%d-%s", ms, n, randomTail())
}

// randomTail returns the random node bits of a UUIDv7.
func randomTail() string {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	s := u.String()
	return s[strings.LastIndex(s, "-")+1:]
}

// Describe formats the human readable summary of a workout, e.g. "Running on March 5".
func Describe(variant Variant, date time.Time) string {
	return fmt.Sprintf("%s on %s %d", variant.Title(), date.Month().String(), date.Day())
}
