package service

import (
	"time"

	"github.com/rs/zerolog"
)

type Option func(*options)

type options struct {
	now func() time.Time
	loc *time.Location
	log zerolog.Logger
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the zone that decides the current calendar day.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, loc: time.UTC, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// today is the current calendar date in the configured zone, as UTC
// midnight.
func (o options) today() time.Time {
	return dateOnly(o.now().In(o.loc))
}

func (o options) currentPeriod() (int, int) {
	t := o.now().In(o.loc)
	return t.Year(), int(t.Month())
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// periodKey orders (year, month) pairs as consecutive integers.
func periodKey(year, month int) int {
	return year*12 + month - 1
}

func periodFromKey(key int) (int, int) {
	return key / 12, key%12 + 1
}

func validPeriod(year, month int) bool {
	return year >= 1900 && year <= 9999 && month >= 1 && month <= 12
}

func strPtr(s string) *string {
	return &s
}
