package util

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Timer measures how long a simulation batch or narrative call took.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer starting at current time.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t Timer) ElapsedMs() int64 {
	if t.start.IsZero() {
		return 0
	}
	return time.Since(t.start).Milliseconds()
}

// Fields returns fields with elapsed_ms added, for a logrus entry.
func (t Timer) Fields(fields logrus.Fields) logrus.Fields {
	out := make(logrus.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["elapsed_ms"] = t.ElapsedMs()
	return out
}
