package inter

import (
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"
)

// Timestamp is a point in time, in nanoseconds. Durations of the protocol
// (input duration, challenge period) use the same unit.
type Timestamp uint64

// FromAbsTime converts a clock reading.
func FromAbsTime(t mclock.AbsTime) Timestamp {
	return Timestamp(t)
}

// Add returns t+d.
func (t Timestamp) Add(d Timestamp) Timestamp {
	return t + d
}

// Duration converts t to a time.Duration.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t)
}

// Seconds is the whole-second value, the unit used on the wire by the original deployments.
func (t Timestamp) Seconds() uint64 {
	return uint64(t) / uint64(time.Second)
}

func (t Timestamp) String() string {
	return t.Duration().String()
}
