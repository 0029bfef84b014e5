package optimistic

import (
	"math/rand/v2"
	"os"
	"time"

	"github.com/sony/sonyflake"
)

// IDSource issues temporary identities. Every id must be negative.
type IDSource interface {
	NextID() int64
}

// FlakeIDs issues negated sonyflake ids. They increase in magnitude roughly in
// time order and never collide within a process.
type FlakeIDs struct {
	sf *sonyflake.Sonyflake
}

// NewFlakeIDs creates a temporary id source. The machine id comes from the
// process id since temporary ids never leave the process.
func NewFlakeIDs() *FlakeIDs {
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MachineID: func() (uint16, error) { return uint16(os.Getpid()), nil },
	})
	if err != nil {
		sf = nil
	}
	return &FlakeIDs{sf: sf}
}

// NextID returns a negative id. If the generator is unavailable it falls back
// to the negated wall clock in nanoseconds plus jitter.
func (f *FlakeIDs) NextID() int64 {
	if f.sf != nil {
		if v, err := f.sf.NextID(); err == nil {
			return -int64(v) - 1
		}
	}
	return -time.Now().UnixNano() - rand.Int64N(1<<16) - 1
}

// IsTemporary reports whether id was issued locally.
func IsTemporary(id int64) bool {
	return id < 0
}
