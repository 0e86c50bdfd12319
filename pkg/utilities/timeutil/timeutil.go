package timeutil

import (
	"time"
)

// TimeUTC is Unix time in seconds, always interpreted in UTC. The zero value
// means "unset".
type TimeUTC struct{ T int64 }

func NowUTC() TimeUTC {
	return TimeUTC{T: time.Now().UTC().Unix()}
}

func FromTime(t time.Time) TimeUTC {
	if t.IsZero() {
		return TimeUTC{}
	}
	return TimeUTC{T: t.UTC().Unix()}
}

func (t TimeUTC) IsZero() bool { return t.T == 0 }

func (t TimeUTC) Time() time.Time { return time.Unix(t.T, 0).UTC() }

func (t TimeUTC) After(other TimeUTC) bool { return t.T > other.T }

func (t TimeUTC) AddSeconds(sec int64) TimeUTC {
	return TimeUTC{T: t.T + sec}
}

func (t TimeUTC) Add(d time.Duration) TimeUTC {
	return TimeUTC{T: t.T + int64(d/time.Second)}
}

// Date is the UTC calendar date as year, month, day.
func (t TimeUTC) Date() (int, int, int) {
	y, m, d := t.Time().Date()
	return y, int(m), d
}
