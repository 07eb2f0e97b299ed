package idgen

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

const (
	// Layout of a 64-bit ID:
	// 1 bit: Unused (sign bit)
	// 41 bits: Timestamp delta from epoch (milliseconds) - gives ~69 years
	// 5 bits: Process ID - 32 processes per origin
	// 5 bits: Origin ID - 32 hosts
	// 12 bits: Sequence - gives 4096 IDs per millisecond per generator

	originBits   = 5
	processBits  = 5
	sequenceBits = 12

	maxOriginID  = -1 ^ (-1 << originBits)
	maxProcessID = -1 ^ (-1 << processBits)
	maxSequence  = -1 ^ (-1 << sequenceBits)

	originShift    = sequenceBits
	processShift   = sequenceBits + originBits
	timestampShift = sequenceBits + originBits + processBits

	// DefaultEpoch is 2023-04-25 15:30:52.186 UTC.
	DefaultEpoch = 1682436652186

	// DefaultMaxBackwardWait bounds how far back the clock may jump before
	// RegressionWait gives up and reports the regression.
	DefaultMaxBackwardWait = 5 * time.Millisecond
)

// Config configures a Snowflake generator. Zero values select defaults.
type Config struct {
	// OriginID identifies the host. Masked to 5 bits.
	OriginID int64
	// ProcessID identifies the process on the host. Masked to 5 bits.
	ProcessID int64

	// Epoch in milliseconds since the Unix epoch. Zero means DefaultEpoch.
	Epoch int64
	Clock Clock

	RegressionPolicy RegressionPolicy
	MaxBackwardWait  time.Duration

	// PollInterval is the sleep between clock samples while waiting for the
	// next millisecond. Zero spins, yielding the processor between samples.
	PollInterval time.Duration
}

// Snowflake generates unique 64-bit IDs.
type Snowflake struct {
	mu sync.Mutex

	clock           Clock
	epoch           int64
	originID        int64
	processID       int64
	policy          RegressionPolicy
	maxBackwardWait int64
	pollInterval    time.Duration

	lastTime int64
	sequence int64
}

// New creates a new Snowflake ID generator. Out-of-range origin and process
// IDs are truncated to their field width, never rejected.
func New(cfg Config) (*Snowflake, error) {
	if cfg.Clock == nil {
		cfg.Clock = &SystemClock{}
	}
	if cfg.Epoch == 0 {
		cfg.Epoch = DefaultEpoch
	}
	if cfg.RegressionPolicy == "" {
		cfg.RegressionPolicy = RegressionReject
	}
	if cfg.MaxBackwardWait <= 0 {
		cfg.MaxBackwardWait = DefaultMaxBackwardWait
	}

	if _, err := ParseRegressionPolicy(string(cfg.RegressionPolicy)); err != nil {
		return nil, err
	}
	if cfg.Epoch < 0 {
		return nil, fmt.Errorf("%w: %d is negative", ErrInvalidEpoch, cfg.Epoch)
	}
	if now := cfg.Clock.Now(); cfg.Epoch > now {
		return nil, fmt.Errorf("%w: %d is %dms in the future", ErrInvalidEpoch, cfg.Epoch, cfg.Epoch-now)
	}

	return &Snowflake{
		clock:           cfg.Clock,
		epoch:           cfg.Epoch,
		originID:        cfg.OriginID & maxOriginID,
		processID:       cfg.ProcessID & maxProcessID,
		policy:          cfg.RegressionPolicy,
		maxBackwardWait: ceilMillis(cfg.MaxBackwardWait),
		pollInterval:    cfg.PollInterval,
		lastTime:        -1,
		sequence:        0,
	}, nil
}

// Next generates the next unique ID.
//
// When the clock has moved backwards it returns a *ClockRegressionError and
// leaves the generator state untouched, unless the generator runs with
// RegressionWait and the regression is small enough to sleep through.
func (s *Snowflake) Next() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.currentTimeMillis()

	if now < s.lastTime {
		var err error
		if now, err = s.recoverRegression(now); err != nil {
			return 0, err
		}
	}

	if now == s.lastTime {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			// Sequence exhausted, wait for next millisecond
			now = s.waitNextMillis(s.lastTime)
		}
	} else {
		s.sequence = 0
	}

	s.lastTime = now

	id := ((now - s.epoch) << timestampShift) |
		(s.processID << processShift) |
		(s.originID << originShift) |
		(s.sequence)

	return id, nil
}

// OriginID returns the masked origin ID embedded in every ID.
func (s *Snowflake) OriginID() int64 { return s.originID }

// ProcessID returns the masked process ID embedded in every ID.
func (s *Snowflake) ProcessID() int64 { return s.processID }

// Epoch returns the reference instant in Unix milliseconds.
func (s *Snowflake) Epoch() int64 { return s.epoch }

func (s *Snowflake) recoverRegression(now int64) (int64, error) {
	regression := &ClockRegressionError{Last: s.lastTime, Now: now}
	if s.policy != RegressionWait || s.lastTime-now > s.maxBackwardWait {
		return 0, regression
	}
	return s.waitUntil(s.lastTime), nil
}

// waitNextMillis samples the clock until it is strictly after ref.
func (s *Snowflake) waitNextMillis(ref int64) int64 {
	now := s.currentTimeMillis()
	for now <= ref {
		s.pause()
		now = s.currentTimeMillis()
	}
	return now
}

// waitUntil samples the clock until it has caught up with ref.
func (s *Snowflake) waitUntil(ref int64) int64 {
	now := s.currentTimeMillis()
	for now < ref {
		s.pause()
		now = s.currentTimeMillis()
	}
	return now
}

func (s *Snowflake) pause() {
	if s.pollInterval > 0 {
		time.Sleep(s.pollInterval)
		return
	}
	runtime.Gosched()
}

// ceilMillis rounds d up to whole milliseconds so a sub-millisecond bound
// still tolerates a 1ms regression.
func ceilMillis(d time.Duration) int64 {
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}

func (s *Snowflake) currentTimeMillis() int64 {
	return s.clock.Now()
}
