package idgen

import "sync/atomic"

var defaultGenerator atomic.Pointer[Snowflake]

// SetDefault installs the process-wide generator used by Next. Passing nil
// removes it.
func SetDefault(s *Snowflake) {
	defaultGenerator.Store(s)
}

// Default returns the process-wide generator.
func Default() (*Snowflake, error) {
	s := defaultGenerator.Load()
	if s == nil {
		return nil, ErrNoDefault
	}
	return s, nil
}

// Next generates an ID from the process-wide generator.
func Next() (int64, error) {
	s, err := Default()
	if err != nil {
		return 0, err
	}
	return s.Next()
}
