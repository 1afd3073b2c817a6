package bench

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrInvalidMode is returned for any mode name other than "trouble" or "normal".
var ErrInvalidMode = errors.New("mode must be one of 'trouble' or 'normal'")

// Mode selects how lookups are executed.
type Mode int

const (
	// ModeUnsafe builds and compiles new SQL text for every lookup.
	ModeUnsafe Mode = iota + 1
	// ModeSafe compiles one parameterized statement and binds each id.
	ModeSafe
)

const (
	modeTrouble = "trouble"
	modeNormal  = "normal"
)

// ParseMode maps "trouble" to ModeUnsafe and "normal" to ModeSafe.
func ParseMode(name string) (Mode, error) {
	switch name {
	case modeTrouble:
		return ModeUnsafe, nil
	case modeNormal:
		return ModeSafe, nil
	}
	return 0, fmt.Errorf("%w: got %q", ErrInvalidMode, name)
}

func (m Mode) String() string {
	switch m {
	case ModeUnsafe:
		return modeTrouble
	case ModeSafe:
		return modeNormal
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) valid() bool {
	return m == ModeUnsafe || m == ModeSafe
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ModeSelector holds the mode used by the next benchmark pass.
type ModeSelector struct {
	mode Mode
	log  *zap.Logger
}

// NewModeSelector validates the initial mode name.
func NewModeSelector(name string, logger *zap.Logger) (*ModeSelector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode, err := ParseMode(name)
	if err != nil {
		return nil, err
	}
	return &ModeSelector{mode: mode, log: logger}, nil
}

// Set switches to the named mode. An invalid name leaves the current mode in place.
func (s *ModeSelector) Set(name string) (Mode, error) {
	mode, err := ParseMode(name)
	if err != nil {
		return s.mode, err
	}
	if mode != s.mode {
		s.log.Info("switching mode", zap.Stringer("from", s.mode), zap.Stringer("to", mode))
	}
	s.mode = mode
	return mode, nil
}

// Mode returns the current mode.
func (s *ModeSelector) Mode() Mode {
	return s.mode
}
