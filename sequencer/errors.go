package sequencer

import (
	"errors"
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Sentinel errors for the engine's rejection taxonomy. Every error returned
// by a control or scheduling call wraps exactly one of these; test with
// errors.Is. The fault kind (ftag.Get) is InvalidArgument for config and
// degree errors and NotFound for voice index errors.
var (
	ErrConfig        = errors.New("config error")
	ErrIndex         = errors.New("index error")
	ErrInvalidDegree = errors.New("invalid degree")
)

func configError(format string, args ...any) error {
	return fault.Wrap(ErrConfig,
		fmsg.With(fmt.Sprintf(format, args...)),
		ftag.With(ftag.InvalidArgument),
	)
}

func indexError(id, n int) error {
	return fault.Wrap(ErrIndex,
		fmsg.With(fmt.Sprintf("voice %d out of range [0,%d)", id, n)),
		ftag.With(ftag.NotFound),
	)
}

func degreeError(degree, n int) error {
	return fault.Wrap(ErrInvalidDegree,
		fmsg.With(fmt.Sprintf("degree %d out of range [0,%d)", degree, n)),
		ftag.With(ftag.InvalidArgument),
	)
}

// IsConfigError reports whether err is a rejected configuration value.
func IsConfigError(err error) bool { return errors.Is(err, ErrConfig) }

// IsIndexError reports whether err is a rejected voice id.
func IsIndexError(err error) bool { return errors.Is(err, ErrIndex) }
