package stabs

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wdbg/stabs/pkg/logging"
	"github.com/wdbg/stabs/pkg/logging/logfields"
)

var log = logging.DefaultLogger.WithFields(logrus.Fields{logfields.LogSubsys: "stabs"})

var (
	// ErrBadStab reports a malformed stab string the decoder could not
	// recover from.
	ErrBadStab = errors.New("bad stab")
	// ErrBadMangled reports an unparsable mangled C++ name.
	ErrBadMangled = errors.New("bad mangled name")
	// ErrBuilder reports a type constructor returning no type.
	ErrBuilder = errors.New("builder returned no type")
	// ErrUnbalancedBlock reports block close/open records that do not
	// nest within a function.
	ErrUnbalancedBlock = errors.New("unbalanced block")
)

func badStab(s string) error {
	return fmt.Errorf("%w: %s", ErrBadStab, s)
}

func badMangled(s string) error {
	return fmt.Errorf("%w: %q", ErrBadMangled, s)
}

func builderErr(what string) error {
	return fmt.Errorf("%w: %s", ErrBuilder, what)
}

// warnStab logs a recoverable oddity in a stab string and lets the
// caller carry on with a fallback.
func warnStab(s, msg string) {
	log.WithField(logfields.Symbol, s).Warn(msg)
}
