package tracker

import (
	"errors"

	"raffle-ledger/internal/logger"

	"go.uber.org/zap"
)

var ErrOracleIdentityMismatch = errors.New("tracker: oracle key does not match the program's oracle identity")

// VerifyOracleIdentity checks that settle-draw calls made by this tracker will be
// accepted by the program.
func (t *Tracker) VerifyOracleIdentity() error {
	expected := t.processor.Program().Config().OracleIdentity
	actual := t.oracle.Identity()

	logger.Debug("verify oracle identity", zap.String("expected", expected.Hex()), zap.String("actual", actual.Hex()))
	if expected != actual {
		return ErrOracleIdentityMismatch
	}
	return nil
}
