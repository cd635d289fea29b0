package gameserver

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/gunfeed/internal/game/fire"
)

// LogExecutor carries out intents by logging them. The server has no audio,
// physics or renderer of its own; viewers react to snapshots instead.
type LogExecutor struct {
	logger *zap.Logger
}

// NewLogExecutor returns a LogExecutor writing to logger at debug level.
//
// Precondition: logger must be non-nil.
func NewLogExecutor(logger *zap.Logger) *LogExecutor {
	if logger == nil {
		panic("gameserver.NewLogExecutor: logger must not be nil")
	}
	return &LogExecutor{logger: logger}
}

// PlaySound implements fire.Executor.
func (x *LogExecutor) PlaySound(sound fire.SoundKind) {
	x.logger.Debug("sound", zap.Stringer("sound", sound))
}

// Recoil implements fire.Executor.
func (x *LogExecutor) Recoil(strength fire.Strength) {
	x.logger.Debug("recoil", zap.Float64("strength", float64(strength)))
}

// MuzzleFlash implements fire.Executor.
func (x *LogExecutor) MuzzleFlash() {
	x.logger.Debug("muzzle flash")
}
