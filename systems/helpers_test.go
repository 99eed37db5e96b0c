package systems

import (
	"github.com/pthm-cable/flappy/config"
)

// testEnv returns the default board: 560x800 with a 720px playfield,
// 2px scroll, 80px pipes and a 240px gap.
func testEnv() Env {
	return NewEnv(config.Default())
}
