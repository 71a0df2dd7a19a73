package flags

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("flag not found")

// KillSwitchKey disables swap execution across the whole service when set.
// Quoting stays live so operators can watch prices while trading is halted.
const KillSwitchKey = "swap.execution.disabled"

type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
