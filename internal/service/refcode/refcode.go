package refcode

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	prefix       = "WLT"
	timeLayout   = "20060102150405"
	suffixDigits = 6
	suffixMax    = 1000000
)

// New returns a display reference code like WLT-20240131093015-042517.
// Collisions are practically impossible within one process; the database
// unique constraint on reference_code is the actual guarantee.
func New() string {
	return fmt.Sprintf("%s-%s-%0*d", prefix, time.Now().UTC().Format(timeLayout), suffixDigits, rand.IntN(suffixMax))
}
