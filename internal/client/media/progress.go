package media

import (
	"math"
	"sync"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
)

// PercentFunc receives upload progress as a whole percentage.
type PercentFunc func(percent int)

// Percent adapts fn to the byte-level progress callback of the HTTP client.
// Reported values are rounded, clamped to [0,100], never decrease and are
// never repeated. Nothing is reported while the total is unknown.
func Percent(fn PercentFunc) client.ProgressFunc {
	if fn == nil {
		return nil
	}
	var (
		mu   sync.Mutex
		last = -1
	)
	return func(sent, total int64) {
		if total <= 0 {
			return
		}
		p := int(math.Round(float64(sent) * 100 / float64(total)))
		p = max(0, min(100, p))

		mu.Lock()
		if p <= last {
			mu.Unlock()
			return
		}
		last = p
		mu.Unlock()

		fn(p)
	}
}
