package services

import (
	"errors"
	"sync/atomic"
)

var ErrSuperseded = errors.New("superseded by a newer request")

// Generation hands out monotonically increasing tickets for one logical
// slot. Only the latest ticket is current.
type Generation struct {
	n atomic.Uint64
}

func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

func (g *Generation) Current(ticket uint64) bool {
	return g.n.Load() == ticket
}
