package memsheet

import "sync"

// Gate holds callers of Hold until Release. Set Hold as a backend's
// AfterValues to keep readers on the rows they have already read.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewGate creates a closed gate
func NewGate() *Gate {
	return &Gate{
		entered: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
}

// Hold reports the caller on Entered and blocks until Release
func (g *Gate) Hold() {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
}

// Entered receives one value for every caller that reached Hold
func (g *Gate) Entered() <-chan struct{} {
	return g.entered
}

// Release lets every held and future caller through
func (g *Gate) Release() {
	g.once.Do(func() {
		close(g.release)
	})
}
