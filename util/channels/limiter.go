package channels

import "context"

// ConcurrencyLimiter bounds the number of concurrent holders of a shared resource such as database sessions.
type ConcurrencyLimiter struct {
	slotC chan struct{}
}

func NewConcurrencyLimiter(numSlots int) ConcurrencyLimiter {
	if numSlots <= 0 {
		numSlots = 1
	}

	return ConcurrencyLimiter{
		slotC: make(chan struct{}, numSlots),
	}
}

// Acquire blocks until a slot is free or the context expires. Only a true return must be paired with Release.
func (s ConcurrencyLimiter) Acquire(ctx context.Context) bool {
	return Submit(ctx, s.slotC, struct{}{})
}

func (s ConcurrencyLimiter) Release() {
	<-s.slotC
}

// Run calls delegate while holding a slot. It returns the context's error when no slot could be acquired.
func (s ConcurrencyLimiter) Run(ctx context.Context, delegate func() error) error {
	if !s.Acquire(ctx) {
		return context.Cause(ctx)
	}

	defer s.Release()
	return delegate()
}
