package cmd

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingPurger struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (p *countingPurger) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, now)
	return 2, p.err
}

func (p *countingPurger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

var _ = Describe("session sweeper", func() {
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixed }

	It("sweeps with the current time", func() {
		purger := &countingPurger{}
		sweepSessions(context.Background(), purger, clock)
		Expect(purger.calls).To(Equal([]time.Time{fixed}))
	})

	It("survives a failing sweep", func() {
		purger := &countingPurger{err: errors.New("connection reset")}
		Expect(func() { sweepSessions(context.Background(), purger, clock) }).NotTo(Panic())
	})

	It("sweeps right away and on every tick until stopped", func() {
		purger := &countingPurger{}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			runSessionSweeper(ctx, purger, 10*time.Millisecond, clock)
		}()

		Eventually(purger.count).Should(BeNumerically(">=", 3))
		cancel()
		Eventually(done).Should(BeClosed())
	})
})

var _ = Describe("event publish", func() {
	It("rejects event types without a handler", func() {
		Expect(publishMembershipEvent(context.Background(), "invoice.paid")).To(HaveOccurred())
	})

	It("runs the membership handlers for a lifecycle event", func() {
		Expect(publishMembershipEvent(context.Background(), "membership.held")).To(Succeed())
	})

	It("carries the hold length on a resumed event", func() {
		eventDaysOnHold = 12
		DeferCleanup(func() { eventDaysOnHold = 0 })
		Expect(publishMembershipEvent(context.Background(), "membership.resumed")).To(Succeed())
	})
})
