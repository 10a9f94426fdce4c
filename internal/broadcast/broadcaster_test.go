package broadcast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rill/internal/broadcast"
	"github.com/aretw0/rill/pkg/domain"
)

func step(seq int) domain.Step {
	return domain.Step{Seq: seq, NodeID: "n", Outcome: domain.OutcomeOK}
}

func TestPublish_InOrderDelivery(t *testing.T) {
	b := broadcast.New()
	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	for i := 1; i <= 5; i++ {
		b.Publish("run-1", step(i))
	}
	b.Close("run-1")

	var got []int
	for s := range ch {
		got = append(got, s.Seq)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestSubscribe_NoBackfill(t *testing.T) {
	b := broadcast.New()

	early, cancelEarly := b.Subscribe("run-1")
	defer cancelEarly()
	b.Publish("run-1", step(1))
	b.Publish("run-1", step(2))

	late, cancelLate := b.Subscribe("run-1")
	defer cancelLate()
	b.Publish("run-1", step(3))
	b.Close("run-1")

	var lateSeqs []int
	for s := range late {
		lateSeqs = append(lateSeqs, s.Seq)
	}
	assert.Equal(t, []int{3}, lateSeqs)

	var earlySeqs []int
	for s := range early {
		earlySeqs = append(earlySeqs, s.Seq)
	}
	assert.Equal(t, []int{1, 2, 3}, earlySeqs)
}

func TestPublish_RunIsolation(t *testing.T) {
	b := broadcast.New()

	ch1, cancel1 := b.Subscribe("run-1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("run-2")
	defer cancel2()

	b.Publish("run-1", step(1))
	b.Close("run-1")
	b.Close("run-2")

	count1 := 0
	for range ch1 {
		count1++
	}
	assert.Equal(t, 1, count1)

	count2 := 0
	for range ch2 {
		count2++
	}
	assert.Zero(t, count2)
}

func TestPublish_OverflowDropsOldest(t *testing.T) {
	b := broadcast.New()
	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	// Nobody drains: overflow the buffer and then some.
	total := 200
	for i := 1; i <= total; i++ {
		b.Publish("run-1", step(i))
	}
	b.Close("run-1")

	var got []int
	for s := range ch {
		got = append(got, s.Seq)
	}

	require.NotEmpty(t, got)
	assert.Less(t, len(got), total, "slow subscriber must lose steps instead of blocking the producer")
	// What survives is the most recent suffix, still in order.
	assert.Equal(t, total, got[len(got)-1])
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1]+1, got[i])
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	b := broadcast.New()
	_, cancel := b.Subscribe("run-1")

	cancel()
	cancel()

	assert.Zero(t, b.SubscriberCount("run-1"))
	// Publishing after everyone left must not panic.
	b.Publish("run-1", step(1))
}

func TestClose_ThenSubscribeAgain(t *testing.T) {
	b := broadcast.New()
	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	b.Close("run-1")
	_, open := <-ch
	assert.False(t, open)
}
