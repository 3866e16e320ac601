package campaign

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionLogAppendAndRead(t *testing.T) {
	log := NewInteractionLog()
	log.Append(Interaction{Agent: "strategy", Action: "start", Status: InteractionRunning})
	log.Append(Interaction{Agent: "strategy", Action: "complete", Status: InteractionSuccess})

	all := log.All()
	require.Len(t, all, 2)
	assert.Equal(t, "start", all[0].Action)
	assert.False(t, all[0].Timestamp.IsZero())

	recent := log.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "complete", recent[0].Action)
}

func TestInteractionLogCapsHistory(t *testing.T) {
	log := NewInteractionLog()
	for i := 0; i < maxInteractionHistory+10; i++ {
		log.Append(Interaction{Agent: fmt.Sprintf("a%d", i)})
	}
	all := log.All()
	assert.Len(t, all, maxInteractionHistory)
	assert.Equal(t, fmt.Sprintf("a%d", maxInteractionHistory+9), all[len(all)-1].Agent)
}

func TestSubscribeReceivesHistoryAndLive(t *testing.T) {
	log := NewInteractionLog()
	log.Append(Interaction{Agent: "pm"})

	history, live, cancel := log.Subscribe()
	defer cancel()
	require.Len(t, history, 1)

	log.Append(Interaction{Agent: "strategy"})
	select {
	case in := <-live:
		assert.Equal(t, "strategy", in.Agent)
	case <-time.After(time.Second):
		t.Fatal("no live entry received")
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	log := NewInteractionLog()
	_, live, cancel := log.Subscribe()
	defer cancel()

	// Fill the subscriber buffer and overflow it.
	for i := 0; i < 40; i++ {
		log.Append(Interaction{Agent: "pm"})
	}

	// The channel must be closed once the subscriber falls behind.
	closed := false
	for !closed {
		select {
		case _, open := <-live:
			if !open {
				closed = true
			}
		case <-time.After(time.Second):
			t.Fatal("channel never closed")
		}
	}
}

func TestCloseEndsSubscribers(t *testing.T) {
	log := NewInteractionLog()
	log.Append(Interaction{Agent: "pm"})
	_, live, cancel := log.Subscribe()
	defer cancel()

	log.Close()
	_, open := <-live
	assert.False(t, open)

	// History survives close; late subscribers get a closed channel.
	history, lateCh, lateCancel := log.Subscribe()
	defer lateCancel()
	assert.Len(t, history, 1)
	_, open = <-lateCh
	assert.False(t, open)
}
