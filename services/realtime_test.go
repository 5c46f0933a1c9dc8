package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesEverySubscriber(t *testing.T) {
	hub := NewHub()
	topic := AgencyTopic(42)

	first, cancelFirst := hub.Subscribe(topic)
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe(topic)
	defer cancelSecond()

	hub.Publish(topic, Event{Type: "notification.created"})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, "notification.created", event.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestHub_TopicsAreIsolated(t *testing.T) {
	hub := NewHub()

	agencyEvents, cancelAgency := hub.Subscribe(AgencyTopic(1))
	defer cancelAgency()
	conversationEvents, cancelConversation := hub.Subscribe(ConversationTopic(1))
	defer cancelConversation()

	hub.Publish(ConversationTopic(1), Event{Type: "message.created"})

	select {
	case event := <-conversationEvents:
		assert.Equal(t, "message.created", event.Type)
	case <-time.After(time.Second):
		t.Fatal("conversation subscriber did not receive the event")
	}
	assert.Empty(t, agencyEvents)
}

func TestHub_SlowConsumerNeverBlocksPublish(t *testing.T) {
	hub := NewHub()
	topic := ConversationTopic(7)

	events, cancel := hub.Subscribe(topic)
	defer cancel()

	// Publish well past the buffer without consuming; the publisher must not
	// block and the overflow is dropped
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Publish(topic, Event{Type: "message.created"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow consumer")
	}
	assert.Len(t, events, subscriberBuffer)
}

func TestHub_CancelIsIdempotentAndReleasesTheSlot(t *testing.T) {
	hub := NewHub()
	topic := AgencyTopic(9)

	_, cancel := hub.Subscribe(topic)
	require.Equal(t, 1, hub.SubscriberCount(topic))

	cancel()
	assert.Equal(t, 0, hub.SubscriberCount(topic))

	// A second cancel must not panic or close twice
	assert.NotPanics(t, cancel)
}

func TestHub_PublishToEmptyTopicIsANoOp(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() {
		hub.Publish(AgencyTopic(123), Event{Type: "notification.created"})
	})
}
