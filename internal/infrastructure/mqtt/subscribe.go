package mqtt

import (
	"fmt"
)

// Subscribe routes messages matching topic to handler and remembers the
// subscription so it is replayed after paho reconnects.
//
// The gateway topics are exact names, but + and # wildcards work as usual,
// e.g. "brickcommander/#" to watch all traffic for one gateway.
//
// Handlers run on paho's delivery goroutine one message at a time (see
// MessageHandler); a slow handler delays status and availability alike.
//
// Parameters:
//   - topic: Topic or filter to subscribe to
//   - qos: Maximum QoS the broker may deliver at (0, 1, or 2)
//   - handler: Called for every matching message
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected, or a wrapped
//     ErrSubscribeFailed
//
// Example:
//
//	err := client.Subscribe(topics.Availability(), 0,
//	    func(_ string, payload []byte) error {
//	        online := string(payload) == "online"
//	        gatewayUp.Store(online)
//	        return nil
//	    })
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case handler == nil:
		return fmt.Errorf("%w: nil handler for %s", ErrSubscribeFailed, topic)
	case !c.IsConnected():
		return ErrNotConnected
	}

	c.track(subscription{topic: topic, qos: qos, handler: handler})

	if err := awaitToken(c.client.Subscribe(topic, qos, c.wrapHandler(handler)), ErrSubscribeFailed); err != nil {
		c.untrack(topic)
		return err
	}
	return nil
}

// Unsubscribe stops delivery for a topic previously passed to Subscribe.
//
// The topic is dropped from the replay set even when the client is offline,
// so a later reconnect does not bring it back. Messages paho has already
// queued may still reach the old handler.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	c.untrack(topic)

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return awaitToken(c.client.Unsubscribe(topic), ErrUnsubscribeFailed)
}

func (c *Client) track(sub subscription) {
	c.subMu.Lock()
	c.subscriptions[sub.topic] = sub
	c.subMu.Unlock()
}

func (c *Client) untrack(topic string) {
	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()
}

// SubscriptionCount reports how many topics would be replayed on reconnect.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// HasSubscription reports whether topic, compared literally, is tracked.
func (c *Client) HasSubscription(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subscriptions[topic]
	return ok
}
