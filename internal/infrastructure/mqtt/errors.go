package mqtt

import "errors"

// Sentinel errors returned by Client. Callers match them with errors.Is;
// broker-side causes are wrapped underneath.
var (
	// ErrNotConnected means the client has no live broker connection.
	ErrNotConnected = errors.New("mqtt: not connected to broker")

	// ErrConnectionFailed means Connect could not reach or was refused by
	// the broker, or was cancelled.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed means the broker did not accept a message in time.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed means a subscription was rejected or timed out.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed means an unsubscribe was rejected or timed out.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS means a QoS above 2 was requested.
	ErrInvalidQoS = errors.New("mqtt: qos must be 0, 1 or 2")

	// ErrInvalidTopic means the topic string was empty.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
