// Package session manages the controller's connection to the MQTT broker.
//
// Lifecycle:
//
//	Idle ──Open──▶ Connecting ──ok──▶ Connected ──lost──▶ Disconnected
//	 ▲                 │ fail             │                   │ auto-reconnect
//	 └─────────────────┘◀─────Close───────┘◀──────────────────┘
//
// Connecting never blocks the caller: Open returns a channel that reports
// the outcome. Once Connected the session subscribes to the gateway's status
// and availability topics and runs one receive loop that decodes messages
// and hands them to listeners in arrival order. Malformed messages are
// logged and dropped.
//
// Publishing is fire-and-forget: Publish fails fast with ErrNotConnected
// when there is no live connection and never queues or retries.
package session
