// Package mqtt provides MQTT client connectivity for BrickCommander.
//
// This package manages:
//   - Connection to the gateway's broker with optional auto-reconnect
//   - Blocking and fire-and-forget publishing
//   - Topic subscriptions restored after reconnect
//   - The topic layout shared with the gateway firmware
//
// # Architecture
//
// The controller never talks to a brick directly. It publishes commands to
// a broker; a gateway (an ESP32 running the BrickCommander firmware) holds
// the Bluetooth links, executes commands and reports back:
//
//	Controller ↔ MQTT Broker ↔ Gateway ↔ Bricks
//
// # Topics
//
//	<base>/command       controller → gateway, one JSON command per message
//	<base>/status        gateway → controller, {"status":"OK|ERROR","message":...}
//	<base>/availability  gateway → controller, "online" / "offline"
//	<base>/config        controller → gateway, e.g. {"status":1}
//
// # Connection Semantics
//
// The initial Connect is attempted once and fails fast. Once established, a
// lost connection is re-established by paho when cfg.Reconnect.Auto is set,
// and tracked subscriptions are restored.
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.MQTT.Topics)
//	err = client.Subscribe(topics.Status(), 0,
//	    func(topic string, payload []byte) error {
//	        log.Printf("status: %s", payload)
//	        return nil
//	    })
//
//	client.PublishNoWait(topics.Command(), payload, 0, false)
package mqtt
