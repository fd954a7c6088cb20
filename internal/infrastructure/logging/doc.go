// Package logging is BrickCommander's thin layer over log/slog.
//
// Every record carries the service name and build version, so lines from
// the controller can be told apart from broker or gateway logs when they
// end up in the same collector.
//
// Output is JSON by default and plain text for local runs; level and
// destination come from the logging block of config.yaml:
//
//	logging:
//	  level: "info"      # debug | info | warn | error
//	  format: "json"     # json | text
//	  output: "stdout"   # stdout | stderr | discard
//
// Typical use:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("brick added", "device", dev.Name, "controller", dev.Controller)
//	log.Warn("publish failed", "device", name, "error", err)
//
// Broker passwords and InfluxDB tokens must never reach a log line; log
// the MQTT username if the identity matters.
package logging
