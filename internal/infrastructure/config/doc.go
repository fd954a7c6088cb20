// Package config loads BrickCommander settings.
//
// Values are layered in this order, later layers winning:
//
//  1. Built-in defaults
//  2. config.yaml (optional when started through LoadOrDefault)
//  3. A .env file in the working directory, if present
//  4. BRICKCOMMANDER_* environment variables
//
// The merged result is checked by Validate before it is returned, so a
// caller never sees a half-valid Config.
//
// Keep the MQTT password and InfluxDB token out of the YAML; set them in
// the environment or .env instead.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	topics := mqtt.NewTopics(cfg.MQTT.Topics)
package config
