// Package influxdb records BrickCommander telemetry in InfluxDB 2.x.
//
// Telemetry is optional (influxdb.enabled). When enabled the controller
// writes one point per published brick command and one per gateway status
// or availability message:
//
//	brick_command,site=,device=,controller=,transition= port=,power=,direction=,disconnect=
//	gateway_status,site=,status= message=
//	gateway_availability,site= online=
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package influxdb
