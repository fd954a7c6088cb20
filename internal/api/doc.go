// Package api provides the HTTP REST API and WebSocket stream for
// BrickCommander.
//
// It is a thin driver over controller.Controller: every handler calls one
// driver operation and maps its error to an HTTP status.
//
//	GET    /api/v1/health
//	GET    /api/v1/devices
//	POST   /api/v1/devices
//	GET    /api/v1/devices/{name}
//	DELETE /api/v1/devices/{name}
//	POST   /api/v1/devices/{name}/select
//	POST   /api/v1/devices/{name}/transitions
//	GET    /api/v1/selection
//	GET    /api/v1/session
//	POST   /api/v1/session/open
//	POST   /api/v1/session/close
//	POST   /api/v1/session/reconnect
//	GET    /api/v1/gateway
//	POST   /api/v1/gateway/status-request
//	GET    /api/v1/ws
//
// WebSocket clients subscribe to channels (gateway.status,
// gateway.availability, session.state, device.state) and receive one event
// message per change.
//
// Error mapping:
//
//	400  invalid record, unknown transition, invalid direction, bad JSON
//	404  unknown brick, nothing selected
//	409  duplicate name, illegal transition
//	502  broker connection failed
//	503  session not connected
package api
