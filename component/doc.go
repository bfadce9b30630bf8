// Package component manages the lifecycle of long-lived audioreport parts:
// the HTTP server, telemetry exporters and the speech-recognition backend.
//
// Components start in registration order, stop in reverse order and report
// health for the readiness endpoint.
package component
