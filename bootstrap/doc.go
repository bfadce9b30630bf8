// Package bootstrap wires an audioreport process from its configuration.
//
// NewApp builds the transcription backend with its provider middleware, the
// model loader, the runner, the report builder and the orchestrator. Serve
// runs the HTTP surface until a shutdown signal; RunTask runs one finite job,
// such as a CLI transcription, under the same lifecycle.
package bootstrap
