// Package api exposes transcription over HTTP.
//
//	POST /v1/transcriptions   multipart: audio, model, custom_model, format
//	GET  /v1/reports/:name    download a generated report
//	GET  /v1/models           list the allow-listed models
//
// A transcription always answers 200 with the pipeline outcome in the body,
// failures included. Only a malformed upload is rejected with 400.
package api
