// Package server exposes the status formatter over HTTP.
//
// A request is handled in a fixed order:
//   - Authorization header must equal the configured token (401)
//   - method must be POST (405, with Allow: POST)
//   - body must be JSON (400)
//   - body must pass the validation rules (400)
//   - the text is classified and rendered into the status template (500 on
//     any failure)
//
// Success responses are {"html": "..."}; failures are {"error": "..."}.
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := server.NewHealthServer(8082, checks, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package server
