// Package httpserver provides the HTTP surface for inspecting and
// triggering protocol runs.
//
// The package implements a base HTTP server with standard health
// endpoints, graceful shutdown, and flexible routing, plus the run
// inspection API itself. The server is an operational front for the run
// store; it is not protocol transport. Participants and the collector stay
// co-located in-process.
//
// # Endpoints
//
//   - GET  /api/v1/config        - effective protocol configuration
//   - GET  /api/v1/runs          - stored run records, newest first
//   - GET  /api/v1/runs/{runID}  - one run record
//   - POST /api/v1/runs          - execute a run and return its record
//   - GET  /livez, /readyz, /drain, /undrain - health and lifecycle
package httpserver
