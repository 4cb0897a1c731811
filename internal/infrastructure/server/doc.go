// Package server wires configuration, the upstream client, the pricing
// pipeline and the HTTP surface into one runnable server.
//
// Routes:
//   - GET /            service banner
//   - GET /health      liveness, registry stats, circuit states
//   - GET /services    registry in display order
//   - GET /pricing     grouped packages, optionally ?category=<id|all>
//   - GET /pricing/stream  WebSocket progress stream
//   - GET /metrics     Prometheus exposition
package server
