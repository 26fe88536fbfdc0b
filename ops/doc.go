// Package ops serves the operational HTTP surface of a hanabi deployment on its own
// listener, separate from the account protocol port.
//
// # Endpoints
//
//   - GET /healthz: pings the credential store; 200 {"status":"ok"} or 503 with a JSON error
//   - GET /metrics: Prometheus exposition of the protocol server metrics
//
// # Usage
//
//	registry := prometheus.NewRegistry()
//	handler := ops.NewHandler(&ops.Config{}, db, registry)
//	srv := &http.Server{Addr: ":9999", Handler: handler.Router()}
//
// Errors are written as JSON objects with "error" and "message" fields.
package ops
