// Package health provides liveness, readiness and version endpoints for a
// vesta node.
//
// Checks are registered as critical or non-critical. The local evidence
// queue is critical: without it nothing can be captured. The remote report
// store and connectivity are not, because an offline node is still doing
// its job.
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCritical("queue", health.PingCheck("queue", q))
//	checker.RegisterCheck("remote", health.PingCheck("remote", store))
//	checker.RegisterCheck("connectivity", health.ConnectivityCheck(conn))
//	health.Register(mux, checker, cfg.Telemetry.Health, info)
package health
