/*
Package observability exposes the launcher engine's lifecycle hooks as
Prometheus metrics.

Metrics are registered on a caller-supplied prometheus.Registerer so that
several launchers (or tests) can coexist in one process:

	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}
	engine := runtime.NewEngine(runner, dispatcher, catalog, sched,
		runtime.WithLifecycleHooks(m.Hooks()),
	)
*/
package observability
