// Package metrics exposes Prometheus metrics of the sync engine.
//
// Metrics are registered on a private registry owned by the Metrics value, so
// several instances can coexist (one per test) and the status API serves
// exactly what this process registered. Metrics implements scheduler.Observer
// and is handed to the pool; the Jamf client reports request outcomes through
// ObserveRequest.
//
// Exposed series:
//
//	change_monitor_runs_total{result}
//	change_monitor_modules_total{module,state}
//	change_monitor_module_duration_seconds{module}
//	change_monitor_changes_total{module,kind}
//	change_monitor_slots_in_use
//	change_monitor_api_requests_total{api,code}
//	change_monitor_api_request_duration_seconds{api}
package metrics
