/*
Package observability provides tools for monitoring the scan loop.

It includes Prometheus metrics fed by the controller's lifecycle hooks,
structured logging hooks for auditing transitions, and Combine for attaching
several hook sets to one controller.
*/
package observability
