/*
Package http exposes a scan controller over HTTP.

Commands are POST endpoints answering with the resulting status report;
status reports, notices and detections are pushed to browsers over
Server-Sent Events on /events. Prometheus metrics are served on /metrics.
*/
package http
