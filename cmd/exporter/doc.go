// Package main implements the home network Prometheus exporter.
//
// The exporter runs three independent probe loops and serves their metrics
// on port 9999 (configurable): Cloudflare edge latency every 5 minutes, the
// NR5103E router's cellular signal every 5 seconds, and an Ookla speedtest
// CLI run every 5 minutes. The router admin password is read from the
// NR5103E_PASSWD environment variable.
package main
