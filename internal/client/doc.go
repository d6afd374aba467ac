// Package client provides the data-source clients probed by the exporter.
//
// It contains three independent clients: a session client for the NR5103E
// cellular router's web management API, a Cloudflare edge latency tester, and
// a runner for the Ookla speedtest CLI that streams its line-delimited JSON
// output. None of them keep state beyond what a single probe loop needs.
package client
