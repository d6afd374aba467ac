// Package collector implements the probe loops that feed the Prometheus registry.
//
// Each data source gets its own Loop: a fixed-interval ticker that runs one
// probe iteration at a time and translates the result into gauges and
// histograms. The Cloudflare latency and speedtest loops log failures and
// keep going; the router loop keeps a login session and stops on the first
// failure unless re-logins are configured.
package collector
