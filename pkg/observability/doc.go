/*
Package observability provides tools for monitoring a running bot.

It exposes Prometheus metrics fed by lifecycle hooks and a middleware, plus
helpers to log lifecycle events and to chain several sets of hooks.
*/
package observability
