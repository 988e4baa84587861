// Package inbound is the web-facing callback boundary. It parses the
// provider redirect into a typed request, drives the orchestrator, and
// answers with redirect instructions to the configured static pages.
package inbound
