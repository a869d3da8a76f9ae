// Package main hosts the lineup CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon's local API, plus configuration scaffolding and a
// foreground daemon runner. Keep this package lean: add new functionality by
// extending the internal packages first, then surface it through dedicated
// commands or flags here.
package main
