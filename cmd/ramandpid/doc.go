// Package main hosts the ramandpid CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the application lifecycle (launch,
// update, versions, env, doctor), spectrum processing (process, peaks,
// fit), and the reference database (db, identify). It centralizes
// configuration resolution and logger setup so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
