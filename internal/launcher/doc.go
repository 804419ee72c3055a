// Package launcher bootstraps the desktop application: it enforces a
// single running instance, verifies prerequisites, applies pending
// updates, provisions the Python environment, picks the newest installed
// release by semantic version, and hands control to the GUI entry point.
package launcher
