// Package session models an interactive processing run as a series of
// reversible commands over a spectrum, mirroring the undo/redo history the
// desktop application keeps. Commands snapshot only the state they touch.
package session
