// Package whatsnew carries the per-release notes shown once after an
// update, with platform-appropriate shortcut names.
package whatsnew
