// Package semver resolves release folders by semantic version.
//
// The install root holds one subdirectory per release, named with a leading
// "v" and a dotted numeric version (v1.0.3, v1.1.0, ...). SelectLatest picks
// the newest release numerically per component; when no sibling matches the
// pattern it fails with ErrNoVersionDirs, which the launcher surfaces as a
// hard error instead of starting the main program.
package semver
