// Package updater fetches the published release manifest, compares it to
// the installed version, and unpacks newer releases into versioned folders
// under the install root.
package updater
