// Package identify matches measured peak positions against the reference
// database, testing single minerals and small mixtures whose combined
// peaks explain every measured peak within a tolerance.
package identify
