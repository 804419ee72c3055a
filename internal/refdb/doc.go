// Package refdb stores reference spectra in a local SQLite database and
// answers the lookups identification needs: by mineral name and by
// strongest-peak position within a tolerance window. Peak lists and raw
// data are stored as JSON arrays, which also reads databases produced by
// earlier releases.
package refdb
