// Package deps verifies the launcher's runtime prerequisites: the Python
// interpreter, the install root and its version folders, the managed
// virtual environment, and the reference database.
package deps
