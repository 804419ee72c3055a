// Package pyenv provisions the Python virtual environment the launcher
// hands the application to. Provisioning is resumable: the completion
// marker is only written after every install step succeeds.
package pyenv
