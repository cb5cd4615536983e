// Package constants centralizes defaults shared across the CLI and the
// library packages.
//
// Storing well-known paths, redirect and body limits, and timeouts in one
// place prevents magic numbers from scattering across cmd/ and internal/.
package constants
