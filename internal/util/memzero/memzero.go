// Package memzero wipes secret key material once it is no longer needed.
package memzero

import "runtime"

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// All zeroes every buffer in bufs. Nil entries are skipped.
func All(bufs ...[]byte) {
	for _, b := range bufs {
		Zero(b)
	}
}
