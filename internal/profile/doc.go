// Package profile inspects the runtime environment once at startup and
// reduces it to a [Profile]: the handful of signals that decide how much
// rendering work the particle field may spend.
//
// Every signal has a conservative default. A missing hint never fails:
//
//	p := profile.Detect(profile.Signals{UserAgent: ua})
//	if p.LowEnd() {
//		// smaller grid, no post-processing
//	}
package profile
