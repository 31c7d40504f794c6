//go:build !linux

package profile

func hostMemoryGB() (float64, bool) { return 0, false }
