//go:build linux

package profile

import "golang.org/x/sys/unix"

func hostMemoryGB() (float64, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, false
	}
	total := float64(info.Totalram) * float64(info.Unit)
	if total <= 0 {
		return 0, false
	}
	return total / (1 << 30), true
}
