//go:build linux || darwin

package arena

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// mapSlab serves the slab from an anonymous private mapping. The mapping is
// released when the Region becomes unreachable.
func mapSlab(size int) (*Region, error) {
	pageSize := os.Getpagesize()
	mapped := (size + pageSize - 1) &^ (pageSize - 1)

	data, err := unix.Mmap(-1, 0, mapped,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		// Out of address space or against rlimits: the heap still works.
		return &Region{b: make([]byte, size)}, nil
	}

	r := &Region{b: data[:size], mapped: true}
	runtime.AddCleanup(r, func(b []byte) { _ = unix.Munmap(b) }, data)
	return r, nil
}
