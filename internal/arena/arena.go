// Package arena provides slab-backed memory for large fixed-width buffers.
//
// Slabs at or above SlabThreshold are served from anonymous memory mappings
// and unmapped when the owning Region becomes unreachable. Smaller requests,
// and all requests on unsupported platforms, fall back to the Go heap.
package arena

const (
	// SlabThreshold is the smallest allocation served from a mapping.
	SlabThreshold = 64 * 1024
)

// Region owns one contiguous byte slab. Holders must keep the Region
// reachable for as long as any slice derived from Bytes is in use.
type Region struct {
	b      []byte
	mapped bool
}

// Bytes returns the slab. Its length is at least the requested size.
func (r *Region) Bytes() []byte { return r.b }

// Mapped reports whether the slab is backed by an anonymous mapping.
func (r *Region) Mapped() bool { return r.mapped }

// Map allocates a slab of at least size bytes, zero-filled.
func Map(size int) (*Region, error) {
	if size < SlabThreshold {
		return &Region{b: make([]byte, size)}, nil
	}
	return mapSlab(size)
}
