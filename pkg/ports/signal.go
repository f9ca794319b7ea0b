package ports

// Signal is an externally settable boolean flag polled once per epoch
// (for example, a timeout raised by the host).
type Signal interface {
	IsSet() bool
}
