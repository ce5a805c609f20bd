//go:build !linux

package media

// Valid reports false: dma-buf descriptors only exist on Linux.
func (d DMABuf) Valid() bool {
	return false
}
