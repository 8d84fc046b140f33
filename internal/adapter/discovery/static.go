package discovery

import (
	"sync"

	"github.com/berfenger/prana2mqtt/internal/core/port"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"
)

// StaticResolver serves the address from configuration. Update notifies
// subscribers so a device that moved to a new IP can be re-bound at runtime.
type StaticResolver struct {
	mu        sync.Mutex
	address   pranadev.DeviceAddress
	listeners []func(pranadev.DeviceAddress)
}

var _ port.AddressResolver = (*StaticResolver)(nil)

func NewStaticResolver(address pranadev.DeviceAddress) *StaticResolver {
	return &StaticResolver{
		address: address,
	}
}

func (r *StaticResolver) Resolve() (pranadev.DeviceAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.address, nil
}

func (r *StaticResolver) OnChange(fn func(pranadev.DeviceAddress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *StaticResolver) Update(address pranadev.DeviceAddress) {
	r.mu.Lock()
	if address == r.address {
		r.mu.Unlock()
		return
	}
	r.address = address
	listeners := make([]func(pranadev.DeviceAddress), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(address)
	}
}
