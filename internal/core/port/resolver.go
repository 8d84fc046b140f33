package port

import (
	"github.com/berfenger/prana2mqtt/pkg/pranadev"
)

// AddressResolver supplies the coordinator with a device address and reports
// changes. The announcement protocol behind it (mDNS, static config, ...) is
// an external concern; only this surface is consumed.
type AddressResolver interface {
	Resolve() (pranadev.DeviceAddress, error)
	OnChange(func(pranadev.DeviceAddress))
}
