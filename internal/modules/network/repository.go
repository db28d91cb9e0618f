package network

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for devices and the IP pool.
type Repository interface {
	CreateDevice(ctx context.Context, d *Device) error
	GetDeviceByID(ctx context.Context, id string) (*Device, error)
	ListDevices(ctx context.Context, status string) ([]*Device, error)
	UpdateDeviceStatus(ctx context.Context, id string, status DeviceStatus, touchLastSeen bool) error

	CreateIPs(ctx context.Context, ips []*IPAddress) error
	GetIPByID(ctx context.Context, id string) (*IPAddress, error)
	ListIPs(ctx context.Context, subnetCIDR, status string) ([]*IPAddress, error)

	// AssignIP claims an AVAILABLE address for a service. It reports whether
	// the claim won; false means the address was not available.
	AssignIP(ctx context.Context, id string, serviceID uuid.UUID) (bool, error)
	ReserveIP(ctx context.Context, id string) (bool, error)
	ReleaseIP(ctx context.Context, id string) error
}
