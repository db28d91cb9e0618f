package network

import (
	"time"

	"github.com/google/uuid"
)

// DeviceStatus represents the operational state of a network device.
type DeviceStatus string

const (
	DeviceOnline      DeviceStatus = "ONLINE"
	DeviceOffline     DeviceStatus = "OFFLINE"
	DeviceMaintenance DeviceStatus = "MAINTENANCE"
)

// Device is a managed piece of network infrastructure.
type Device struct {
	ID         uuid.UUID    `json:"id"`
	Name       string       `json:"name"`
	Type       string       `json:"type"` // ROUTER, SWITCH, OLT, AP
	Model      string       `json:"model,omitempty"`
	IPAddress  string       `json:"ip_address,omitempty"`
	Location   string       `json:"location,omitempty"`
	Status     DeviceStatus `json:"status"`
	LastSeenAt *time.Time   `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// IPStatus represents the allocation state of a pool address.
type IPStatus string

const (
	IPAvailable IPStatus = "AVAILABLE"
	IPAssigned  IPStatus = "ASSIGNED"
	IPReserved  IPStatus = "RESERVED"
)

// IPAddress is a single allocatable address derived from a subnet.
type IPAddress struct {
	ID                uuid.UUID  `json:"id"`
	Address           string     `json:"address"`
	SubnetCIDR        string     `json:"subnet_cidr"`
	Status            IPStatus   `json:"status"`
	CustomerServiceID *uuid.UUID `json:"customer_service_id,omitempty"`
	AssignedAt        *time.Time `json:"assigned_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CreateDeviceRequest is the payload for registering a device.
type CreateDeviceRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Model     string `json:"model,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Location  string `json:"location,omitempty"`
}

// AssignIPRequest is the payload for assigning a pool address to a service.
type AssignIPRequest struct {
	CustomerServiceID string `json:"customer_service_id"`
}
