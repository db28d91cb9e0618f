package network

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/google/uuid"
)

// maxPoolSize caps how many addresses a single subnet import may create.
const maxPoolSize = 1024

// Service defines device and IP pool business logic.
type Service interface {
	CreateDevice(ctx context.Context, req CreateDeviceRequest) (*Device, error)
	GetDevice(ctx context.Context, id string) (*Device, error)
	ListDevices(ctx context.Context, status string) ([]*Device, error)
	UpdateDeviceStatus(ctx context.Context, id string, status string) (*Device, error)

	ImportSubnet(ctx context.Context, cidr string) ([]*IPAddress, error)
	GetIP(ctx context.Context, id string) (*IPAddress, error)
	ListIPs(ctx context.Context, subnetCIDR, status string) ([]*IPAddress, error)
	AssignIP(ctx context.Context, id string, serviceID string) (*IPAddress, error)
	ReserveIP(ctx context.Context, id string) (*IPAddress, error)
	ReleaseIP(ctx context.Context, id string) (*IPAddress, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

// ── Devices ───────────────────────────────────────────────────────────────────

func (s *service) CreateDevice(ctx context.Context, req CreateDeviceRequest) (*Device, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(req.Type) == "" {
		return nil, fmt.Errorf("type is required")
	}
	if req.IPAddress != "" {
		if _, err := netip.ParseAddr(req.IPAddress); err != nil {
			return nil, fmt.Errorf("invalid ip_address: %w", err)
		}
	}

	d := &Device{
		ID:        uuid.New(),
		Name:      req.Name,
		Type:      strings.ToUpper(req.Type),
		Model:     req.Model,
		IPAddress: req.IPAddress,
		Location:  req.Location,
		Status:    DeviceOffline,
	}
	if err := s.repo.CreateDevice(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) GetDevice(ctx context.Context, id string) (*Device, error) {
	return s.repo.GetDeviceByID(ctx, id)
}

func (s *service) ListDevices(ctx context.Context, status string) ([]*Device, error) {
	return s.repo.ListDevices(ctx, strings.ToUpper(status))
}

func (s *service) UpdateDeviceStatus(ctx context.Context, id string, status string) (*Device, error) {
	next := DeviceStatus(strings.ToUpper(status))
	switch next {
	case DeviceOnline, DeviceOffline, DeviceMaintenance:
	default:
		return nil, fmt.Errorf("unknown device status: %s", status)
	}
	if _, err := s.repo.GetDeviceByID(ctx, id); err != nil {
		return nil, fmt.Errorf("device not found: %w", err)
	}
	// An online report doubles as a heartbeat.
	if err := s.repo.UpdateDeviceStatus(ctx, id, next, next == DeviceOnline); err != nil {
		return nil, err
	}
	return s.repo.GetDeviceByID(ctx, id)
}

// ── IP pool ───────────────────────────────────────────────────────────────────

// ImportSubnet expands a CIDR block into individual pool rows. Network and
// broadcast addresses are skipped for IPv4 subnets.
func (s *service) ImportSubnet(ctx context.Context, cidr string) ([]*IPAddress, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid cidr: %w", err)
	}
	prefix = prefix.Masked()

	var ips []*IPAddress
	for addr := prefix.Addr(); prefix.Contains(addr); addr = addr.Next() {
		ips = append(ips, &IPAddress{
			ID:         uuid.New(),
			Address:    addr.String(),
			SubnetCIDR: prefix.String(),
			Status:     IPAvailable,
		})
		if len(ips) > maxPoolSize {
			return nil, fmt.Errorf("subnet %s exceeds the pool import limit of %d addresses", prefix, maxPoolSize)
		}
	}

	// Drop network and broadcast rows for IPv4.
	if prefix.Addr().Is4() && len(ips) > 2 {
		ips = ips[1 : len(ips)-1]
	}

	if err := s.repo.CreateIPs(ctx, ips); err != nil {
		return nil, err
	}
	return ips, nil
}

func (s *service) GetIP(ctx context.Context, id string) (*IPAddress, error) {
	return s.repo.GetIPByID(ctx, id)
}

func (s *service) ListIPs(ctx context.Context, subnetCIDR, status string) ([]*IPAddress, error) {
	return s.repo.ListIPs(ctx, subnetCIDR, strings.ToUpper(status))
}

func (s *service) AssignIP(ctx context.Context, id string, serviceID string) (*IPAddress, error) {
	parsed, err := uuid.Parse(serviceID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer_service_id: %w", err)
	}

	claimed, err := s.repo.AssignIP(ctx, id, parsed)
	if err != nil {
		return nil, err
	}
	if !claimed {
		ip, lookupErr := s.repo.GetIPByID(ctx, id)
		if lookupErr != nil {
			return nil, fmt.Errorf("ip address not found: %w", lookupErr)
		}
		return nil, fmt.Errorf("ip address %s is not available (status: %s)", ip.Address, ip.Status)
	}
	return s.repo.GetIPByID(ctx, id)
}

func (s *service) ReserveIP(ctx context.Context, id string) (*IPAddress, error) {
	claimed, err := s.repo.ReserveIP(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		ip, lookupErr := s.repo.GetIPByID(ctx, id)
		if lookupErr != nil {
			return nil, fmt.Errorf("ip address not found: %w", lookupErr)
		}
		return nil, fmt.Errorf("ip address %s is not available (status: %s)", ip.Address, ip.Status)
	}
	return s.repo.GetIPByID(ctx, id)
}

func (s *service) ReleaseIP(ctx context.Context, id string) (*IPAddress, error) {
	if _, err := s.repo.GetIPByID(ctx, id); err != nil {
		return nil, fmt.Errorf("ip address not found: %w", err)
	}
	if err := s.repo.ReleaseIP(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetIPByID(ctx, id)
}
