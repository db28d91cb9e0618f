package network

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	devices map[string]*Device
	ips     map[string]*IPAddress
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		devices: map[string]*Device{},
		ips:     map[string]*IPAddress{},
	}
}

func (f *fakeRepo) CreateDevice(_ context.Context, d *Device) error {
	f.devices[d.ID.String()] = d
	return nil
}

func (f *fakeRepo) GetDeviceByID(_ context.Context, id string) (*Device, error) {
	d, ok := f.devices[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (f *fakeRepo) ListDevices(_ context.Context, status string) ([]*Device, error) {
	var out []*Device
	for _, d := range f.devices {
		if status == "" || string(d.Status) == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateDeviceStatus(_ context.Context, id string, status DeviceStatus, touchLastSeen bool) error {
	d := f.devices[id]
	d.Status = status
	if touchLastSeen {
		now := time.Now()
		d.LastSeenAt = &now
	}
	return nil
}

func (f *fakeRepo) CreateIPs(_ context.Context, ips []*IPAddress) error {
	for _, ip := range ips {
		f.ips[ip.ID.String()] = ip
	}
	return nil
}

func (f *fakeRepo) GetIPByID(_ context.Context, id string) (*IPAddress, error) {
	ip, ok := f.ips[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return ip, nil
}

func (f *fakeRepo) ListIPs(_ context.Context, subnetCIDR, status string) ([]*IPAddress, error) {
	var out []*IPAddress
	for _, ip := range f.ips {
		if subnetCIDR != "" && ip.SubnetCIDR != subnetCIDR {
			continue
		}
		if status != "" && string(ip.Status) != status {
			continue
		}
		out = append(out, ip)
	}
	return out, nil
}

func (f *fakeRepo) AssignIP(_ context.Context, id string, serviceID uuid.UUID) (bool, error) {
	ip, ok := f.ips[id]
	if !ok || ip.Status != IPAvailable {
		return false, nil
	}
	now := time.Now()
	ip.Status = IPAssigned
	ip.CustomerServiceID = &serviceID
	ip.AssignedAt = &now
	return true, nil
}

func (f *fakeRepo) ReserveIP(_ context.Context, id string) (bool, error) {
	ip, ok := f.ips[id]
	if !ok || ip.Status != IPAvailable {
		return false, nil
	}
	ip.Status = IPReserved
	return true, nil
}

func (f *fakeRepo) ReleaseIP(_ context.Context, id string) error {
	ip := f.ips[id]
	ip.Status = IPAvailable
	ip.CustomerServiceID = nil
	ip.AssignedAt = nil
	return nil
}

func TestImportSubnet(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	t.Run("a /29 yields six usable addresses", func(t *testing.T) {
		ips, err := svc.ImportSubnet(t.Context(), "10.0.0.0/29")
		require.NoError(t, err)
		require.Len(t, ips, 6)
		assert.Equal(t, "10.0.0.1", ips[0].Address)
		assert.Equal(t, "10.0.0.6", ips[len(ips)-1].Address)
		for _, ip := range ips {
			assert.Equal(t, IPAvailable, ip.Status)
		}
	})

	t.Run("rejects malformed cidr", func(t *testing.T) {
		_, err := svc.ImportSubnet(t.Context(), "10.0.0.0/betterhalf")
		require.Error(t, err)
	})

	t.Run("rejects oversized blocks", func(t *testing.T) {
		_, err := svc.ImportSubnet(t.Context(), "10.0.0.0/18")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "import limit")
	})
}

func TestAssignIP(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	ips, err := svc.ImportSubnet(t.Context(), "192.168.1.0/30")
	require.NoError(t, err)
	require.Len(t, ips, 2)
	target := ips[0]

	t.Run("claims an available address", func(t *testing.T) {
		serviceID := uuid.NewString()
		ip, err := svc.AssignIP(t.Context(), target.ID.String(), serviceID)
		require.NoError(t, err)
		assert.Equal(t, IPAssigned, ip.Status)
		require.NotNil(t, ip.CustomerServiceID)
		assert.Equal(t, serviceID, ip.CustomerServiceID.String())
		assert.NotNil(t, ip.AssignedAt)
	})

	t.Run("assigning an already assigned address conflicts", func(t *testing.T) {
		_, err := svc.AssignIP(t.Context(), target.ID.String(), uuid.NewString())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not available")
	})

	t.Run("assigning a reserved address conflicts", func(t *testing.T) {
		reserved := ips[1]
		_, err := svc.ReserveIP(t.Context(), reserved.ID.String())
		require.NoError(t, err)

		_, err = svc.AssignIP(t.Context(), reserved.ID.String(), uuid.NewString())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not available")
	})

	t.Run("release returns the address to the pool", func(t *testing.T) {
		ip, err := svc.ReleaseIP(t.Context(), target.ID.String())
		require.NoError(t, err)
		assert.Equal(t, IPAvailable, ip.Status)
		assert.Nil(t, ip.CustomerServiceID)

		_, err = svc.AssignIP(t.Context(), target.ID.String(), uuid.NewString())
		require.NoError(t, err)
	})
}

func TestUpdateDeviceStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	d, err := svc.CreateDevice(t.Context(), CreateDeviceRequest{Name: "core-olt-1", Type: "olt"})
	require.NoError(t, err)
	assert.Equal(t, DeviceOffline, d.Status)
	assert.Nil(t, d.LastSeenAt)

	t.Run("online report updates last seen", func(t *testing.T) {
		updated, err := svc.UpdateDeviceStatus(t.Context(), d.ID.String(), "online")
		require.NoError(t, err)
		assert.Equal(t, DeviceOnline, updated.Status)
		assert.NotNil(t, updated.LastSeenAt)
	})

	t.Run("maintenance does not touch last seen", func(t *testing.T) {
		before := repo.devices[d.ID.String()].LastSeenAt
		updated, err := svc.UpdateDeviceStatus(t.Context(), d.ID.String(), "MAINTENANCE")
		require.NoError(t, err)
		assert.Equal(t, DeviceMaintenance, updated.Status)
		assert.Equal(t, before, updated.LastSeenAt)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := svc.UpdateDeviceStatus(t.Context(), d.ID.String(), "REBOOTING")
		require.Error(t, err)
	})
}
