package customer

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	customers map[string]*Customer
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{customers: map[string]*Customer{}}
}

func (f *fakeRepo) CreateCustomer(_ context.Context, c *Customer) error {
	f.customers[c.ID.String()] = c
	return nil
}

func (f *fakeRepo) GetCustomerByID(_ context.Context, id string) (*Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeRepo) GetCustomerByAccountNumber(_ context.Context, accountNumber string) (*Customer, error) {
	for _, c := range f.customers {
		if c.AccountNumber == accountNumber {
			return c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepo) ListCustomers(_ context.Context, status string) ([]*Customer, error) {
	var out []*Customer
	for _, c := range f.customers {
		if status == "" || string(c.Status) == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateContact(_ context.Context, c *Customer) error {
	f.customers[c.ID.String()] = c
	return nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	f.customers[id].Status = status
	return nil
}

func (f *fakeRepo) AdjustBalance(_ context.Context, id string, delta float64) (float64, error) {
	c, ok := f.customers[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	c.AccountBalance += delta
	return c.AccountBalance, nil
}

func TestCreateCustomer(t *testing.T) {
	svc := NewService(newFakeRepo())

	c, err := svc.CreateCustomer(t.Context(), "Amina", "Hassan", "amina@example.com", "+254700000001", "Mombasa Rd")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, c.Status)
	assert.True(t, strings.HasPrefix(c.AccountNumber, "ACC-"))
	assert.Zero(t, c.AccountBalance)

	_, err = svc.CreateCustomer(t.Context(), "", "Hassan", "", "+254700000001", "")
	require.Error(t, err)
}

func TestStatusTransitions(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	c, err := svc.CreateCustomer(t.Context(), "Amina", "Hassan", "", "+254700000001", "")
	require.NoError(t, err)
	id := c.ID.String()

	t.Run("active can be suspended and reactivated", func(t *testing.T) {
		require.NoError(t, svc.Suspend(t.Context(), id))
		assert.Equal(t, StatusSuspended, repo.customers[id].Status)

		require.NoError(t, svc.Activate(t.Context(), id))
		assert.Equal(t, StatusActive, repo.customers[id].Status)
	})

	t.Run("terminated is terminal", func(t *testing.T) {
		require.NoError(t, svc.Terminate(t.Context(), id))

		err := svc.Activate(t.Context(), id)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid status transition")

		err = svc.Suspend(t.Context(), id)
		require.Error(t, err)
	})
}

func TestAdjustBalance(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	c, err := svc.CreateCustomer(t.Context(), "Amina", "Hassan", "", "+254700000001", "")
	require.NoError(t, err)

	balance, err := svc.AdjustBalance(t.Context(), c.ID.String(), 1500)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, balance)

	balance, err = svc.AdjustBalance(t.Context(), c.ID.String(), -500)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)

	_, err = svc.AdjustBalance(t.Context(), c.ID.String(), 0)
	require.Error(t, err)
}
