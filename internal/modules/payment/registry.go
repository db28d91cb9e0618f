package payment

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ConfigStore is the slice of the repository the registry reads gateway
// rows from.
type ConfigStore interface {
	ListActiveGatewayConfigs(ctx context.Context) ([]GatewayConfig, error)
}

// Registry maps a gateway name to its configuration, a live adapter and
// a circuit breaker. It is an explicitly constructed service object:
// tests build isolated instances, nothing is process-global.
type Registry struct {
	configs ConfigStore
	store   MpesaStore

	mu       sync.RWMutex
	entries  map[string]*gatewayEntry
	ordering []string // load order, kept for listing
}

type gatewayEntry struct {
	config  GatewayConfig
	adapter Gateway
	breaker *gobreaker.CircuitBreaker
}

func NewRegistry(configs ConfigStore, store MpesaStore) *Registry {
	return &Registry{
		configs: configs,
		store:   store,
		entries: map[string]*gatewayEntry{},
	}
}

// LoadConfigs replaces the full gateway set from storage. New maps are
// built off to the side and swapped in one step so an in-flight request
// never observes a torn registry. There is no auto-reload: operators
// call the reload endpoint after editing gateway settings.
func (r *Registry) LoadConfigs(ctx context.Context) error {
	rows, err := r.configs.ListActiveGatewayConfigs(ctx)
	if err != nil {
		return fmt.Errorf("load gateway configs: %w", err)
	}

	entries := make(map[string]*gatewayEntry, len(rows))
	ordering := make([]string, 0, len(rows))
	for _, cfg := range rows {
		if cfg.PercentFee < 0 {
			cfg.PercentFee = 0
		}
		if cfg.FixedFee < 0 {
			cfg.FixedFee = 0
		}
		if len(cfg.Currencies) == 0 {
			cfg.Currencies = []string{"KES"}
		}

		adapter, ok := r.buildAdapter(cfg)
		if !ok {
			log.Printf("[payment] skipping gateway %q: unknown provider type %q", cfg.Name, cfg.Type)
			continue
		}
		entries[cfg.Name] = &gatewayEntry{
			config:  cfg,
			adapter: adapter,
			breaker: newGatewayBreaker(cfg.Name),
		}
		ordering = append(ordering, cfg.Name)
	}

	r.mu.Lock()
	r.entries = entries
	r.ordering = ordering
	r.mu.Unlock()

	log.Printf("[payment] gateway registry loaded: %d active gateways", len(entries))
	return nil
}

// buildAdapter is the closed provider-type factory.
func (r *Registry) buildAdapter(cfg GatewayConfig) (Gateway, bool) {
	switch cfg.Type {
	case TypeMpesa:
		return NewMpesaGateway(cfg, r.store), true
	case TypeAirtel:
		return NewAirtelGateway(cfg), true
	case TypeStripe:
		return NewStripeGateway(cfg, r.store), true
	case TypeMidtrans:
		return NewMidtransGateway(cfg), true
	case TypeBankTransfer:
		return NewBankTransferGateway(cfg), true
	default:
		return nil, false
	}
}

// Adapter returns the live adapter and its breaker for a gateway name.
func (r *Registry) Adapter(name string) (Gateway, *gobreaker.CircuitBreaker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, nil, false
	}
	return e.adapter, e.breaker, true
}

// Config returns the configuration for a gateway name.
func (r *Registry) Config(name string) (GatewayConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return GatewayConfig{}, false
	}
	return e.config, true
}

// Configs returns every registered configuration in load order.
func (r *Registry) Configs() []GatewayConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]GatewayConfig, 0, len(r.ordering))
	for _, name := range r.ordering {
		out = append(out, r.entries[name].config)
	}
	return out
}

// Register inserts a gateway directly. Test seam; production code goes
// through LoadConfigs.
func (r *Registry) Register(cfg GatewayConfig, adapter Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[cfg.Name]; !exists {
		r.ordering = append(r.ordering, cfg.Name)
	}
	r.entries[cfg.Name] = &gatewayEntry{
		config:  cfg,
		adapter: adapter,
		breaker: newGatewayBreaker(cfg.Name),
	}
}

func newGatewayBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gateway:" + name,
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// ── Selection ─────────────────────────────────────────────────────────────────

// methodSupport is the fixed provider-type → payment-method
// compatibility table.
var methodSupport = map[ProviderType][]PaymentMethod{
	TypeMpesa:        {MethodMobileMoney, MethodMpesa},
	TypeAirtel:       {MethodMobileMoney},
	TypeStripe:       {MethodCard, MethodWallet},
	TypeMidtrans:     {MethodCard, MethodWallet},
	TypeBankTransfer: {MethodBankTransfer, MethodWireTransfer},
}

func typeSupportsMethod(t ProviderType, m PaymentMethod) bool {
	for _, supported := range methodSupport[t] {
		if supported == m {
			return true
		}
	}
	return false
}

// Candidate is a gateway that survived filtering, with its effective
// fee for the requested amount.
type Candidate struct {
	Name   string
	Config GatewayConfig
	Fee    float64
}

// SelectGateway picks the cheapest active gateway supporting the
// method/currency pair. Ties break by gateway name ascending, so the
// result is a pure function of the registry snapshot and arguments.
func (r *Registry) SelectGateway(method PaymentMethod, currency string, amount float64) (*Candidate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []Candidate
	for _, name := range r.ordering {
		cfg := r.entries[name].config
		if !cfg.IsActive {
			continue
		}
		if !cfg.SupportsCurrency(currency) {
			continue
		}
		if !typeSupportsMethod(cfg.Type, method) {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:   name,
			Config: cfg,
			Fee:    ProcessingFee(cfg, amount),
		})
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Fee != candidates[j].Fee {
			return candidates[i].Fee < candidates[j].Fee
		}
		return candidates[i].Name < candidates[j].Name
	})
	best := candidates[0]
	return &best, true
}
