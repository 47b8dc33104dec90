package click

import (
	"net/http"
	"sort"
	"strings"

	"click-merchant/internal/config"
	"click-merchant/internal/payment"
)

// Registry resolves a configured service name to its Payments.
type Registry struct {
	services   map[string]*Payments
	defaultKey string
	fallback   *Payments
}

// NewRegistry builds one Payments per configured service. Services with no
// credentials at all are skipped; a partially configured service is an
// error.
func NewRegistry(cfg *config.Config, store payment.Repository, client *http.Client) (*Registry, error) {
	reg := &Registry{
		services: make(map[string]*Payments, len(cfg.ClickServices)),
		fallback: unconfigured(store),
	}

	for _, name := range cfg.ClickServiceOrder {
		creds := cfg.ClickServices[name]
		if creds == (config.Service{}) {
			continue
		}
		if err := validateCredentials(creds); err != nil {
			return nil, err
		}

		gw := NewGateway(cfg.ClickEndpoint, creds, client)
		reg.services[name] = NewPayments(name, creds, store, gw)
		if reg.defaultKey == "" {
			reg.defaultKey = name
		}
	}

	if key := cfg.DefaultServiceKey(); reg.services[key] != nil {
		reg.defaultKey = key
	}

	return reg, nil
}

// Get returns the named service, or the default one for an empty name.
// With nothing configured the default is a Payments that refuses every
// operation.
func (r *Registry) Get(name string) (*Payments, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if r.defaultKey == "" {
			return r.fallback, nil
		}
		return r.services[r.defaultKey], nil
	}

	svc, ok := r.services[name]
	if !ok {
		return nil, Errorf(ErrInsufficientPrivilege, "Click service %q is not configured.", name)
	}
	return svc, nil
}

func (r *Registry) DefaultKey() string { return r.defaultKey }

// Names lists configured services in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateCredentials(creds config.Service) error {
	fields := []struct {
		key, value string
	}{
		{"merchant_id", creds.MerchantID},
		{"service_id", creds.ServiceID},
		{"user_id", creds.UserID},
		{"secret_key", creds.SecretKey},
	}
	for _, f := range fields {
		if f.value == "" {
			return Errorf(ErrInsufficientPrivilege, "Missing provider configuration: %s", f.key)
		}
	}
	return nil
}
