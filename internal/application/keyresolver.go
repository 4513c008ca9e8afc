package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
	"github.com/ericfisherdev/coviddash/internal/domain/port/driven"
)

// ErrUnknownService is returned for a service name outside model.Services.
var ErrUnknownService = errors.New("unknown service")

// Compile-time interface satisfaction check.
var _ driven.KeySource = (*KeyResolver)(nil)

// KeyResolver enables runtime hot-swap of upstream API keys. Keys read from
// credential files at startup are the fallback; keys stored through the API
// take priority. Upstream clients resolve the key on every request, so a
// change is picked up by the next call without a restart.
type KeyResolver struct {
	mu       sync.RWMutex
	fileKeys map[string]string
	stored   map[string]string
	store    driven.CredentialStore // nil disables stored keys
}

// NewKeyResolver creates a resolver over the given file keys. store may be nil.
func NewKeyResolver(fileKeys map[string]string, store driven.CredentialStore) *KeyResolver {
	files := make(map[string]string, len(fileKeys))
	for k, v := range fileKeys {
		files[k] = v
	}
	return &KeyResolver{
		fileKeys: files,
		stored:   map[string]string{},
		store:    store,
	}
}

// Load reads every stored key into memory. A store without an encryption key
// is not an error; only file keys are used then.
func (r *KeyResolver) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	creds, err := r.store.List(ctx)
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		slog.Info("stored credentials disabled", "reason", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading stored credentials: %w", err)
	}

	stored := make(map[string]string, len(creds))
	for _, c := range creds {
		stored[c.Service] = c.Value
	}

	r.mu.Lock()
	r.stored = stored
	r.mu.Unlock()

	return nil
}

// APIKey returns the active key for service or driven.ErrMissingCredential.
func (r *KeyResolver) APIKey(_ context.Context, service string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if key := r.stored[service]; key != "" {
		return key, nil
	}
	if key := r.fileKeys[service]; key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s: %w", service, driven.ErrMissingCredential)
}

// Set persists key for service and makes it active immediately.
func (r *KeyResolver) Set(ctx context.Context, service, key string) error {
	if !slices.Contains(model.Services, service) {
		return fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key must not be empty")
	}
	if r.store == nil {
		return driven.ErrEncryptionKeyNotSet
	}

	if err := r.store.Set(ctx, service, key); err != nil {
		return err
	}

	r.mu.Lock()
	r.stored[service] = key
	r.mu.Unlock()

	slog.Info("api key updated", "service", service)
	return nil
}

// Delete removes the stored key for service. The file key, if any, becomes
// active again.
func (r *KeyResolver) Delete(ctx context.Context, service string) error {
	if !slices.Contains(model.Services, service) {
		return fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	if r.store == nil {
		return driven.ErrEncryptionKeyNotSet
	}

	if err := r.store.Delete(ctx, service); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.stored, service)
	r.mu.Unlock()

	slog.Info("stored api key removed", "service", service)
	return nil
}

// Has reports whether service has an active key.
func (r *KeyResolver) Has(service string) bool {
	_, err := r.APIKey(context.Background(), service)
	return err == nil
}

// Services reports the origin of every service's active key without
// revealing more than its last four characters.
func (r *KeyResolver) Services() []model.KeyStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.KeyStatus, 0, len(model.Services))
	for _, svc := range model.Services {
		st := model.KeyStatus{Service: svc, Origin: model.KeyOriginNone}
		switch {
		case r.stored[svc] != "":
			st.Origin = model.KeyOriginStored
			st.Masked = mask(r.stored[svc])
		case r.fileKeys[svc] != "":
			st.Origin = model.KeyOriginFile
			st.Masked = mask(r.fileKeys[svc])
		}
		out = append(out, st)
	}
	return out
}

func mask(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
