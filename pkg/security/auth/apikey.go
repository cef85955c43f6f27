package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"sync"
)

type entry struct {
	digest  [sha256.Size]byte
	name    string
	enabled bool
}

// KeyValidator checks presented keys against the configured operator keys.
// Only digests are kept in memory and every entry is compared in constant
// time.
type KeyValidator struct {
	mu      sync.RWMutex
	entries []entry
}

// NewKeyValidator creates a validator for the given keys.
func NewKeyValidator(keys []Key) *KeyValidator {
	v := &KeyValidator{}
	for _, k := range keys {
		v.Add(k)
	}
	return v
}

// Validate returns the operator owning key.
func (v *KeyValidator) Validate(key string) (*Operator, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	digest := sha256.Sum256([]byte(key))

	v.mu.RLock()
	defer v.mu.RUnlock()

	var match *entry
	for i := range v.entries {
		if subtle.ConstantTimeCompare(v.entries[i].digest[:], digest[:]) == 1 {
			match = &v.entries[i]
		}
	}
	if match == nil {
		return nil, ErrInvalidKey
	}
	if !match.enabled {
		return nil, ErrKeyDisabled
	}
	return &Operator{Name: match.name}, nil
}

// Add registers a key, replacing any entry with the same secret.
func (v *KeyValidator) Add(k Key) {
	e := entry{digest: sha256.Sum256([]byte(k.Secret)), name: k.Name, enabled: k.Enabled}

	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].digest == e.digest {
			v.entries[i] = e
			return
		}
	}
	v.entries = append(v.entries, e)
}

// Remove drops the key with the given operator name.
func (v *KeyValidator) Remove(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.entries[:0]
	for _, e := range v.entries {
		if e.name != name {
			kept = append(kept, e)
		}
	}
	v.entries = kept
}

// Len returns the number of configured keys.
func (v *KeyValidator) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}
