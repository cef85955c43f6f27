package ledger

import (
	"context"
	"fmt"
	"sort"

	"mercator-hq/vesta/pkg/evidence"
)

// Directory resolves endorsing organizations.
type Directory interface {
	// Organization returns the entry for id or NotFoundError.
	Organization(ctx context.Context, id string) (*evidence.Organization, error)
}

// StaticDirectory is an in-memory directory loaded from configuration.
type StaticDirectory struct {
	orgs map[string]evidence.Organization
}

// NewStaticDirectory builds a directory, rejecting duplicate IDs and ratings
// outside 1-5.
func NewStaticDirectory(orgs []evidence.Organization) (*StaticDirectory, error) {
	d := &StaticDirectory{orgs: make(map[string]evidence.Organization, len(orgs))}
	for _, org := range orgs {
		if org.ID == "" {
			return nil, fmt.Errorf("organization %q has no id", org.Name)
		}
		if _, dup := d.orgs[org.ID]; dup {
			return nil, fmt.Errorf("duplicate organization id %q", org.ID)
		}
		if org.CredibilityRating < 1 || org.CredibilityRating > 5 {
			return nil, fmt.Errorf("organization %q: credibility rating %d outside 1-5", org.ID, org.CredibilityRating)
		}
		d.orgs[org.ID] = org
	}
	return d, nil
}

// Organization returns a copy of the entry for id.
func (d *StaticDirectory) Organization(_ context.Context, id string) (*evidence.Organization, error) {
	org, ok := d.orgs[id]
	if !ok {
		return nil, evidence.NewNotFoundError("organization", id)
	}
	return &org, nil
}

// List returns every organization ordered by ID.
func (d *StaticDirectory) List() []evidence.Organization {
	out := make([]evidence.Organization, 0, len(d.orgs))
	for _, org := range d.orgs {
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
