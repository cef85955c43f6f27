package health

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/vesta/pkg/connectivity"
)

// Pinger is implemented by the evidence queue and the remote report store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrOffline is reported by ConnectivityCheck while the remote is unreachable.
var ErrOffline = errors.New("remote unreachable")

// PingCheck wraps a component that can be pinged.
func PingCheck(component string, p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", component, err)
		}
		return nil
	}
}

// ConnectivityCheck reports the current remote reachability.
func ConnectivityCheck(c connectivity.Checker) CheckFunc {
	return func(ctx context.Context) error {
		if !c.Online(ctx) {
			return ErrOffline
		}
		return nil
	}
}
