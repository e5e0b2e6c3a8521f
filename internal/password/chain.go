package password

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Chain consults providers in fixed configuration order: the first
// non-Unknown decision wins and later providers are never reached. When
// every provider answers Unknown the overall result is Unknown and the
// caller rejects the login.
type Chain struct {
	providers []Provider
	listener  Listener
}

// NewChain builds a chain over the given providers. listener may be nil.
func NewChain(listener Listener, providers ...Provider) *Chain {
	if listener == nil {
		listener = NopListener{}
	}

	return &Chain{providers: providers, listener: listener}
}

// CheckPassword runs the provider chain and publishes the outcome. A
// provider error aborts the chain (after publishing a failure) since it
// signals something more severe than a wrong credential.
func (c *Chain) CheckPassword(username, given string, readOnly bool) (Decision, error) {
	for i, provider := range c.providers {
		decision, err := provider.CheckPassword(username, given, readOnly)
		if err != nil {
			failed := false
			c.listener.OnLoginAttempt(Event{Username: username, Outcome: &failed})

			return Deny, fmt.Errorf("provider %d failed for %q: %w", i, username, err)
		}

		if decision == Unknown {
			log.Debug().Str("omeName", username).Int("provider", i).Msg("provider has no opinion")

			continue
		}

		c.listener.OnLoginAttempt(Event{Username: username, Outcome: decision.Outcome()})

		return decision, nil
	}

	c.listener.OnLoginAttempt(Event{Username: username})

	return Unknown, nil
}

// HasPassword reports whether any provider claims ownership of the user.
func (c *Chain) HasPassword(username string) (bool, error) {
	for _, provider := range c.providers {
		owned, err := provider.HasPassword(username)
		if err != nil {
			return false, err
		}

		if owned {
			return true, nil
		}
	}

	return false, nil
}

// ChangePassword dispatches the change to the first provider claiming
// ownership of the user. No owning provider is a hard failure rather than
// a silent no-op.
func (c *Chain) ChangePassword(username, newPassword string) error {
	for _, provider := range c.providers {
		owned, err := provider.HasPassword(username)
		if err != nil {
			return err
		}

		if owned {
			return provider.ChangePassword(username, newPassword)
		}
	}

	return fmt.Errorf("%w: %q", ErrNoOwningProvider, username)
}
