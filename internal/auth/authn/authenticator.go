package authn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"bankgate/internal/auth"
	"bankgate/internal/auth/password"
	"bankgate/internal/observability/logging"
	"bankgate/internal/observability/metrics"
)

// Login outcomes as recorded in metrics. Only the authenticator sees them;
// callers get a Result that is identical for every kind of failure.
const (
	OutcomeSuccess          = "success"
	OutcomeEmptyCredentials = "empty_credentials"
	OutcomeUnknownPrincipal = "unknown_principal"
	OutcomeDisabled         = "disabled"
	OutcomeBadPassword      = "bad_password"
	OutcomeStoreError       = "store_error"
)

// Result is the outcome of an authentication attempt
type Result struct {
	// Identity is set when authentication succeeded
	Identity *auth.Identity

	// Failure is the client-facing reason when authentication failed
	Failure string
}

// OK reports whether authentication succeeded
func (r Result) OK() bool {
	return r.Identity != nil
}

var failed = Result{Failure: auth.FailureMessage}

// hasher is implemented by verifiers that can also produce hashes
type hasher interface {
	Hash(plaintext string) (string, error)
}

const dummyPassword = "bankgate-timing-equalizer"

// Authenticator checks username/password pairs against a credential store
type Authenticator struct {
	store    auth.CredentialStore
	verifier password.Verifier
	logger   *logging.Logger
	metrics  *metrics.Collector

	// dummies holds one throwaway hash per bcrypt cost. dummyCost is the
	// cost of the last stored hash seen, so unknown and disabled principals
	// pay for a comparison at the cost the store actually uses.
	mu        sync.Mutex
	dummies   map[int]string
	dummyCost atomic.Int64
}

// New creates an Authenticator. When verifier can hash, a throwaway hash is
// prepared so that unknown and disabled principals still pay for one
// comparison and answer in about the same time as a wrong password.
func New(store auth.CredentialStore, verifier password.Verifier, logger *logging.Logger, metrics *metrics.Collector) (*Authenticator, error) {
	a := &Authenticator{
		store:    store,
		verifier: verifier,
		logger:   logger.WithModule("auth.authn"),
		metrics:  metrics,
	}

	if h, ok := verifier.(hasher); ok {
		dummy, err := h.Hash(dummyPassword)
		if err != nil {
			return nil, fmt.Errorf("prepare dummy hash: %w", err)
		}
		cost, _ := password.CostOf(dummy)
		a.dummies = map[int]string{cost: dummy}
		a.dummyCost.Store(int64(cost))
	}

	return a, nil
}

// Authenticate checks username and plaintext. A failed check is a normal
// Result; the error return is used only when the store cannot be reached,
// in which case it wraps auth.ErrStoreUnavailable.
func (a *Authenticator) Authenticate(ctx context.Context, username, plaintext string) (Result, error) {
	logger := logging.FromContext(ctx, a.logger)

	if username == "" || plaintext == "" {
		return a.fail(logger, username, OutcomeEmptyCredentials), nil
	}

	principal, err := a.store.Lookup(ctx, username)
	if err != nil {
		a.metrics.RecordLogin(OutcomeStoreError)
		logger.Error("Credential lookup failed", logging.Err(err), "username", logging.Username(username))
		if !errors.Is(err, auth.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
		}
		return Result{}, err
	}

	if principal == nil {
		a.burn(plaintext)
		return a.fail(logger, username, OutcomeUnknownPrincipal), nil
	}

	if cost, ok := password.CostOf(principal.PasswordHash); ok {
		a.dummyCost.Store(int64(cost))
	} else {
		logger.Warn("Stored password hash is malformed", "username", logging.Username(username))
	}

	if !principal.Enabled {
		a.burn(plaintext)
		return a.fail(logger, username, OutcomeDisabled), nil
	}

	if !a.verifier.Verify(plaintext, principal.PasswordHash) {
		return a.fail(logger, username, OutcomeBadPassword), nil
	}

	identity := &auth.Identity{
		Username: principal.Username,
		Roles:    principal.Roles,
	}

	a.metrics.RecordLogin(OutcomeSuccess)
	logger.Info("Authentication succeeded",
		"username", logging.Username(identity.Username),
		"roles", identity.Roles.Strings(),
	)

	return Result{Identity: identity}, nil
}

func (a *Authenticator) fail(logger *logging.Logger, username, outcome string) Result {
	a.metrics.RecordLogin(outcome)
	logger.Info("Authentication failed", "username", logging.Username(username), "outcome", outcome)
	return failed
}

// burn spends one hash comparison whose result is discarded
func (a *Authenticator) burn(plaintext string) {
	if a.dummies == nil {
		return
	}
	_ = a.verifier.Verify(plaintext, a.dummyFor(int(a.dummyCost.Load())))
}

// dummyFor returns the throwaway hash for cost, making it on first use
func (a *Authenticator) dummyFor(cost int) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if dummy, ok := a.dummies[cost]; ok {
		return dummy
	}

	dummy, err := (&password.Bcrypt{Cost: cost}).Hash(dummyPassword)
	if err != nil {
		a.logger.Error("Failed to prepare dummy hash", logging.Err(err), "cost", cost)
		for _, fallback := range a.dummies {
			return fallback
		}
		return ""
	}
	a.dummies[cost] = dummy
	return dummy
}
