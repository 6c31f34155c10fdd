package auth

import "errors"

// ErrStoreUnavailable is wrapped by every credential store failure that is not
// a plain "no such principal". It surfaces as a 5xx, never as a login failure.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// FailureMessage is the only reason a client ever sees for a failed login.
// It does not say whether the username or the password was wrong.
const FailureMessage = "Bad credentials"
