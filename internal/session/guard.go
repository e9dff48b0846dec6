package session

import "context"

// Decision is the outcome of a route-guard check.
type Decision int

const (
	// DecisionWait means an identity check is still settling; render a
	// waiting indicator and ask again.
	DecisionWait Decision = iota
	// DecisionAllow means the session is authenticated.
	DecisionAllow
	// DecisionRedirect means the session settled unauthenticated; send the
	// caller to the login entry point.
	DecisionRedirect
)

// Guard wraps protected navigation: it kicks the identity check when one is
// due and maps the store's derived flags onto a render decision.
type Guard struct {
	store *Store
	// LoginURL is where DecisionRedirect should send the caller.
	LoginURL string
}

func NewGuard(store *Store, loginURL string) *Guard {
	return &Guard{store: store, LoginURL: loginURL}
}

// Resolve returns the current decision. While a token is pending
// confirmation it triggers the (coalesced) identity check in the background
// and reports Wait; once the store settles the answer is Allow or Redirect.
func (g *Guard) Resolve(ctx context.Context) Decision {
	if g.store.IsLoading() {
		go func() {
			_ = g.store.CheckAuth(context.WithoutCancel(ctx))
		}()
		return DecisionWait
	}

	if g.store.IsAuthenticated() {
		return DecisionAllow
	}

	return DecisionRedirect
}
