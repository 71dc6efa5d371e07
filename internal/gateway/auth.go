package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Authenticator maps a session token to the entity the client controls.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (entityID uint64, err error)
}

// DevAuthenticator accepts tokens of the form "dev:<entityID>".
type DevAuthenticator struct{}

func (DevAuthenticator) Authenticate(_ context.Context, token string) (uint64, error) {
	raw, ok := strings.CutPrefix(token, DevTokenPrefix)
	if !ok {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad entity id %q", ErrInvalidToken, raw)
	}
	return id, nil
}

// DenyAuthenticator rejects every token. It is used when dev auth is disabled
// and no real token service is configured.
type DenyAuthenticator struct{}

func (DenyAuthenticator) Authenticate(context.Context, string) (uint64, error) {
	return 0, ErrInvalidToken
}
