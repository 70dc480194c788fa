package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier проверяет ID-токены Google через опубликованные ключи провайдера.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier создает верификатор ID-токенов: загружает конфигурацию
// OIDC-провайдера и закрепляет аудиторию за client_id приложения.
func NewGoogleVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	const op = "auth.NewGoogleVerifier"

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Verify проверяет подпись, срок действия и аудиторию токена
// и возвращает данные пользователя.
func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*GoogleClaims, error) {
	const op = "auth.OIDCVerifier.Verify"

	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var claims GoogleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &claims, nil
}
