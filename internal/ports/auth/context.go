package auth

import "context"

type claimsKey struct{}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFrom(ctx context.Context) (Claims, bool) {
	if ctx == nil {
		return Claims{}, false
	}
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

// TokenFrom devuelve el bearer de la sesión (si hay) para reenviarlo a la autoridad.
func TokenFrom(ctx context.Context) string {
	c, ok := ClaimsFrom(ctx)
	if !ok {
		return ""
	}
	return c.Token
}
