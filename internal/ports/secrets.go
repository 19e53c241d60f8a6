package ports

import "context"

// SecretSource resolves a secret reference, such as a Secrets Manager id, to
// its current value.
type SecretSource interface {
	Secret(ctx context.Context, ref string) (string, error)
}
