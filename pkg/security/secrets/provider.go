package secrets

import "context"

// SecretProvider retrieves secrets from a backend.
//
// Providers are chained by a Manager; the first that supports a name and
// returns a value wins.
type SecretProvider interface {
	// GetSecret retrieves a secret by name.
	// Returns an error if the secret is not found or cannot be retrieved.
	GetSecret(ctx context.Context, name string) (string, error)

	// ListSecrets returns all secret names available from this provider.
	// Values are not included.
	ListSecrets(ctx context.Context) ([]string, error)

	// Provider returns the provider name (env, file).
	Provider() string

	// Supports indicates if this provider can resolve the given secret name.
	Supports(name string) bool
}
