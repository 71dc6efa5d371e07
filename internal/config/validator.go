package config

import "fmt"

// Example values shipped in .env.example that must not reach production.
const (
	ExampleAPIKey = "generate_with_openssl_rand_hex_32"
)

// Warnings reports non-fatal configuration issues worth logging at startup.
func (c *Config) Warnings() []string {
	var warnings []string

	if c.APIKey == ExampleAPIKey {
		warnings = append(warnings, "API_KEY appears to be using the example value - generate a secure key with: openssl rand -hex 32")
	}

	if c.DevAuth && c.Environment == "prod" {
		warnings = append(warnings, "DEV_AUTH is enabled in prod - any client can claim any entity")
	}

	if c.PickupRadius == 0 {
		warnings = append(warnings, "PICKUP_RADIUS is 0 - pickup range checks are disabled")
	}

	if c.IdempotencyTTL < c.BridgeTimeout {
		warnings = append(warnings, fmt.Sprintf("IDEMPOTENCY_TTL (%s) is shorter than BRIDGE_TIMEOUT (%s) - retries may re-apply slow ops", c.IdempotencyTTL, c.BridgeTimeout))
	}

	return warnings
}
