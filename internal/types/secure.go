package types

import (
	"log/slog"
	"strconv"
)

// redactedPlaceholder stands in for secret material anywhere a value could
// end up in logs, errors, or serialized output.
const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(strconv.Quote(redactedPlaceholder))

// SecretString holds sensitive text such as a database DSN. All of the
// accidental output paths (fmt via Stringer, encoding/json, slog) yield a
// placeholder; only Unmask returns the real value.
type SecretString string

// String satisfies fmt.Stringer with the placeholder, never the secret.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON encodes the placeholder so config dumps stay safe to share.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// LogValue redacts the value before any slog handler can see it.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redactedPlaceholder)
}

// Unmask returns the plaintext. Call sites should be rare and deliberate,
// such as handing the DSN to the connection pool.
func (s SecretString) Unmask() string {
	return string(s)
}
