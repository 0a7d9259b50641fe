package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// Values masked whatever attribute carries them.
var (
	// Signed access tokens: three base64url segments.
	jwtPattern = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)

	bearerPattern    = regexp.MustCompile(`(?i)^bearer\s+.+$`)
	basicAuthPattern = regexp.MustCompile(`(?i)^basic\s+.+$`)

	// Stored password digests.
	bcryptPattern = regexp.MustCompile(`^\$2[abxy]?\$\d{2}\$[./A-Za-z0-9]{53}$`)
)

// Attribute names masked in every record.
var (
	credentialFields = []string{
		"password", "old_password", "password_hash", "credential", "credentials",
		"secret", "secret_key", "secretKey", "signing_key",
	}
	tokenFields = []string{
		"token", "access_token", "accessToken", "refresh_token", "refreshToken",
		"assertion", "authorization", "auth", "bearer", "cookie", "session",
	}
	keyFields = []string{
		"api_key", "apiKey", "apikey", "private_key", "privateKey", "dsn",
	}
)

// DefaultRedactOptions returns the masq options applied to every logger.
// Provider-specific names such as facebook_token are added by the caller
// through Config.RedactFields.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(credentialFields)+len(tokenFields)+len(keyFields)+6)

	for _, group := range [][]string{credentialFields, tokenFields, keyFields} {
		for _, name := range group {
			opts = append(opts, masq.WithFieldName(name))
		}
	}

	return append(opts,
		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),
		masq.WithRegex(jwtPattern),
		masq.WithRegex(bearerPattern),
		masq.WithRegex(basicAuthPattern),
		masq.WithRegex(bcryptPattern),
	)
}

// NewReplaceAttr returns a slog ReplaceAttr that applies DefaultRedactOptions
// plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
