// Package acl is the anti-corruption layer between the gateway and the
// identity provider. Provider DTOs and error bodies stay inside this package;
// callers see only domain.RemoteProfile and domain errors.
//
// Failures translate as follows:
//   - 400, 401 and 403 responses, or any other 4xx: the token was rejected,
//     [domain.ErrInvalidThirdPartyToken]
//   - 429, 5xx, transport errors, an open circuit: [domain.ErrUnavailable]
//   - a profile without an id: [domain.ErrInvalidThirdPartyToken]
package acl
