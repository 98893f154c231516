package constants

const (
	// IDRandomBytes is the entropy in generated entity IDs (hex-encoded,
	// so the random part of an ID is twice this many characters).
	IDRandomBytes = 16

	// SessionTokenBytes is the entropy in opaque session tokens.
	SessionTokenBytes = 32

	// SessionCookieName is the cookie carrying the opaque session token.
	SessionCookieName = "session"
)
