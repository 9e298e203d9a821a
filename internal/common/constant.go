package common

// Metadata keys read by the transport layer.
const (
	AccessTokenHeaderName = "access_token"
	DomainHeaderName      = "domain"
	IPHeaderName          = "ip"
)

// Defaults applied when a caller omits the claimed origin.
const (
	DefaultDomain = "http://localhost:3000"
	DefaultIP     = "127.0.0.1"
)
