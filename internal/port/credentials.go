package port

// Credential is a transport-layer username/password pair for remote
// repository access. The zero value means anonymous access.
type Credential struct {
	Username string
	Password string
}

// Empty reports whether the credential carries no secret.
func (c Credential) Empty() bool {
	return c.Username == "" && c.Password == ""
}

// CredentialProvider turns a request-scoped token into a transport
// credential for the remote repository host.
type CredentialProvider interface {
	// Resolve yields the credential for token. An empty token resolves
	// to a configured fallback when one exists, otherwise to the zero
	// credential.
	Resolve(token string) Credential
}
