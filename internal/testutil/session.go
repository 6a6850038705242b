package testutil

// FixedSession returns the same session token for every operation, so a
// scenario's journal is byte-identical across runs.
//
// Stateless and safe for concurrent use.
type FixedSession struct {
	token string
}

// NewFixedSession creates a fixed session generator. An empty token becomes
// "test-session".
func NewFixedSession(token string) *FixedSession {
	if token == "" {
		token = "test-session"
	}
	return &FixedSession{token: token}
}

// Generate returns the fixed token. Implements engine.SessionGenerator.
func (g *FixedSession) Generate() string {
	return g.token
}
