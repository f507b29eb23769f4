package visitor

// DefaultTokenTTL is the number of seconds an invitation token stays valid
const DefaultTokenTTL = 60 * 60 * 24 * 7

// SimpleConfig is a plain Config implementation. Every component takes its
// configuration at construction time, there are no module-level settings
// read at call time.
type SimpleConfig struct {
	// TokenSecret is the shared secret tokens are derived from
	TokenSecret string
	// TokenTTL is the token lifetime in seconds, DefaultTokenTTL when zero
	TokenTTL int
	// FromAddress is the default sender for outbound notifications
	FromAddress string
	// InvitationURL is the base URL invite tokens get appended to
	InvitationURL string
	// SendUserPassword includes the generated password in welcome emails.
	// Off by default. Mailing cleartext passwords is a security
	// anti-pattern, only enable it for legacy installations that
	// depend on it.
	SendUserPassword bool
}

func (c SimpleConfig) GetTokenSecret() string { return c.TokenSecret }

func (c SimpleConfig) GetTokenTTL() int {
	if c.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}

func (c SimpleConfig) GetFromAddress() string { return c.FromAddress }

func (c SimpleConfig) GetInvitationURL() string { return c.InvitationURL }

func (c SimpleConfig) GetSendUserPassword() bool { return c.SendUserPassword }

var _ Config = SimpleConfig{}
