package security

import (
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aq2208/gorder-checkout/configs"
)

// Client is an ops caller allowed to request tokens.
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"orders.read"}
	Enabled bool
}

// Clients is the registry of ops clients, keyed by id.
type Clients map[string]Client

func NewClients(cfgs []configs.ClientConfig) Clients {
	out := make(Clients, len(cfgs))
	for _, c := range cfgs {
		out[c.ID] = Client{ID: c.ID, Secret: c.Secret, Perms: c.Perms, Enabled: true}
	}
	return out
}

// Authenticate returns the client when the id is known, enabled and the secret matches.
func (cs Clients) Authenticate(id, secret string) (Client, bool) {
	cl, ok := cs[id]
	if !ok || !cl.Enabled || id == "" || secret == "" {
		return Client{}, false
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(cl.Secret)) != 1 {
		return Client{}, false
	}
	return cl, true
}

// Issuer signs HS256 access tokens carrying the client's permissions.
type Issuer struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	Now      func() time.Time
}

func (i Issuer) Issue(cl Client) (string, error) {
	now := time.Now()
	if i.Now != nil {
		now = i.Now()
	}
	claims := jwt.MapClaims{
		"iss":      i.Issuer,              // issuer
		"aud":      i.Audience,            // audience
		"iat":      now.Unix(),            // issued at
		"nbf":      now.Unix(),            // not before
		"exp":      now.Add(i.TTL).Unix(), // expire
		"clientID": cl.ID,
		"perms":    cl.Perms,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}
