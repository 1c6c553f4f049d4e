package identity

import (
	"net/http"
)

// Cookies reads and writes the signed session cookie.
type Cookies struct {
	Issuer *Issuer
	Name   string
	Secure bool
}

// Read returns the identity carried by r's session cookie, if it is valid.
func (c Cookies) Read(r *http.Request) (Identity, bool) {
	ck, err := r.Cookie(c.Name)
	if err != nil || ck.Value == "" {
		return Identity{}, false
	}
	id, err := c.Issuer.Parse(ck.Value)
	if err != nil {
		return Identity{}, false
	}
	return id, true
}

func (c Cookies) Write(w http.ResponseWriter, id Identity) error {
	token, exp, err := c.Issuer.Issue(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
