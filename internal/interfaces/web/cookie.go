package web

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

const sessionName = "tablebook_session"

// SessionManager keeps the browser's form-session id in a signed, encrypted cookie.
type SessionManager struct{ sc *securecookie.SecureCookie }

func NewSessionManager(hashKey, blockKey []byte) *SessionManager {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(0)
	return &SessionManager{sc: sc}
}

// EphemeralKeys returns random keys for development; sessions do not survive a restart.
func EphemeralKeys() (hashKey, blockKey []byte) {
	return securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32)
}

func (s *SessionManager) SetID(w http.ResponseWriter, r *http.Request, id string) error {
	encoded, err := s.sc.Encode(sessionName, map[string]string{"sid": id})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *SessionManager) ID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionName)
	if err != nil {
		return "", false
	}
	value := map[string]string{}
	if err := s.sc.Decode(sessionName, c.Value, &value); err != nil {
		return "", false
	}
	id := value["sid"]
	if id == "" {
		return "", false
	}
	return id, true
}

func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}
