package api

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// ExportGate guards the consolidated download with a shared code.
type ExportGate struct {
	password []byte
	hash     []byte
}

// NewExportGate compares against a bcrypt hash when one is given, the plain
// password otherwise.
func NewExportGate(password, hash string) *ExportGate {
	g := &ExportGate{password: []byte(password)}
	if hash != "" {
		g.hash = []byte(hash)
	}
	return g
}

func (g *ExportGate) Allow(code string) bool {
	if code == "" {
		return false
	}
	if len(g.hash) > 0 {
		return bcrypt.CompareHashAndPassword(g.hash, []byte(code)) == nil
	}
	return subtle.ConstantTimeCompare(g.password, []byte(code)) == 1
}
