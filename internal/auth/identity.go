// internal/auth/identity.go
package auth

import (
	"bytes"
	"fmt"
	"os"

	"github.com/yellow444/shelfmetrics/internal/domain"
)

// AdminID is the only account the analytics endpoints accept.
const AdminID = 1

// IdentityLog resolves a subject to a numeric user ID by scanning a flat
// credential log. The log is an append-only export: each subject is followed by
// whitespace and its numeric ID. The file is re-read per lookup; it is small
// and replaced wholesale by the operator.
type IdentityLog struct {
	path string
}

func NewIdentityLog(path string) *IdentityLog {
	return &IdentityLog{path: path}
}

// Lookup returns the user ID recorded after the first occurrence of subject.
// A missing file or absent subject resolves to domain.ErrUnknownIdentity.
func (l *IdentityLog) Lookup(subject string) (int, error) {
	if subject == "" {
		return 0, domain.ErrUnknownIdentity
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, fmt.Errorf("%w: credential log unreadable", domain.ErrUnknownIdentity)
	}

	idx := bytes.Index(data, []byte(subject))
	if idx < 0 {
		return 0, domain.ErrUnknownIdentity
	}

	i := idx + len(subject)
	for i < len(data) && (data[i] == ' ' || data[i] == '\t') {
		i++
	}

	start := i
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		i++
	}
	if start == i {
		return 0, domain.ErrUnknownIdentity
	}

	id := 0
	for _, c := range data[start:i] {
		id = id*10 + int(c-'0')
	}
	return id, nil
}
