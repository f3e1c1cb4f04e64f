// Package crm integrates with the external CRM: student identity from a
// stored link token, and the debounced aggregate progress push.
package crm

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/store"
)

// SlotKey is the durable key holding the CRM link.
const SlotKey = "crm_link"

// Link is the stored CRM session established when a student links their
// account.
type Link struct {
	Token       string `json:"token"`
	CRMURL      string `json:"crmUrl"`
	StudentName string `json:"studentName"`
	Phone       string `json:"phone"`
	StudentID   string `json:"studentId"`
	LinkedAt    string `json:"linkedAt"`
}

// tokenClaims is the JWT payload subset the app reads. The token is not
// verified here; the CRM side authenticates, the client only routes.
type tokenClaims struct {
	Sub       string `json:"sub"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
	StudentID string `json:"studentId"`
	Exp       int64  `json:"exp"`
}

// Identity owns the link slot and answers "who is syncing".
type Identity struct {
	mu    sync.Mutex
	slot  *store.Slot[Link]
	clock dates.Clock
	log   logrus.FieldLogger
}

// NewIdentity creates an Identity.
func NewIdentity(s *store.Store, clock dates.Clock, log logrus.FieldLogger) *Identity {
	return &Identity{
		slot:  store.NewSlot[Link](s, SlotKey),
		clock: clock,
		log:   log,
	}
}

// StudentID returns the linked student's CRM ID, or "" when no valid link
// exists. An expired token reads as unlinked.
func (i *Identity) StudentID() string {
	link, ok := i.Current()
	if !ok {
		return ""
	}
	if claims := decodeClaims(link.Token); claims != nil {
		if claims.Exp > 0 && time.Unix(claims.Exp, 0).Before(i.clock.Now()) {
			return ""
		}
		if claims.StudentID != "" {
			return claims.StudentID
		}
	}
	return link.StudentID
}

// Current returns the stored link, false when absent.
func (i *Identity) Current() (Link, bool) {
	link, err := i.slot.Load()
	if err != nil {
		i.log.WithError(err).Debug("crm: load link failed")
		return Link{}, false
	}
	if link.Token == "" {
		return Link{}, false
	}
	return link, true
}

// Token returns the raw link token, "" when unlinked.
func (i *Identity) Token() string {
	link, ok := i.Current()
	if !ok {
		return ""
	}
	return link.Token
}

// SetLink stores a new CRM link, filling StudentID/Phone from the token
// claims when absent.
func (i *Identity) SetLink(link Link) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if claims := decodeClaims(link.Token); claims != nil {
		if link.StudentID == "" {
			link.StudentID = claims.StudentID
		}
		if link.Phone == "" {
			link.Phone = claims.Phone
		}
	}
	if link.LinkedAt == "" {
		link.LinkedAt = i.clock.Now().Format(time.RFC3339)
	}
	return i.slot.Save(link)
}

// Unlink removes the stored link.
func (i *Identity) Unlink() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.slot.Clear()
}

// decodeClaims extracts the JWT payload without verifying the signature.
// Returns nil for anything that is not a parseable JWT.
func decodeClaims(token string) *tokenClaims {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil
	}
	var claims tokenClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil
	}
	return &claims
}
