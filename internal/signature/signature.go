// Package signature fingerprints what failed in a runner invocation.
//
// A Signature is the set of failed example ids plus, per id, a digest of the
// failure detail (exception class and normalized message). Two runs reproduce
// the same failure only when their signatures are Equivalent; a different
// example failing, or the same example failing differently, does not count.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"specbisect/internal/example"
)

// Mode selects how much of a failure takes part in equivalence.
type Mode string

const (
	// ModeFull compares failed ids and per-id failure detail.
	ModeFull Mode = "full"

	// ModeIDs compares failed ids only.
	ModeIDs Mode = "ids"
)

// ParseMode validates a mode string. Empty selects ModeFull.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeIDs:
		return ModeIDs, nil
	default:
		return "", fmt.Errorf("unknown signature mode %q (valid: full, ids)", s)
	}
}

// Failure is one failed example as reported by the runner.
type Failure struct {
	ID      example.ID
	Class   string
	Message string
}

// Signature is an immutable failure fingerprint.
type Signature struct {
	order   []example.ID
	digests map[string]string
	details map[string]Failure
}

// New builds a signature. Duplicate ids keep their first failure.
func New(failures []Failure, mode Mode) Signature {
	s := Signature{
		digests: make(map[string]string, len(failures)),
		details: make(map[string]Failure, len(failures)),
	}
	for _, f := range failures {
		key := f.ID.String()
		if _, dup := s.digests[key]; dup {
			continue
		}
		s.order = append(s.order, f.ID)
		s.details[key] = f
		if mode == ModeIDs {
			s.digests[key] = ""
		} else {
			s.digests[key] = Digest(f.Class, f.Message)
		}
	}
	return s
}

// IDs returns the failed ids in report order.
func (s Signature) IDs() []example.ID {
	out := make([]example.ID, len(s.order))
	copy(out, s.order)
	return out
}

// Len is the number of failed examples.
func (s Signature) Len() int { return len(s.order) }

// Empty reports whether nothing failed.
func (s Signature) Empty() bool { return len(s.order) == 0 }

// Failure returns the recorded failure for id.
func (s Signature) Failure(id example.ID) (Failure, bool) {
	f, ok := s.details[id.String()]
	return f, ok
}

// Equivalent reports whether both signatures describe the same failure.
func (s Signature) Equivalent(other Signature) bool {
	if len(s.digests) != len(other.digests) {
		return false
	}
	for key, d := range s.digests {
		od, ok := other.digests[key]
		if !ok || od != d {
			return false
		}
	}
	return true
}

// Diff explains how other departs from s. Empty when Equivalent.
func (s Signature) Diff(other Signature) []string {
	var out []string
	for _, id := range s.order {
		key := id.String()
		od, ok := other.digests[key]
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("%s no longer fails", key))
		case od != s.digests[key]:
			f := other.details[key]
			out = append(out, fmt.Sprintf("%s fails differently: %s", key, summarize(f)))
		}
	}
	for _, id := range other.order {
		key := id.String()
		if _, ok := s.digests[key]; !ok {
			out = append(out, fmt.Sprintf("%s now fails: %s", key, summarize(other.details[key])))
		}
	}
	return out
}

func summarize(f Failure) string {
	msg := strings.TrimSpace(f.Message)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if r := []rune(msg); len(r) > 120 {
		msg = string(r[:117]) + "..."
	}
	if f.Class == "" {
		return msg
	}
	return f.Class + ": " + msg
}

var (
	addressPattern  = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
)

// Normalize strips run-specific noise (object addresses, trailing blanks)
// from a failure message.
func Normalize(message string) string {
	out := addressPattern.ReplaceAllString(message, "0x<ADDR>")
	out = trailingSpaceRe.ReplaceAllString(out, "\n")
	return strings.TrimRight(out, " \t\r\n")
}

// Digest hashes a failure's class and normalized message.
func Digest(class, message string) string {
	sum := sha256.Sum256([]byte(class + "\n" + Normalize(message)))
	return hex.EncodeToString(sum[:])
}
