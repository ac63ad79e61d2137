// Package limits implements the pure admission policy for proposed paste
// contents: document counts, byte sizes, name lengths, content types and
// expiry windows. It never touches a store; callers validate before writing.
package limits

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the first constraint a proposed paste violates.
type Kind string

const (
	TooFewDocuments  Kind = "too_few_documents"
	TooManyDocuments Kind = "too_many_documents"
	DocumentTooSmall Kind = "document_too_small"
	DocumentTooLarge Kind = "document_too_large"
	PasteTooSmall    Kind = "paste_too_small"
	PasteTooLarge    Kind = "paste_too_large"
	NameTooShort     Kind = "name_too_short"
	NameTooLong      Kind = "name_too_long"
	DuplicateName    Kind = "duplicate_name"
	UnsupportedType  Kind = "unsupported_type"
	ExpiryOutOfRange Kind = "expiry_out_of_range"
)

// Violation is a typed validation rejection. It reports the first violated
// constraint, not an aggregate.
type Violation struct {
	Kind Kind
	Msg  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("validation rejected (%s): %s", v.Kind, v.Msg)
}

func violation(kind Kind, format string, args ...any) *Violation {
	return &Violation{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Bounds holds the configured limits. All values are validated at startup by
// the config package; the policy treats them as trusted.
type Bounds struct {
	MinDocumentCount int
	MaxDocumentCount int
	MinDocumentSize  int64
	MaxDocumentSize  int64
	MinTotalSize     int64
	MaxTotalSize     int64
	MinNameLength    int
	MaxNameLength    int

	// Expiry window in hours. Zero max means unbounded.
	MinExpiryHours int
	MaxExpiryHours int

	// Defaults applied when a request omits the field. Zero means "no
	// default": the paste never expires / has no view cap.
	DefaultExpiryHours int
	DefaultMaxViews    int64

	// MIME patterns that are declined, e.g. "image/*" or "application/pdf".
	UnsupportedTypes []string
}

// CheckDocument is the view of a proposed document the policy needs.
type CheckDocument struct {
	Name string
	Type string
	Size int64
}

// Policy validates proposed document sets against configured bounds.
type Policy struct {
	bounds Bounds
}

// New constructs a Policy over the given bounds.
func New(bounds Bounds) *Policy {
	return &Policy{bounds: bounds}
}

// Bounds returns a copy of the configured bounds, for config read-out.
func (p *Policy) Bounds() Bounds {
	return p.bounds
}

// ValidateDocuments checks a resulting document set: count, per-document and
// total sizes, name lengths and uniqueness, and content types. The first
// violated constraint is returned.
func (p *Policy) ValidateDocuments(docs []CheckDocument) error {
	b := p.bounds

	if len(docs) < b.MinDocumentCount {
		return violation(TooFewDocuments, "got %d documents, minimum is %d", len(docs), b.MinDocumentCount)
	}
	if len(docs) > b.MaxDocumentCount {
		return violation(TooManyDocuments, "got %d documents, maximum is %d", len(docs), b.MaxDocumentCount)
	}

	names := make(map[string]struct{}, len(docs))
	var total int64
	for _, d := range docs {
		if len(d.Name) < b.MinNameLength {
			return violation(NameTooShort, "name %q is below the minimum length of %d", d.Name, b.MinNameLength)
		}
		if len(d.Name) > b.MaxNameLength {
			return violation(NameTooLong, "name %q exceeds the maximum length of %d", d.Name, b.MaxNameLength)
		}
		if _, dup := names[d.Name]; dup {
			return violation(DuplicateName, "document name %q is used more than once", d.Name)
		}
		names[d.Name] = struct{}{}

		if d.Size < b.MinDocumentSize {
			return violation(DocumentTooSmall, "document %q is %d bytes, minimum is %d", d.Name, d.Size, b.MinDocumentSize)
		}
		if d.Size > b.MaxDocumentSize {
			return violation(DocumentTooLarge, "document %q is %d bytes, maximum is %d", d.Name, d.Size, b.MaxDocumentSize)
		}
		total += d.Size

		if typeDenied(b.UnsupportedTypes, d.Type) {
			return violation(UnsupportedType, "content type %q is not accepted", d.Type)
		}
	}

	if total < b.MinTotalSize {
		return violation(PasteTooSmall, "paste is %d bytes, minimum is %d", total, b.MinTotalSize)
	}
	if total > b.MaxTotalSize {
		return violation(PasteTooLarge, "paste is %d bytes, maximum is %d", total, b.MaxTotalSize)
	}

	return nil
}

// ValidateExpiry checks a requested expiry timestamp against the configured
// window, measured in whole hours from now.
func (p *Policy) ValidateExpiry(expiry, now time.Time) error {
	hours := expiry.Sub(now).Hours()
	if hours < 0 {
		return violation(ExpiryOutOfRange, "expiry is in the past")
	}
	if hours < float64(p.bounds.MinExpiryHours) {
		return violation(ExpiryOutOfRange, "expiry of %.0f hours is below the minimum of %d", hours, p.bounds.MinExpiryHours)
	}
	if p.bounds.MaxExpiryHours > 0 && hours > float64(p.bounds.MaxExpiryHours) {
		return violation(ExpiryOutOfRange, "expiry of %.0f hours exceeds the maximum of %d", hours, p.bounds.MaxExpiryHours)
	}
	return nil
}

// DefaultExpiry returns the default expiry timestamp for pastes created at
// now, or nil when no default is configured.
func (p *Policy) DefaultExpiry(now time.Time) *time.Time {
	if p.bounds.DefaultExpiryHours <= 0 {
		return nil
	}
	t := now.Add(time.Duration(p.bounds.DefaultExpiryHours) * time.Hour)
	return &t
}

// DefaultMaxViews returns the default view cap, or nil when none is
// configured.
func (p *Policy) DefaultMaxViews() *int64 {
	if p.bounds.DefaultMaxViews <= 0 {
		return nil
	}
	v := p.bounds.DefaultMaxViews
	return &v
}

// typeDenied reports whether contentType matches any pattern in denied.
// Patterns are either exact ("application/pdf") or a wildcard subtype
// ("image/*").
func typeDenied(denied []string, contentType string) bool {
	base, _, _ := strings.Cut(contentType, ";")
	base = strings.TrimSpace(base)
	left, _, ok := strings.Cut(base, "/")
	if !ok {
		return false
	}
	for _, pattern := range denied {
		if pattern == base {
			return true
		}
		if prefix, rest, ok := strings.Cut(pattern, "/"); ok && rest == "*" && prefix == left {
			return true
		}
	}
	return false
}
