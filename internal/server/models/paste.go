// Package models defines the persisted entities of the paste store.
package models

import "time"

// Paste is the top-level shareable unit: metadata for a bundle of documents.
// Document contents live in the object store, not here.
type Paste struct {
	ID       int64
	Name     *string
	Creation time.Time
	Edited   *time.Time
	Expiry   *time.Time
	Views    int64
	MaxViews *int64
}

// Expired reports whether the paste is eligible for sweeping at now: its
// expiry has passed or its view cap has been reached.
func (p *Paste) Expired(now time.Time) bool {
	if p.Expiry != nil && !p.Expiry.After(now) {
		return true
	}
	if p.MaxViews != nil && p.Views >= *p.MaxViews {
		return true
	}
	return false
}
