package models

import "fmt"

// Document is one named, typed content blob belonging to exactly one paste.
// Size is derived from the object-store write and recomputed on replace.
type Document struct {
	ID      int64
	PasteID int64
	Type    string
	Name    string
	Size    int64
}

// StorageKey returns the object-store key for the document's content.
func (d *Document) StorageKey() string {
	return fmt.Sprintf("%d/%d", d.PasteID, d.ID)
}
