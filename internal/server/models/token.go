package models

// PasteToken is the bearer credential authorizing mutation and deletion of a
// single paste. One row per paste; tokens are never rotated in place.
type PasteToken struct {
	PasteID int64
	Token   string
}
