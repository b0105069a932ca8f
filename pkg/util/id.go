// Package util contains any functions used across the application that don't match
// any other package
package util

import (
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	IDLength  = 16
)

var idPattern = regexp.MustCompile(`^[0-9a-zA-Z]{16}$`)

// NewID returns a random identifier used as primary key for every table
func NewID() (string, error) {
	return gonanoid.Generate(idCharset, IDLength)
}

// MustID is NewID for places where a failing random source can't be handled anyway
func MustID() string {
	return gonanoid.MustGenerate(idCharset, IDLength)
}

// IsID reports whether s could have been produced by NewID
func IsID(s string) bool {
	return idPattern.MatchString(s)
}
