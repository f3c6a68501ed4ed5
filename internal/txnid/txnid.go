// Package txnid generates caller-assigned transaction identifiers for the
// gateway's authentication and payment legs.
package txnid

import (
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet is the set of characters an identifier is drawn from.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// DefaultLength is the length of an identifier before splitting.
	DefaultLength = 20

	// SuffixLength is the length of the random part of an order-scoped id.
	SuffixLength = 10

	// DefaultPrefix is prepended to order-scoped ids.
	DefaultPrefix = "N3SB-TXN"
)

// ErrInvalidLength is returned for non-positive lengths, or odd lengths when splitting.
var ErrInvalidLength = errors.New("invalid transaction id length")

// Generate returns a DefaultLength id split into two dash-joined halves,
// e.g. "0A1B2C3D4E-5F6G7H8I9J".
func Generate() (string, error) {
	return New(DefaultLength, true)
}

// New returns a random id of the given length. When split is set the id is
// cut in half and joined by a dash.
func New(length int, split bool) (string, error) {
	if length <= 0 || (split && length%2 != 0) {
		return "", ErrInvalidLength
	}

	id, err := gonanoid.Generate(Alphabet, length)
	if err != nil {
		return "", err
	}

	if !split {
		return id, nil
	}
	return id[:length/2] + "-" + id[length/2:], nil
}

// ForOrder returns prefix + orderNumber + "-" + a SuffixLength random part.
// An empty prefix falls back to DefaultPrefix.
func ForOrder(prefix string, orderNumber int64) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	suffix, err := New(SuffixLength, false)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%d-%s", prefix, orderNumber, suffix), nil
}
