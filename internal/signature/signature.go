// Package signature embeds and verifies the CRC-32 checksum that summary
// documents carry over their own bytes.
//
// The checksum is computed over the document with the text of its first
// <checksum> element set to Placeholder, then written back into that element
// as eight uppercase hex digits.
package signature

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
)

// Length is the number of hex digits in a checksum.
const Length = 8

// Placeholder is the checksum text signed documents are hashed with.
const Placeholder = "00000000"

var (
	openTag  = []byte("<checksum>")
	closeTag = []byte("</checksum>")
)

var (
	ErrNoChecksum = errors.New("no <checksum> element found")
	ErrMismatch   = errors.New("checksum mismatch")
)

// Calculate returns the ISO 3309 / IEEE 802.3 CRC-32 of data.
func Calculate(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Format renders a checksum the way it is stored in documents.
func Format(crc uint32) string {
	return fmt.Sprintf("%0*X", Length, crc)
}

// Find returns the byte range [start,end) of the first checksum element's
// text.
func Find(doc []byte) (start, end int, ok bool) {
	open := bytes.Index(doc, openTag)
	if open < 0 {
		return 0, 0, false
	}
	start = open + len(openTag)
	rel := bytes.Index(doc[start:], closeTag)
	if rel < 0 {
		return 0, 0, false
	}
	return start, start + rel, true
}

// Replace returns a copy of doc with the checksum text set to value.
func Replace(doc []byte, value string) ([]byte, error) {
	start, end, ok := Find(doc)
	if !ok {
		return nil, ErrNoChecksum
	}
	out := make([]byte, 0, len(doc)-(end-start)+len(value))
	out = append(out, doc[:start]...)
	out = append(out, value...)
	out = append(out, doc[end:]...)
	return out, nil
}

// Embed signs doc, which must contain a checksum element.
func Embed(doc []byte) ([]byte, error) {
	zeroed, err := Replace(doc, Placeholder)
	if err != nil {
		return nil, err
	}
	// zeroed is freshly allocated; the final replacement keeps the length.
	start, end, _ := Find(zeroed)
	copy(zeroed[start:end], Format(Calculate(zeroed)))
	return zeroed, nil
}

// Verify checks the checksum embedded in doc.
func Verify(doc []byte) error {
	start, end, ok := Find(doc)
	if !ok {
		return ErrNoChecksum
	}
	stored := string(doc[start:end])
	zeroed, err := Replace(doc, Placeholder)
	if err != nil {
		return err
	}
	if want := Format(Calculate(zeroed)); stored != want {
		return fmt.Errorf("%w: stored %q, computed %q", ErrMismatch, stored, want)
	}
	return nil
}
