package shared

import (
	"crypto/rand"
	"fmt"
	"time"
)

// suffixAlphabet excludes easily confused characters (0/O, 1/I/L).
const suffixAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// Document number series used across the pipeline.
const (
	SeriesDeliveryNote = "ALB"
	SeriesInvoice      = "FAC"
	SeriesShipment     = "SHP"
)

// NewDocumentNumber generates a business-readable document number of the form
// SERIES-YYYY-XXXXX, e.g. "ALB-2026-7KQ4M". Uniqueness is enforced by the
// store, not by the generator; the random suffix only makes collisions rare.
func NewDocumentNumber(series string) string {
	return NewDocumentNumberAt(series, time.Now())
}

// NewDocumentNumberAt generates a document number for the given time.
func NewDocumentNumberAt(series string, at time.Time) string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a timestamp suffix rather than panic.
		return fmt.Sprintf("%s-%d-%05d", series, at.Year(), at.UnixNano()%100000)
	}
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return fmt.Sprintf("%s-%d-%s", series, at.Year(), string(buf))
}
