package util

import (
	"bytes"
	"testing"
)

func TestBufioWriterPool(t *testing.T) {
	var a bytes.Buffer
	w := NewBufioWriter(&a, 64)
	w.WriteString("first")
	w.Flush()
	PutBufioWriter(w)

	// a recycled writer must target only its new destination
	var b bytes.Buffer
	w = NewBufioWriter(&b, 64)
	w.WriteString("second")
	w.Flush()
	PutBufioWriter(w)

	if a.String() != "first" {
		t.Fatalf("first target got %q", a.String())
	}
	if b.String() != "second" {
		t.Fatalf("second target got %q", b.String())
	}
}
