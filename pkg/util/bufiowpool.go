package util

import (
	"bufio"
	"io"
	"sync"
)

// pooled bufio.Writer for the report paths; the cmds print parsed
// heads, bodies and stat summaries through it

var bufioWriterPool sync.Pool

func NewBufioWriter(w io.Writer, bufSize int) *bufio.Writer {
	if v := bufioWriterPool.Get(); v != nil {
		bw := v.(*bufio.Writer)
		bw.Reset(w)
		return bw
	}
	return bufio.NewWriterSize(w, bufSize)
}

// PutBufioWriter returns bw to the pool. The caller flushes first;
// buffered bytes are dropped here.
func PutBufioWriter(bw *bufio.Writer) {
	bw.Reset(nil)
	bufioWriterPool.Put(bw)
}
