package decoder

import "errors"

// chunkReader mimics a serial port with a read timeout: each Read returns at
// most one queued chunk and 0, nil once the queue is empty.
type chunkReader struct {
	chunks [][]byte
	err    error // returned once the queue is drained
	reads  int
}

func newChunkReader(chunks ...string) *chunkReader {
	r := &chunkReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	r.reads++
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, nil
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

var errUnplugged = errors.New("device unplugged")
