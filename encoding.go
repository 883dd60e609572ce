package termplay

import (
	"encoding/base64"
	"sync"
)

// Kitty caps one graphics escape at 4096 base64 characters, which is 3072
// raw bytes per chunk.
const (
	base64ChunkSize = 4096
	rawChunkSize    = base64ChunkSize / 4 * 3
)

// Encoder buffers are reused across frames; videos push one payload per
// frame through here.
var base64BufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, base64ChunkSize*2)
		return &buf
	},
}

func base64Encode(src []byte) string {
	bufPtr := base64BufPool.Get().(*[]byte)
	defer base64BufPool.Put(bufPtr)

	encodedLen := base64.StdEncoding.EncodedLen(len(src))
	if cap(*bufPtr) < encodedLen {
		*bufPtr = make([]byte, encodedLen)
	} else {
		*bufPtr = (*bufPtr)[:encodedLen]
	}

	base64.StdEncoding.Encode(*bufPtr, src)

	return string(*bufPtr)
}

// chunkedBase64Encode splits data into protocol-sized base64 chunks.
func chunkedBase64Encode(data []byte) []string {
	numChunks := (len(data) + rawChunkSize - 1) / rawChunkSize
	chunks := make([]string, 0, numChunks)

	for i := 0; i < len(data); i += rawChunkSize {
		end := min(i+rawChunkSize, len(data))
		chunks = append(chunks, base64Encode(data[i:end]))
	}

	return chunks
}
