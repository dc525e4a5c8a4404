// Package pattern fills display buffers with the fixed reference tile.
//
// The tile is four RGBA pixels (16 bytes) wide and repeats across every row.
// Each tile is written with a single fixed-size array store, which the
// compiler lowers to wide moves on amd64 and arm64.
package pattern

import (
	"bytes"
	"fmt"

	"github.com/gogpu/framepump/internal/parallel"
	"github.com/gogpu/framepump/window"
)

// TileBytes is the size of one tile store.
const TileBytes = window.GroupPixels * window.BytesPerPixel

// Tile is the reference pattern: red, yellow, red, yellow, alpha zero.
var Tile = [TileBytes]byte{
	0xff, 0x00, 0x00, 0x00,
	0xff, 0xff, 0x00, 0x00,
	0xff, 0x00, 0x00, 0x00,
	0xff, 0xff, 0x00, 0x00,
}

// Write tiles the reference pattern across every row of buf.
//
// buf is validated before any byte is written; a buffer that breaks the
// layout contract panics with a *window.ContractError. Bytes between the end
// of a row and the next stride are left untouched.
func Write(buf *window.Buffer) {
	window.MustValidate(buf)
	writeRows(buf, 0, buf.Height)
}

// WriteParallel is Write with rows split into bands on pool.
// The result is byte-identical to Write.
func WriteParallel(pool *parallel.WorkerPool, buf *window.Buffer) {
	window.MustValidate(buf)
	if pool == nil {
		writeRows(buf, 0, buf.Height)
		return
	}
	pool.ForEachBand(buf.Height, func(y0, y1 int) {
		writeRows(buf, y0, y1)
	})
}

func writeRows(buf *window.Buffer, y0, y1 int) {
	rowBytes := buf.RowBytes()
	for y := y0; y < y1; y++ {
		row := buf.Pixels[y*buf.Stride : y*buf.Stride+rowBytes]
		for x := 0; x < len(row); x += TileBytes {
			*(*[TileBytes]byte)(row[x:]) = Tile
		}
	}
}

// MismatchError locates the first tile that differs from Tile.
type MismatchError struct {
	X, Y int
	Got  [TileBytes]byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("pattern: tile mismatch at pixel (%d, %d): got % x", e.X, e.Y, e.Got[:])
}

// Verify reports whether every 4-pixel group of buf equals Tile.
// It returns a *window.ContractError for invalid buffers and a
// *MismatchError for the first differing group.
func Verify(buf *window.Buffer) error {
	if err := window.Validate(buf); err != nil {
		return err
	}
	for y := range buf.Height {
		row := buf.Row(y)
		for x := 0; x < len(row); x += TileBytes {
			if !bytes.Equal(row[x:x+TileBytes], Tile[:]) {
				e := &MismatchError{X: x / window.BytesPerPixel, Y: y}
				copy(e.Got[:], row[x:x+TileBytes])
				return e
			}
		}
	}
	return nil
}
