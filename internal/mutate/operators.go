package mutate

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/orizon-lang/orizon-mutator/internal/errorsx"
)

// operatorFunc is one entry in the catalog: a mutation operator applied to
// an Input. Each operator chooses its own offsets/lengths via the engine's
// RandSource and mutates in place; none of them return an error, matching
// spec §7 ("mutation is best-effort and cannot fail by design").
type operatorFunc func(e *Engine, in *Input, printable bool)

// --- single-byte operators -------------------------------------------------

func opBit(e *Engine, in *Input, printable bool) {
	if in.Size() == 0 {
		return
	}

	off := e.offset(in.Size())
	bit := e.Rand.Intn(0, 7)
	in.data[off] ^= 1 << uint(bit)

	if printable {
		canonicalizeRange(in.data[off : off+1])
	}
}

func opIncByte(e *Engine, in *Input, printable bool) { mutateByteDelta(e, in, printable, 1) }
func opDecByte(e *Engine, in *Input, printable bool) { mutateByteDelta(e, in, printable, -1) }

func mutateByteDelta(e *Engine, in *Input, printable bool, delta int) {
	if in.Size() == 0 {
		return
	}

	off := e.offset(in.Size())
	b := in.data[off]

	if printable {
		wrapped := (((int(b) - 32 + delta) % 95) + 95) % 95
		in.data[off] = byte(wrapped + 32)
	} else {
		in.data[off] = byte(int(b) + delta)
	}
}

func opNegByte(e *Engine, in *Input, printable bool) {
	if in.Size() == 0 {
		return
	}

	off := e.offset(in.Size())
	b := in.data[off]

	if printable {
		in.data[off] = byte(94-(int(b)-32)) + 32
	} else {
		in.data[off] = ^b
	}
}

// --- AddSub -----------------------------------------------------------------

var addSubRange = map[int]int{1: 16, 2: 4096, 4: 1048576, 8: 268435456}

func opAddSub(e *Engine, in *Input, printable bool) {
	if in.Size() == 0 {
		return
	}

	off := e.offset(in.Size())
	var width int

	// AddSub picks among the widths that fit at off, randomized among the
	// fitting candidates rather than always the largest, so small buffers
	// still exercise width-1/2/4 deltas.
	candidates := make([]int, 0, 4)

	for _, w := range []int{1, 2, 4, 8} {
		if in.Size()-off >= w {
			candidates = append(candidates, w)
		}
	}

	if len(candidates) == 0 {
		width = 1
	} else {
		width = candidates[e.Rand.Intn(0, len(candidates)-1)]
	}

	r, ok := addSubRange[width]
	if !ok {
		panic(errorsx.InvalidAddSubWidth(width))
	}

	delta := e.Rand.Intn(-r, r)
	foreign := e.Rand.Intn(0, 1) == 1

	val := readWidth(in.data, off, width)
	if foreign {
		val = swapWidth(val, width)
	}

	val = uint64(int64(val) + int64(delta))

	if foreign {
		val = swapWidth(val, width)
	}

	writeWidth(in.data, off, width, val)

	if printable {
		canonicalizeRange(in.data[off : off+width])
	}
}

func readWidth(data []byte, off, width int) uint64 {
	switch width {
	case 1:
		return uint64(data[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(data[off : off+2]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(data[off : off+4]))
	case 8:
		return binary.LittleEndian.Uint64(data[off : off+8])
	default:
		panic(errorsx.InvalidAddSubWidth(width))
	}
}

func writeWidth(data []byte, off, width int, v uint64) {
	switch width {
	case 1:
		data[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(data[off:off+2], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(data[off:off+4], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(data[off:off+8], v)
	default:
		panic(errorsx.InvalidAddSubWidth(width))
	}
}

func swapWidth(v uint64, width int) uint64 {
	switch width {
	case 1:
		return v
	case 2:
		return uint64(bits.ReverseBytes16(uint16(v)))
	case 4:
		return uint64(bits.ReverseBytes32(uint32(v)))
	case 8:
		return bits.ReverseBytes64(v)
	default:
		panic(errorsx.InvalidAddSubWidth(width))
	}
}

// --- block operators ---------------------------------------------------------

func opMemSet(e *Engine, in *Input, printable bool) {
	if in.Size() == 0 {
		return
	}

	off := e.offset(in.Size())
	length := e.blockLen(in.Size() - off)

	var b byte
	if printable {
		b = e.Rand.PrintableByte()
	} else {
		b = e.Rand.Byte()
	}

	var tmp [MaxBlock]byte
	for i := 0; i < length; i++ {
		tmp[i] = b
	}

	in.Overwrite(off, tmp[:length], length, printable)
}

func opMemCopyOverwrite(e *Engine, in *Input, printable bool) {
	memCopy(e, in, printable, false)
}

func opMemCopyInsert(e *Engine, in *Input, printable bool) {
	memCopy(e, in, printable, true)
}

func memCopy(e *Engine, in *Input, printable, insert bool) {
	if in.Size() == 0 {
		return
	}

	srcOff := e.offset(in.Size())
	dstOff := e.offset(in.Size())

	avail := in.Size() - srcOff
	if rem := in.Size() - dstOff; !insert && rem < avail {
		avail = rem
	}

	length := e.blockLen(avail)

	var tmp [MaxBlock]byte
	n := copy(tmp[:length], in.Bytes()[srcOff:srcOff+length])

	if insert {
		in.Insert(dstOff, tmp[:n], n, printable)
	} else {
		in.Overwrite(dstOff, tmp[:n], n, printable)
	}
}

// --- 1-2 byte writes ----------------------------------------------------------

func opBytesOverwrite(e *Engine, in *Input, printable bool) { bytesOp(e, in, printable, false) }
func opBytesInsert(e *Engine, in *Input, printable bool)    { bytesOp(e, in, printable, true) }

func bytesOp(e *Engine, in *Input, printable, insert bool) {
	if in.Size() == 0 && !insert {
		return
	}

	n := 1
	if e.Rand.Intn(0, 1) == 1 {
		n = 2
	}

	var tmp [2]byte
	if printable {
		FillPrintable(e.Rand, tmp[:n])
	} else {
		FillRandom(e.Rand, tmp[:n])
	}

	if insert {
		off := e.offset(in.Size() + 1)
		in.Insert(off, tmp[:n], n, printable)
	} else {
		off := e.offset(in.Size())
		in.Overwrite(off, tmp[:n], n, printable)
	}
}

// --- ASCII decimal --------------------------------------------------------

func opASCIINumOverwrite(e *Engine, in *Input, printable bool) { asciiNum(e, in, printable, false) }
func opASCIINumInsert(e *Engine, in *Input, printable bool)    { asciiNum(e, in, printable, true) }

func asciiNum(e *Engine, in *Input, printable, insert bool) {
	if in.Size() == 0 && !insert {
		return
	}

	v := int64(e.Rand.Intn(-(1<<31), 1<<31)) // plenty of digit variety without needing a 64-bit draw
	formatted := fmt.Sprintf("%-19d", v)     // left-justified decimal in a 19-char field; do not trim.
	prefixLen := e.Rand.Intn(2, 8)

	if prefixLen > len(formatted) {
		prefixLen = len(formatted)
	}

	src := []byte(formatted[:prefixLen])

	if insert {
		off := e.offset(in.Size() + 1)
		in.Insert(off, src, len(src), printable)
	} else {
		off := e.offset(in.Size())
		in.Overwrite(off, src, len(src), printable)
	}
}

// --- byte repeat ------------------------------------------------------------

func opByteRepeatOverwrite(e *Engine, in *Input, printable bool) {
	if in.Size() == 0 {
		opBytesOverwrite(e, in, printable)

		return
	}

	off := e.offset(in.Size())
	room := in.Size() - (off + 1)

	if room <= 0 {
		opBytesOverwrite(e, in, printable)

		return
	}

	b := in.data[off]
	length := e.blockLen(room)

	var tmp [MaxBlock]byte
	for i := 0; i < length; i++ {
		tmp[i] = b
	}

	in.Overwrite(off+1, tmp[:length], length, printable)
}

func opByteRepeatInsert(e *Engine, in *Input, printable bool) {
	if in.Size() == 0 {
		opBytesInsert(e, in, printable)

		return
	}

	off := e.offset(in.Size())
	room := in.MaxSize() - in.Size()

	if room <= 0 {
		opBytesInsert(e, in, printable)

		return
	}

	b := in.data[off]
	length := e.blockLen(room)

	var tmp [MaxBlock]byte
	for i := 0; i < length; i++ {
		tmp[i] = b
	}

	n := in.Insert(off+1, tmp[:length], length, printable)
	if n == 0 {
		opBytesInsert(e, in, printable)
	}
}

// --- magic / dictionary / feedback / random ----------------------------------

func opMagicOverwrite(e *Engine, in *Input, printable bool) { magicOp(e, in, printable, false) }
func opMagicInsert(e *Engine, in *Input, printable bool)    { magicOp(e, in, printable, true) }

func magicOp(e *Engine, in *Input, printable, insert bool) {
	if in.Size() == 0 && !insert {
		return
	}

	entry := MagicTable[e.Rand.Intn(0, len(MagicTable)-1)]
	src := entry.Value[:entry.Size]

	if insert {
		off := e.offset(in.Size() + 1)
		in.Insert(off, src, entry.Size, printable)
	} else {
		off := e.offset(in.Size())
		in.Overwrite(off, src, entry.Size, printable)
	}
}

func opDictionaryOverwrite(e *Engine, in *Input, printable bool) {
	dictOp(e, in, printable, false)
}
func opDictionaryInsert(e *Engine, in *Input, printable bool) {
	dictOp(e, in, printable, true)
}

func dictOp(e *Engine, in *Input, printable, insert bool) {
	tokens := e.Dictionary.Tokens()
	if len(tokens) == 0 {
		fallbackBytes(e, in, printable, insert)

		return
	}

	tok := tokens[e.Rand.Intn(0, len(tokens)-1)]
	if len(tok) == 0 {
		fallbackBytes(e, in, printable, insert)

		return
	}

	if insert {
		off := e.offset(in.Size() + 1)
		in.Insert(off, tok, len(tok), printable)
	} else {
		if in.Size() == 0 {
			fallbackBytes(e, in, printable, insert)

			return
		}

		off := e.offset(in.Size())
		in.Overwrite(off, tok, len(tok), printable)
	}
}

func opConstFeedbackOverwrite(e *Engine, in *Input, printable bool) {
	feedbackOp(e, in, printable, false)
}
func opConstFeedbackInsert(e *Engine, in *Input, printable bool) {
	feedbackOp(e, in, printable, true)
}

func feedbackOp(e *Engine, in *Input, printable, insert bool) {
	if !e.Config.CmpFeedbackEnabled {
		fallbackBytes(e, in, printable, insert)

		return
	}

	entries := e.Feedback.Snapshot()
	if len(entries) == 0 {
		fallbackBytes(e, in, printable, insert)

		return
	}

	val := entries[e.Rand.Intn(0, len(entries)-1)]
	if len(val) == 0 {
		fallbackBytes(e, in, printable, insert)

		return
	}

	if insert {
		off := e.offset(in.Size() + 1)
		in.Insert(off, val, len(val), printable)
	} else {
		if in.Size() == 0 {
			fallbackBytes(e, in, printable, insert)

			return
		}

		off := e.offset(in.Size())
		in.Overwrite(off, val, len(val), printable)
	}
}

func opRandomOverwrite(e *Engine, in *Input, printable bool) { randomOp(e, in, printable, false) }
func opRandomInsert(e *Engine, in *Input, printable bool)    { randomOp(e, in, printable, true) }

func randomOp(e *Engine, in *Input, printable, insert bool) {
	if in.Size() == 0 && !insert {
		return
	}

	room := in.Size() + 1
	if !insert {
		room = in.Size()
	}

	length := e.blockLen(room)

	var tmp [MaxBlock]byte
	if printable {
		FillPrintable(e.Rand, tmp[:length])
	} else {
		FillRandom(e.Rand, tmp[:length])
	}

	if insert {
		off := e.offset(in.Size() + 1)
		in.Insert(off, tmp[:length], length, printable)
	} else {
		off := e.offset(in.Size())
		in.Overwrite(off, tmp[:length], length, printable)
	}
}

func fallbackBytes(e *Engine, in *Input, printable, insert bool) {
	if insert {
		opBytesInsert(e, in, printable)
	} else {
		opBytesOverwrite(e, in, printable)
	}
}

// --- splice -----------------------------------------------------------------

func opSpliceOverwrite(e *Engine, in *Input, printable bool) { spliceOp(e, in, printable, false) }
func opSpliceInsert(e *Engine, in *Input, printable bool)    { spliceOp(e, in, printable, true) }

func spliceOp(e *Engine, in *Input, printable, insert bool) {
	remote := e.Corpus.PickRandomInput()
	if len(remote) == 0 {
		fallbackBytes(e, in, printable, insert)

		return
	}

	remoteOff := e.offset(len(remote))
	length := e.blockLen(len(remote) - remoteOff)

	if insert {
		localOff := e.offset(in.Size() + 1)
		in.Insert(localOff, remote[remoteOff:remoteOff+length], length, printable)
	} else {
		if in.Size() == 0 {
			fallbackBytes(e, in, printable, insert)

			return
		}

		localOff := e.offset(in.Size())
		in.Overwrite(localOff, remote[remoteOff:remoteOff+length], length, printable)
	}
}

// --- expand / shrink / resize -------------------------------------------------

func opExpand(e *Engine, in *Input, printable bool) {
	off := e.offset(in.Size() + 1)

	var length int
	if e.Rand.Intn(0, 15) != 0 { // 15/16
		length = e.Rand.Skewed(16)
	} else {
		room := in.MaxSize() - off
		if room < 1 {
			room = 1
		}

		length = e.Rand.Skewed(room)
	}

	in.Inflate(off, length, printable)
}

// opShrink ignores printable: it only removes bytes, it never writes new ones.
func opShrink(e *Engine, in *Input, _ bool) {
	if in.Size() <= 2 {
		return
	}

	size := in.Size()
	offStart := e.offset(size)

	var length int
	if e.Rand.Intn(0, 15) != 0 { // 15/16
		length = e.Rand.Skewed(16)
	} else {
		lenLeft := size - offStart
		if lenLeft < 1 {
			lenLeft = 1
		}

		length = e.Rand.Skewed(lenLeft)
	}
	// length may exceed LenLeft(offStart); Move's own clamping absorbs
	// that rather than this operator validating up front (spec §9 open
	// question: preserve the self-clamping behavior).
	offEnd := offStart + length

	in.Move(offEnd, offStart, size-offEnd)

	newSize := size - length
	if newSize < offStart {
		newSize = offStart
	}

	in.SetSize(newSize)
}

func opResize(e *Engine, in *Input, printable bool) {
	pick := e.Rand.Intn(0, 32)
	size := in.Size()
	maxSize := in.MaxSize()

	var newSize int

	switch {
	case pick == 0: // 1/33: arbitrary
		newSize = e.Rand.Intn(1, maxSize)
	case pick >= 1 && pick <= 4: // 4/33: small grow
		newSize = size + e.Rand.Intn(0, 8)
	case pick == 5: // 1/33: large grow
		newSize = size + e.Rand.Intn(9, 128)
	case pick >= 6 && pick <= 9: // 4/33: small shrink
		newSize = size - e.Rand.Intn(0, 8)
	case pick == 10: // 1/33: large shrink
		newSize = size - e.Rand.Intn(9, 128)
	default: // 22/33: no-op
		newSize = size
	}

	if newSize < 1 {
		newSize = 1
	}

	if newSize > maxSize {
		newSize = maxSize
	}

	oldSize := size
	in.SetSize(newSize)

	if newSize > oldSize {
		tail := in.data[oldSize:newSize]
		if printable {
			for i := range tail {
				tail[i] = ' '
			}
		} else {
			for i := range tail {
				tail[i] = 0
			}
		}
	}
}
