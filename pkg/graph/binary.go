package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"strings"
	"unsafe"
)

const (
	magicBytes = "MPROUTER"
	version    = uint32(3) // v3: edge distance/duration/name, node ids, metric
	maxNodes   = 10_000_000
	maxEdges   = 50_000_000
	maxNameLen = 64 << 20
)

// ErrBadDataset is wrapped by every ReadBinary failure caused by file contents.
var ErrBadDataset = errors.New("bad dataset file")

// fileHeader is the binary header.
type fileHeader struct {
	Magic        [8]byte
	Version      uint32
	Metric       uint32
	NumNodes     uint32
	NumOrigEdges uint32
	NumShortcuts uint32
	NumFwdEdges  uint32
	NumBwdEdges  uint32
}

// WriteBinary serializes a CHGraph to path. The file is written to a
// temporary sibling and renamed into place.
func WriteBinary(path string, chg *CHGraph) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	w := &crc32Writer{w: f, hash: crc32.NewIEEE()}

	var numShortcuts uint32
	for _, middles := range [][]int32{chg.FwdMiddle, chg.BwdMiddle} {
		for _, m := range middles {
			if m >= 0 {
				numShortcuts++
			}
		}
	}

	hdr := fileHeader{
		Version:      version,
		Metric:       uint32(chg.Metric),
		NumNodes:     chg.NumNodes,
		NumOrigEdges: uint32(len(chg.OrigHead)),
		NumShortcuts: numShortcuts,
		NumFwdEdges:  uint32(len(chg.FwdHead)),
		NumBwdEdges:  uint32(len(chg.BwdHead)),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	sections := []struct {
		name  string
		write func() error
	}{
		{"NodeLat", func() error { return writeSlice(w, chg.NodeLat) }},
		{"NodeLon", func() error { return writeSlice(w, chg.NodeLon) }},
		{"NodeID", func() error { return writeSlice(w, chg.NodeID) }},
		{"Rank", func() error { return writeSlice(w, chg.Rank) }},
		{"FwdFirstOut", func() error { return writeSlice(w, chg.FwdFirstOut) }},
		{"FwdHead", func() error { return writeSlice(w, chg.FwdHead) }},
		{"FwdWeight", func() error { return writeSlice(w, chg.FwdWeight) }},
		{"FwdMiddle", func() error { return writeSlice(w, chg.FwdMiddle) }},
		{"BwdFirstOut", func() error { return writeSlice(w, chg.BwdFirstOut) }},
		{"BwdHead", func() error { return writeSlice(w, chg.BwdHead) }},
		{"BwdWeight", func() error { return writeSlice(w, chg.BwdWeight) }},
		{"BwdMiddle", func() error { return writeSlice(w, chg.BwdMiddle) }},
		{"OrigFirstOut", func() error { return writeSlice(w, chg.OrigFirstOut) }},
		{"OrigHead", func() error { return writeSlice(w, chg.OrigHead) }},
		{"OrigWeight", func() error { return writeSlice(w, chg.OrigWeight) }},
		{"OrigDistance", func() error { return writeSlice(w, chg.OrigDistance) }},
		{"OrigDuration", func() error { return writeSlice(w, chg.OrigDuration) }},
		{"OrigNameID", func() error { return writeSlice(w, chg.OrigNameID) }},
		{"Names", func() error { return writeNames(w, chg.Names) }},
		{"GeoFirstOut", func() error { return writeLenPrefixed(w, chg.GeoFirstOut) }},
		{"GeoShapeLat", func() error { return writeLenPrefixed(w, chg.GeoShapeLat) }},
		{"GeoShapeLon", func() error { return writeLenPrefixed(w, chg.GeoShapeLon) }},
	}
	for _, s := range sections {
		if err := s.write(); err != nil {
			return fmt.Errorf("write %s: %w", s.name, err)
		}
	}

	// CRC32 trailer (not itself checksummed).
	if err := binary.Write(f, binary.LittleEndian, w.hash.Sum32()); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadBinary deserializes a CHGraph written by WriteBinary.
// Rank is only needed during preprocessing and is left nil.
func ReadBinary(path string) (*CHGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := &crc32Reader{r: f, hash: crc32.NewIEEE()}

	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrBadDataset, err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("%w: invalid magic bytes %q", ErrBadDataset, hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadDataset, hdr.Version)
	}
	if hdr.Metric > uint32(MetricDuration) {
		return nil, fmt.Errorf("%w: unknown metric %d", ErrBadDataset, hdr.Metric)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("%w: NumNodes %d exceeds limit %d", ErrBadDataset, hdr.NumNodes, maxNodes)
	}
	if hdr.NumFwdEdges > maxEdges || hdr.NumBwdEdges > maxEdges || hdr.NumOrigEdges > maxEdges {
		return nil, fmt.Errorf("%w: edge count exceeds limit %d", ErrBadDataset, maxEdges)
	}

	chg := &CHGraph{NumNodes: hdr.NumNodes, Metric: Metric(hdr.Metric)}
	n := int(hdr.NumNodes)
	fwd, bwd, orig := int(hdr.NumFwdEdges), int(hdr.NumBwdEdges), int(hdr.NumOrigEdges)

	sections := []struct {
		name string
		read func() error
	}{
		{"NodeLat", func() (err error) { chg.NodeLat, err = readSlice[float64](r, n); return }},
		{"NodeLon", func() (err error) { chg.NodeLon, err = readSlice[float64](r, n); return }},
		{"NodeID", func() (err error) { chg.NodeID, err = readSlice[int64](r, n); return }},
		{"Rank", func() error { return skipBytes(r, n*4) }},
		{"FwdFirstOut", func() (err error) { chg.FwdFirstOut, err = readSlice[uint32](r, n+1); return }},
		{"FwdHead", func() (err error) { chg.FwdHead, err = readSlice[uint32](r, fwd); return }},
		{"FwdWeight", func() (err error) { chg.FwdWeight, err = readSlice[uint32](r, fwd); return }},
		{"FwdMiddle", func() (err error) { chg.FwdMiddle, err = readSlice[int32](r, fwd); return }},
		{"BwdFirstOut", func() (err error) { chg.BwdFirstOut, err = readSlice[uint32](r, n+1); return }},
		{"BwdHead", func() (err error) { chg.BwdHead, err = readSlice[uint32](r, bwd); return }},
		{"BwdWeight", func() (err error) { chg.BwdWeight, err = readSlice[uint32](r, bwd); return }},
		{"BwdMiddle", func() (err error) { chg.BwdMiddle, err = readSlice[int32](r, bwd); return }},
		{"OrigFirstOut", func() (err error) { chg.OrigFirstOut, err = readSlice[uint32](r, n+1); return }},
		{"OrigHead", func() (err error) { chg.OrigHead, err = readSlice[uint32](r, orig); return }},
		{"OrigWeight", func() (err error) { chg.OrigWeight, err = readSlice[uint32](r, orig); return }},
		{"OrigDistance", func() (err error) { chg.OrigDistance, err = readSlice[uint32](r, orig); return }},
		{"OrigDuration", func() (err error) { chg.OrigDuration, err = readSlice[uint32](r, orig); return }},
		{"OrigNameID", func() (err error) { chg.OrigNameID, err = readSlice[uint32](r, orig); return }},
		{"Names", func() (err error) { chg.Names, err = readNames(r); return }},
		{"GeoFirstOut", func() (err error) { chg.GeoFirstOut, err = readLenPrefixed[uint32](r, maxEdges+1); return }},
		{"GeoShapeLat", func() (err error) { chg.GeoShapeLat, err = readLenPrefixed[float64](r, 8*maxEdges); return }},
		{"GeoShapeLon", func() (err error) { chg.GeoShapeLon, err = readLenPrefixed[float64](r, 8*maxEdges); return }},
	}
	for _, s := range sections {
		if err := s.read(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrBadDataset, s.name, err)
		}
	}

	expectedCRC := r.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("%w: read CRC32: %w", ErrBadDataset, err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("%w: CRC32 mismatch: stored=%08x computed=%08x", ErrBadDataset, storedCRC, expectedCRC)
	}

	if err := validate(chg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDataset, err)
	}
	return chg, nil
}

// validate checks CSR invariants and per-edge array alignment.
func validate(chg *CHGraph) error {
	if err := validateCSR(chg.FwdFirstOut, chg.FwdHead, chg.NumNodes); err != nil {
		return fmt.Errorf("forward CSR invalid: %w", err)
	}
	if err := validateCSR(chg.BwdFirstOut, chg.BwdHead, chg.NumNodes); err != nil {
		return fmt.Errorf("backward CSR invalid: %w", err)
	}
	if err := validateCSR(chg.OrigFirstOut, chg.OrigHead, chg.NumNodes); err != nil {
		return fmt.Errorf("base CSR invalid: %w", err)
	}
	for i, id := range chg.OrigNameID {
		if int(id) >= len(chg.Names) {
			return fmt.Errorf("OrigNameID[%d]=%d >= len(Names)=%d", i, id, len(chg.Names))
		}
	}
	if chg.GeoFirstOut != nil {
		if len(chg.GeoFirstOut) != len(chg.OrigHead)+1 {
			return fmt.Errorf("GeoFirstOut length %d != edges+1 %d", len(chg.GeoFirstOut), len(chg.OrigHead)+1)
		}
		if len(chg.GeoShapeLat) != len(chg.GeoShapeLon) {
			return fmt.Errorf("shape lat/lon length mismatch: %d vs %d", len(chg.GeoShapeLat), len(chg.GeoShapeLon))
		}
		if last := chg.GeoFirstOut[len(chg.GeoFirstOut)-1]; int(last) != len(chg.GeoShapeLat) {
			return fmt.Errorf("GeoFirstOut end %d != shape points %d", last, len(chg.GeoShapeLat))
		}
	}
	return nil
}

// validateCSR checks CSR invariants.
func validateCSR(firstOut, head []uint32, numNodes uint32) error {
	if uint32(len(firstOut)) != numNodes+1 {
		return fmt.Errorf("FirstOut length %d != NumNodes+1 %d", len(firstOut), numNodes+1)
	}
	if firstOut[0] != 0 {
		return fmt.Errorf("FirstOut[0]=%d, want 0", firstOut[0])
	}
	if numEdges := firstOut[numNodes]; uint32(len(head)) != numEdges {
		return fmt.Errorf("Head length %d != FirstOut[NumNodes] %d", len(head), numEdges)
	}
	for i := uint32(1); i <= numNodes; i++ {
		if firstOut[i] < firstOut[i-1] {
			return fmt.Errorf("FirstOut not monotonic at %d: %d < %d", i, firstOut[i], firstOut[i-1])
		}
	}
	for i, h := range head {
		if h >= numNodes {
			return fmt.Errorf("Head[%d]=%d >= NumNodes=%d", i, h, numNodes)
		}
	}
	return nil
}

// skipBytes reads and discards n bytes from r.
func skipBytes(r io.Reader, n int) error {
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}

// fixed lists the element types stored as raw little-endian arrays.
type fixed interface {
	~uint32 | ~int32 | ~int64 | ~float64
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeSlice[T fixed](w io.Writer, s []T) error {
	if len(s) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(s[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size)
	_, err := w.Write(b)
	return err
}

func readSlice[T fixed](r io.Reader, n int) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]T, n)
	size := int(unsafe.Sizeof(s[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func writeLenPrefixed[T fixed](w io.Writer, s []T) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	return writeSlice(w, s)
}

func readLenPrefixed[T fixed](r io.Reader, limit uint32) ([]T, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > limit {
		return nil, fmt.Errorf("length %d exceeds limit %d", n, limit)
	}
	return readSlice[T](r, int(n))
}

// Names are stored as one NUL-separated, length-prefixed blob.

func writeNames(w io.Writer, names []string) error {
	blob := strings.Join(names, "\x00")
	if err := binary.Write(w, binary.LittleEndian, uint32(len(blob))); err != nil {
		return err
	}
	_, err := io.WriteString(w, blob)
	return err
}

func readNames(r io.Reader) ([]string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > maxNameLen {
		return nil, fmt.Errorf("names blob %d bytes exceeds limit %d", n, maxNameLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return strings.Split(string(buf), "\x00"), nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash hash.Hash32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash hash.Hash32
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
