package vector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

var matrixMagic = [4]byte{'O', 'S', 'I', 'M'}

const matrixFormatVersion uint32 = 2

// SaveMatrix writes s to path, creating the parent directory if needed. fingerprint
// identifies the model the matrix was computed from (see Model.Fingerprint).
// Format: magic (4), format version (4), n (4), fingerprint (8), then n*n little-endian
// float64 values.
func SaveMatrix(path string, s *SimilarityMatrix, fingerprint uint64) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := writeMatrix(w, s, fingerprint); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func writeMatrix(w io.Writer, s *SimilarityMatrix, fingerprint uint64) error {
	if _, err := w.Write(matrixMagic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, matrixFormatVersion); err != nil {
		return fmt.Errorf("write format version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(s.n)); err != nil {
		return fmt.Errorf("write size: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, fingerprint); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}
	buf := make([]byte, 8)
	for _, v := range s.data {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write values: %w", err)
		}
	}
	return nil
}

// LoadMatrix reads a matrix written by SaveMatrix. The stored size must equal wantN and
// the stored fingerprint must equal fingerprint; wantN < 0 skips both checks. Cell values
// are validated: every value in [0, 1], the matrix symmetric, the diagonal 0 or 1.
func LoadMatrix(path string, wantN int, fingerprint uint64) (*SimilarityMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != matrixMagic {
		return nil, fmt.Errorf("not a similarity matrix snapshot: %s", path)
	}
	var version, n uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read format version: %w", err)
	}
	if version != matrixFormatVersion {
		return nil, fmt.Errorf("unsupported snapshot format version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read size: %w", err)
	}
	if wantN >= 0 && int(n) != wantN {
		return nil, fmt.Errorf("size mismatch: snapshot has %d items, corpus has %d", n, wantN)
	}
	var stored uint64
	if err := binary.Read(r, binary.LittleEndian, &stored); err != nil {
		return nil, fmt.Errorf("read fingerprint: %w", err)
	}
	if wantN >= 0 && stored != fingerprint {
		return nil, fmt.Errorf("model mismatch: snapshot fingerprint %x, model %x", stored, fingerprint)
	}
	data := make([]float64, int(n)*int(n))
	buf := make([]byte, 8)
	for i := range data {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read values: %w", err)
		}
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf))
	}
	if err := validateCells(int(n), data); err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}
	return NewSimilarityMatrix(int(n), data)
}

func validateCells(n int, data []float64) error {
	for i := 0; i < n; i++ {
		if d := data[i*n+i]; d != 0 && d != 1 {
			return fmt.Errorf("diagonal (%d,%d) = %v", i, i, d)
		}
		for j := i; j < n; j++ {
			v := data[i*n+j]
			if math.IsNaN(v) || v < 0 || v > 1 {
				return fmt.Errorf("cell (%d,%d) = %v out of range", i, j, v)
			}
			if data[j*n+i] != v {
				return fmt.Errorf("cells (%d,%d) and (%d,%d) differ", i, j, j, i)
			}
		}
	}
	return nil
}
