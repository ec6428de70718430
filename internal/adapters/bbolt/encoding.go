// Binary encoding for bias matrix blobs.
//
// Matrices are the bulk of a run record (2048 floats), so they are stored
// apart from the JSON record in a fixed-size little-endian blob:
//
//	version: uint8 (currently 1)
//	avalanche: [32*32]float64, row-major [bit_in][bit_out]
//	tree:      [32*32]float64, row-major [x_bin][y_bin]
package bbolt

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

const (
	matrixVersion = 1
	matrixCells   = 32 * 32
	matrixBlobLen = 1 + 2*matrixCells*8
)

// encodeMatrices encodes both matrices into a single pre-sized buffer.
func encodeMatrices(m *ports.BiasMatrices) []byte {
	buf := make([]byte, matrixBlobLen)
	buf[0] = matrixVersion
	offset := 1
	for _, grid := range []*[32][32]float64{&m.Avalanche, &m.Tree} {
		for i := range grid {
			for j := range grid[i] {
				binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(grid[i][j]))
				offset += 8
			}
		}
	}
	return buf
}

// decodeMatrices decodes a blob written by encodeMatrices. The length and
// version are checked up front so a corrupt blob errors instead of panicking.
func decodeMatrices(data []byte) (*ports.BiasMatrices, error) {
	if len(data) != matrixBlobLen {
		return nil, fmt.Errorf("matrix blob: want %d bytes, got %d", matrixBlobLen, len(data))
	}
	if data[0] != matrixVersion {
		return nil, fmt.Errorf("matrix blob: unknown version %d", data[0])
	}

	var m ports.BiasMatrices
	offset := 1
	for _, grid := range []*[32][32]float64{&m.Avalanche, &m.Tree} {
		for i := range grid {
			for j := range grid[i] {
				grid[i][j] = math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
				offset += 8
			}
		}
	}
	return &m, nil
}

// runKey encodes a run ID big-endian so that bucket order is ID order.
func runKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}
