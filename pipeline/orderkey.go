package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
)

// computeOrderKey produces a deterministic sort key from a level index
// and a step's position within that level. It is used only to give
// emitted events a stable tie-break label — the spec is
// explicit that intra-level *execution* order is unspecified (§5); this
// key never influences scheduling, only how concurrently-completing
// steps are labeled when reported to an Emitter.
//
// Grounded on the teacher's ComputeOrderKey (graph/scheduler.go), which
// hashes parent-node-id + edge-index for deterministic replay ordering;
// here the "parent" is the level index and the "edge index" is the
// step's insertion position within the level.
func computeOrderKey(level, indexInLevel int) uint64 {
	h := sha256.New()
	levelBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(levelBytes, uint32(level))
	h.Write(levelBytes)

	idxBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(idxBytes, uint32(indexInLevel))
	h.Write(idxBytes)

	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}
