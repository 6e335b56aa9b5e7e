package delta

import (
	"github.com/cosmoslab/frisbee/internal/engineerr"
	"github.com/cosmoslab/frisbee/internal/sigfile"
)

// AnnotateChunk implements the independent chunk-number back-annotation
// post-pass. Given one downstream chunk writer's
// (chunkNo, firstSect, lastSectExclusive), it walks sig's regions in
// place, setting ChunkNo on every region lying entirely within the chunk,
// marking with the span bit any region that starts in-range but runs past
// it, and asserting the span bit is already set on any region that starts
// below firstSect and reaches into the chunk (it must have been marked by
// an earlier call covering that region's own chunk). Regions ending at or
// before firstSect belong to earlier chunks and are left as they are.
//
// Calls are expected in ascending chunkNo order, one per chunk the
// downstream writer produces; sig's regions must already be sorted
// ascending by Start (guaranteed by the delta computer).
func AnnotateChunk(sig *sigfile.Signature, chunkNo int32, firstSect, lastSectExclusive uint64) error {
	for i := range sig.Regions {
		r := &sig.Regions[i]
		start := uint64(r.Start)
		end := start + uint64(r.Size)

		switch {
		case start < firstSect:
			if end > firstSect && !r.Spans() {
				return engineerr.New(engineerr.KindBadSignature, "delta.AnnotateChunk",
					"region starting before chunk range lacks span bit from a prior call")
			}

		case start >= lastSectExclusive:
			// Not this chunk's concern yet.

		case end > lastSectExclusive:
			*r = r.WithChunkNo(chunkNo).WithSpan(true)

		default:
			*r = r.WithChunkNo(chunkNo).WithSpan(false)
		}
	}
	return nil
}
