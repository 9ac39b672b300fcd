package ledger

import (
	"strconv"
	"time"

	"github.com/MeridiaLabs/Meridia/internal/hashing"
)

// GenesisPrevHash is the sentinel predecessor hash of the genesis block.
const GenesisPrevHash = "0"

// Block is one ledger entry. Once appended to a Ledger a block is never
// mutated; the Ledger hands out copies only.
type Block struct {
	Index     uint64        `json:"index"`
	ProofNo   uint64        `json:"proof_no"`
	PrevHash  string        `json:"prev_hash"`
	Data      []Transaction `json:"data"`
	Timestamp int64         `json:"timestamp"` // Unix nanoseconds
}

// Hash returns the hex-encoded SHA-256 digest of the block's canonical
// encoding. It is recomputed from the fields on every call, never
// cached, so a mutated copy always hashes to its current contents.
func (b Block) Hash() string {
	return hashing.SumHex(b.canonicalBytes())
}

// canonicalBytes is the fixed textual encoding the content hash covers:
// index, proof number, predecessor hash, each transaction, timestamp,
// concatenated in that order.
func (b Block) canonicalBytes() []byte {
	buf := make([]byte, 0, 96+32*len(b.Data))
	buf = strconv.AppendUint(buf, b.Index, 10)
	buf = strconv.AppendUint(buf, b.ProofNo, 10)
	buf = append(buf, b.PrevHash...)
	for _, tx := range b.Data {
		buf = tx.appendCanonical(buf)
	}
	return strconv.AppendInt(buf, b.Timestamp, 10)
}

// Time returns the block timestamp as UTC wall time.
func (b Block) Time() time.Time {
	return time.Unix(0, b.Timestamp).UTC()
}
