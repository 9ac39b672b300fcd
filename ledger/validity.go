package ledger

import "github.com/MeridiaLabs/Meridia/consensus"

// CheckValidity reports whether block is a valid successor of prev at
// the default difficulty: strictly sequential index, intact hash-chain
// linkage, a proof satisfying the work predicate relative to the
// ancestor's, and a strictly increasing timestamp. A false result is an
// ordinary audit outcome, not an error.
func CheckValidity(block, prev Block) bool {
	return checkValidity(block, prev, consensus.Verify)
}

func checkValidity(block, prev Block, verify func(proof, lastProof uint64) bool) bool {
	switch {
	case prev.Index+1 != block.Index:
		return false
	case prev.Hash() != block.PrevHash:
		return false
	case !verify(block.ProofNo, prev.ProofNo):
		return false
	case block.Timestamp <= prev.Timestamp:
		return false
	}
	return true
}

// Valid audits the whole chain pairwise from genesis to tip with the
// ledger's own prover. The genesis block is implicitly trusted.
func (l *Ledger) Valid() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := 1; i < len(l.chain); i++ {
		if !checkValidity(l.chain[i], l.chain[i-1], l.prover.Verify) {
			return false
		}
	}
	return true
}
