package consensus

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/MeridiaLabs/Meridia/internal/hashing"
)

const (
	// DefaultDifficulty is the number of leading zero hex characters a
	// proof digest must carry. At 4 roughly one candidate in 65536
	// satisfies the predicate.
	DefaultDifficulty = 4

	// MaxDifficulty is the digest length in hex characters.
	MaxDifficulty = 64

	// Candidates evaluated between context checks during a search.
	cancelCheckEvery = 4096
)

// Verify reports whether proof satisfies the work predicate relative to
// lastProof at the default difficulty: the SHA-256 digest of the text
// "{proof}{lastProof}" must start with "0000". The candidate proof comes
// first in the concatenation.
func Verify(proof, lastProof uint64) bool {
	return verifyPrefix(proof, lastProof, zeroPrefix(DefaultDifficulty))
}

func verifyPrefix(proof, lastProof uint64, prefix string) bool {
	guess := strconv.AppendUint(nil, proof, 10)
	guess = strconv.AppendUint(guess, lastProof, 10)
	return strings.HasPrefix(hashing.SumHex(guess), prefix)
}

func zeroPrefix(difficulty int) string {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > MaxDifficulty {
		difficulty = MaxDifficulty
	}
	return strings.Repeat("0", difficulty)
}

// Prover runs proof-of-work searches at a fixed difficulty.
type Prover struct {
	prefix string
	log    *zap.Logger
}

type Option func(*Prover)

// WithDifficulty sets the number of leading zero hex characters
// required of a proof digest. Values are clamped to [1, MaxDifficulty].
func WithDifficulty(n int) Option {
	return func(p *Prover) { p.prefix = zeroPrefix(n) }
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Prover) { p.log = log }
}

func NewProver(opts ...Option) *Prover {
	p := &Prover{
		prefix: zeroPrefix(DefaultDifficulty),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Difficulty returns the number of leading zero hex characters required.
func (p *Prover) Difficulty() int { return len(p.prefix) }

// Verify reports whether proof satisfies the work predicate relative to
// lastProof at the prover's difficulty.
func (p *Prover) Verify(proof, lastProof uint64) bool {
	return verifyPrefix(proof, lastProof, p.prefix)
}

// Search finds the smallest proof satisfying the work predicate relative
// to lastProof. The scan is linear from 0 and unbounded; callers limit
// it through ctx. The search is CPU-bound and does not yield, so callers
// serving concurrent requests should run it off the request path.
func (p *Prover) Search(ctx context.Context, lastProof uint64) (uint64, error) {
	started := time.Now()
	for candidate := uint64(0); ; candidate++ {
		if candidate%cancelCheckEvery == 0 {
			select {
			case <-ctx.Done():
				return 0, errors.Wrap(ctx.Err(), "proof of work search")
			default:
			}
		}
		if verifyPrefix(candidate, lastProof, p.prefix) {
			p.log.Debug("proof found",
				zap.Uint64("last_proof", lastProof),
				zap.Uint64("proof_no", candidate),
				zap.Duration("elapsed", time.Since(started)),
			)
			return candidate, nil
		}
	}
}
