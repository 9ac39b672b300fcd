package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/MeridiaLabs/Meridia/config"
	"github.com/MeridiaLabs/Meridia/consensus"
	"github.com/MeridiaLabs/Meridia/internal/logging"
	"github.com/MeridiaLabs/Meridia/internal/metrics"
	"github.com/MeridiaLabs/Meridia/pkg/version"
)

// Ledger is the single authoritative append-only chain. It owns the
// blocks, the pending-transaction buffer, and an informational registry
// of peer addresses. One mutex guards chain and pending; Mine holds it
// for the whole stage-search-append sequence, so no partial-block state
// is ever observable.
type Ledger struct {
	mu      sync.RWMutex
	chain   []Block
	pending []Transaction

	peers mapset.Set

	prover         *consensus.Prover
	rewardSender   string
	rewardQuantity float64
	searchTimeout  time.Duration

	log     *zap.Logger
	metrics metrics.Ledger
	now     func() time.Time
}

type Option func(*Ledger)

// WithLogger attaches a logger; the default ledger is silent.
func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithProver replaces the proof-of-work engine.
func WithProver(p *consensus.Prover) Option {
	return func(l *Ledger) { l.prover = p }
}

// WithMining applies a mining configuration: difficulty, reward shape,
// and the search timeout Mine enforces per attempt.
func WithMining(cfg config.MiningConfig) Option {
	return func(l *Ledger) {
		l.prover = consensus.NewProver(consensus.WithDifficulty(cfg.Difficulty))
		l.rewardSender = cfg.RewardSender
		l.rewardQuantity = cfg.RewardQuantity
		l.searchTimeout = cfg.SearchTimeout
	}
}

// WithClock replaces the timestamp source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New constructs a Ledger with its genesis block (index 0, proof 0,
// predecessor sentinel, empty data) already appended.
func New(opts ...Option) *Ledger {
	mining := config.Default().Mining
	l := &Ledger{
		peers:          mapset.NewSet(),
		prover:         consensus.NewProver(),
		rewardSender:   mining.RewardSender,
		rewardQuantity: mining.RewardQuantity,
		searchTimeout:  mining.SearchTimeout,
		log:            zap.NewNop(),
		metrics:        metrics.NewLedger(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.mu.Lock()
	genesis := l.constructBlockLocked(0, GenesisPrevHash)
	l.mu.Unlock()

	l.log.Info("ledger initialised",
		zap.String("version", version.Get().Version),
		zap.Int("difficulty", l.prover.Difficulty()),
		zap.String("genesis_hash", genesis.Hash()),
	)
	return l
}

// NewFromConfig builds a Ledger wired per cfg: mining parameters plus a
// logger built from the log settings. Later options override either.
func NewFromConfig(cfg config.Config, opts ...Option) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid ledger config")
	}
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	opts = append([]Option{WithMining(cfg.Mining), WithLogger(log)}, opts...)
	return New(opts...), nil
}

// ConstructBlock builds a block at the current chain height from the
// pending buffer, appends it, and returns it. The buffer moves into the
// block and is replaced, so later staging can never reach an appended
// block's data.
func (l *Ledger) ConstructBlock(proofNo uint64, prevHash string) Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneBlock(l.constructBlockLocked(proofNo, prevHash))
}

// cloneBlock detaches the data slice so callers never alias a block
// owned by the ledger.
func cloneBlock(b Block) Block {
	if b.Data != nil {
		data := make([]Transaction, len(b.Data))
		copy(data, b.Data)
		b.Data = data
	}
	return b
}

func (l *Ledger) constructBlockLocked(proofNo uint64, prevHash string) Block {
	ts := l.now().UnixNano()
	if n := len(l.chain); n > 0 && ts <= l.chain[n-1].Timestamp {
		// Strictly increasing timestamps even when the clock has not
		// advanced between blocks.
		ts = l.chain[n-1].Timestamp + 1
	}

	block := Block{
		Index:     uint64(len(l.chain)),
		ProofNo:   proofNo,
		PrevHash:  prevHash,
		Data:      l.pending,
		Timestamp: ts,
	}
	l.pending = nil
	l.chain = append(l.chain, block)
	return block
}

// AddTransaction stages a transaction for inclusion in the next mined
// block. It is total: no balance, signature, or duplicate validation
// happens here.
func (l *Ledger) AddTransaction(sender, recipient string, quantity float64) {
	l.mu.Lock()
	l.pending = append(l.pending, Transaction{
		Sender:    sender,
		Recipient: recipient,
		Quantity:  quantity,
	})
	staged := len(l.pending)
	l.mu.Unlock()

	l.metrics.ObserveTransactionStaged()
	l.log.Debug("transaction staged",
		zap.String("sender", sender),
		zap.String("recipient", recipient),
		zap.Float64("quantity", quantity),
		zap.Int("pending", staged),
	)
}

// LatestBlock returns a copy of the tip of the chain.
func (l *Ledger) LatestBlock() (Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tip, err := l.latestLocked()
	if err != nil {
		return Block{}, err
	}
	return cloneBlock(tip), nil
}

func (l *Ledger) latestLocked() (Block, error) {
	if len(l.chain) == 0 {
		return Block{}, ErrEmptyChain
	}
	return l.chain[len(l.chain)-1], nil
}

// Mine runs a proof-of-work search against the tip, stages the miner's
// reward transaction, and appends a block carrying the pending buffer
// plus the reward. The whole sequence is one critical section: either a
// complete block lands and the buffer is drained, or a cancelled search
// leaves chain and buffer exactly as they were.
func (l *Ledger) Mine(ctx context.Context, miner string) (Block, error) {
	started := time.Now()
	if l.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.searchTimeout)
		defer cancel()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	last, err := l.latestLocked()
	if err != nil {
		return Block{}, err
	}

	proofNo, err := l.prover.Search(ctx, last.ProofNo)
	if err != nil {
		l.metrics.ObserveMine(err, 0, started)
		l.log.Warn("mining aborted", zap.Uint64("height", last.Index), zap.Error(err))
		return Block{}, err
	}

	l.pending = append(l.pending, Transaction{
		Sender:    l.rewardSender,
		Recipient: miner,
		Quantity:  l.rewardQuantity,
	})
	block := l.constructBlockLocked(proofNo, last.Hash())

	l.metrics.ObserveMine(nil, proofNo+1, started)
	l.log.Info("block mined",
		zap.Uint64("index", block.Index),
		zap.Uint64("proof_no", block.ProofNo),
		zap.String("miner", miner),
		zap.Int("transactions", len(block.Data)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return cloneBlock(block), nil
}

// RegisterPeer adds an address to the peer registry. Re-registering a
// known address is a no-op. The registry is informational only; no
// networking is driven from it.
func (l *Ledger) RegisterPeer(address string) {
	if l.peers.Add(address) {
		l.log.Debug("peer registered", zap.String("address", address))
	}
}

// HasPeer reports whether an address is registered.
func (l *Ledger) HasPeer(address string) bool {
	return l.peers.Contains(address)
}

// Peers returns the registered addresses, sorted.
func (l *Ledger) Peers() []string {
	raw := l.peers.ToSlice()
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, v.(string))
	}
	sort.Strings(out)
	return out
}

// Chain returns a copy of the block sequence, genesis first.
func (l *Ledger) Chain() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Block, len(l.chain))
	for i, b := range l.chain {
		out[i] = cloneBlock(b)
	}
	return out
}

// Height returns the index of the tip block.
func (l *Ledger) Height() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.chain) == 0 {
		return 0
	}
	return uint64(len(l.chain)) - 1
}

// PendingCount returns the number of staged transactions.
func (l *Ledger) PendingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pending)
}

// PendingTransactions returns a copy of the staged transactions in
// staging order.
func (l *Ledger) PendingTransactions() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Transaction, len(l.pending))
	copy(out, l.pending)
	return out
}
