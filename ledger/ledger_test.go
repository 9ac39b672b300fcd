package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeridiaLabs/Meridia/config"
	"github.com/MeridiaLabs/Meridia/consensus"
)

func TestNewLedgerGenesis(t *testing.T) {
	l := New()

	chain := l.Chain()
	require.Len(t, chain, 1)

	genesis := chain[0]
	assert.Equal(t, uint64(0), genesis.Index)
	assert.Equal(t, uint64(0), genesis.ProofNo)
	assert.Equal(t, GenesisPrevHash, genesis.PrevHash)
	assert.Empty(t, genesis.Data)

	tip, err := l.LatestBlock()
	require.NoError(t, err)
	assert.Equal(t, genesis, tip)
	assert.Equal(t, uint64(0), l.Height())
	assert.Zero(t, l.PendingCount())
}

func TestLatestBlockEmptyChain(t *testing.T) {
	// A zero-value Ledger skips genesis construction; the tip accessor
	// must fail cleanly rather than panic.
	var l Ledger
	_, err := l.LatestBlock()
	require.ErrorIs(t, err, ErrEmptyChain)
}

func TestAddTransactionAndMine(t *testing.T) {
	l := New()
	genesis, err := l.LatestBlock()
	require.NoError(t, err)

	l.AddTransaction("A", "B", 5)
	require.Equal(t, 1, l.PendingCount())

	block, err := l.Mine(context.Background(), "miner1")
	require.NoError(t, err)

	// The mined block carries the staged transaction plus the reward.
	require.Equal(t, []Transaction{
		{Sender: "A", Recipient: "B", Quantity: 5},
		{Sender: "0", Recipient: "miner1", Quantity: 1},
	}, block.Data)

	assert.Equal(t, uint64(1), block.Index)
	assert.Equal(t, genesis.Hash(), block.PrevHash)
	// Smallest proof for last_proof=0 at four leading zeros.
	assert.Equal(t, uint64(88914), block.ProofNo)
	assert.Greater(t, block.Timestamp, genesis.Timestamp)

	assert.Zero(t, l.PendingCount(), "pending buffer must drain into the block")
	assert.Equal(t, uint64(1), l.Height())
}

func TestMineTwiceEndToEnd(t *testing.T) {
	l := New()
	l.AddTransaction("A", "B", 5)

	_, err := l.Mine(context.Background(), "alice")
	require.NoError(t, err)
	_, err = l.Mine(context.Background(), "alice")
	require.NoError(t, err)

	chain := l.Chain()
	require.Len(t, chain, 3)
	assert.True(t, CheckValidity(chain[1], chain[0]))
	assert.True(t, CheckValidity(chain[2], chain[1]))
	assert.True(t, l.Valid())

	// Tampering with block 1's data changes its content hash, breaking
	// the linkage to block 2 but not the linkage from genesis.
	chain[1].Data[0].Quantity = 500
	assert.True(t, CheckValidity(chain[1], chain[0]))
	assert.False(t, CheckValidity(chain[2], chain[1]))

	// Chain hands out copies; the ledger's own blocks stay intact.
	assert.True(t, l.Valid())
}

func TestMineCancelledLeavesStateUntouched(t *testing.T) {
	l := New()
	l.AddTransaction("A", "B", 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Mine(ctx, "miner1")
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, uint64(0), l.Height())
	// No reward transaction may leak from a failed attempt.
	assert.Equal(t, []Transaction{{Sender: "A", Recipient: "B", Quantity: 5}}, l.PendingTransactions())
}

func TestConstructBlockMovesPending(t *testing.T) {
	l := New()
	l.AddTransaction("A", "B", 5)

	block := l.ConstructBlock(7, "abc")
	assert.Equal(t, uint64(1), block.Index)
	assert.Equal(t, "abc", block.PrevHash)
	require.Len(t, block.Data, 1)

	// Staging after construction must not reach the appended block.
	l.AddTransaction("C", "D", 9)
	assert.Len(t, block.Data, 1)
	tip, err := l.LatestBlock()
	require.NoError(t, err)
	assert.Len(t, tip.Data, 1)
}

func TestTimestampsStrictlyIncreaseWithFrozenClock(t *testing.T) {
	frozen := time.Unix(1700000000, 0)
	l := New(
		WithClock(func() time.Time { return frozen }),
		WithProver(consensus.NewProver(consensus.WithDifficulty(1))),
	)

	for i := 0; i < 3; i++ {
		_, err := l.Mine(context.Background(), "alice")
		require.NoError(t, err)
	}

	chain := l.Chain()
	require.Len(t, chain, 4)
	for i := 1; i < len(chain); i++ {
		assert.Greater(t, chain[i].Timestamp, chain[i-1].Timestamp)
	}
	assert.True(t, l.Valid())
}

func TestRegisterPeerIdempotent(t *testing.T) {
	l := New()
	l.RegisterPeer("10.0.0.2:30303")
	l.RegisterPeer("10.0.0.1:30303")
	l.RegisterPeer("10.0.0.2:30303")

	assert.Equal(t, []string{"10.0.0.1:30303", "10.0.0.2:30303"}, l.Peers())
	assert.True(t, l.HasPeer("10.0.0.1:30303"))
	assert.False(t, l.HasPeer("10.0.0.9:30303"))
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Mining.Difficulty = 1
	cfg.Mining.RewardQuantity = 2.5
	cfg.Mining.RewardSender = "treasury"

	l, err := NewFromConfig(cfg)
	require.NoError(t, err)

	block, err := l.Mine(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, block.Data, 1)
	assert.Equal(t, Transaction{Sender: "treasury", Recipient: "bob", Quantity: 2.5}, block.Data[0])
	assert.True(t, l.Valid())
}

func TestNewFromConfigInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Mining.Difficulty = 0

	_, err := NewFromConfig(cfg)
	require.Error(t, err)
}
