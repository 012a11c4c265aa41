package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
)

func TestClassifyRollBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		roll       uint64
		multiplier uint16
		gem        models.GemType
		hit        bool
	}{
		{"below window at 1x", 699, 100, 0, false},
		{"window start at 1x", 700, 100, models.GemGarnet, true},
		{"last garnet", 849, 100, models.GemGarnet, true},
		{"first amethyst", 850, 100, models.GemAmethyst, true},
		{"first topaz", 930, 100, models.GemTopaz, true},
		{"first sapphire", 970, 100, models.GemSapphire, true},
		{"first emerald", 990, 100, models.GemEmerald, true},
		{"first ruby", 997, 100, models.GemRuby, true},
		{"diamond", 999, 100, models.GemDiamond, true},
		{"half multiplier misses", 849, 50, 0, false},
		{"half multiplier window", 850, 50, models.GemGarnet, true},
		{"triple multiplier window", 100, 300, models.GemGarnet, true},
		{"triple multiplier miss", 99, 300, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gem, hit := ledger.ClassifyRoll(tt.roll, tt.multiplier)
			assert.Equal(t, tt.hit, hit)
			if tt.hit {
				assert.Equal(t, tt.gem, gem)
			}
		})
	}
}

func TestDeriveRewardsTerminates(t *testing.T) {
	seed := ledger.RewardSeed([]byte("entropy"), 42, 1000)
	tests := []struct {
		accum     uint64
		threshold uint64
		rolls     uint32
		remaining uint64
	}{
		{accum: 0, threshold: 100, rolls: 0, remaining: 0},
		{accum: 99, threshold: 100, rolls: 0, remaining: 99},
		{accum: 100, threshold: 100, rolls: 1, remaining: 0},
		{accum: 250, threshold: 100, rolls: 2, remaining: 50},
		{accum: 100_050, threshold: 100, rolls: 100, remaining: 90_050},
		{accum: ^uint64(0), threshold: 1, rolls: 100, remaining: ^uint64(0) - 100},
	}
	for _, tt := range tests {
		remaining, draw := ledger.DeriveRewards(tt.accum, tt.threshold, 100, seed, 100)
		assert.Equal(t, tt.rolls, draw.Rolls, "accum %d", tt.accum)
		assert.Equal(t, tt.remaining, remaining, "accum %d", tt.accum)
		assert.LessOrEqual(t, len(draw.Gems), int(draw.Rolls))
	}

	remaining, draw := ledger.DeriveRewards(500, 0, 100, seed, 100)
	assert.Equal(t, uint64(500), remaining)
	assert.Zero(t, draw.Rolls)
}

func TestRewardSeedIsDeterministic(t *testing.T) {
	a := ledger.RewardSeed([]byte("abc"), 7, 1000)
	b := ledger.RewardSeed([]byte("abc"), 7, 1000)
	assert.Equal(t, a, b)

	padded := make([]byte, 32)
	copy(padded, "abc")
	assert.Equal(t, a, ledger.RewardSeed(padded, 7, 1000), "short entropy is zero padded")
	assert.Equal(t, a, ledger.RewardSeed(append(padded, 0xff), 7, 1000), "only the first 32 bytes count")

	assert.NotEqual(t, a, ledger.RewardSeed([]byte("abc"), 8, 1000))
	assert.NotEqual(t, a, ledger.RewardSeed([]byte("abc"), 7, 1001))

	for i := uint32(0); i < 50; i++ {
		v := ledger.RollValue(a, i)
		assert.Less(t, v, uint64(1000))
		assert.Equal(t, v, ledger.RollValue(a, i))
	}
}

func TestBetAndSettleAccumulatesWager(t *testing.T) {
	f := newFixture(t)
	owner := f.player(unit)
	mult := uint16(100)

	req := models.BetAndSettleRequest{Owner: owner, Stake: 250_000_000, Payout: 0, Multiplier: &mult, Metadata: metadata("r1")}
	require.NoError(t, f.engine.BetAndSettle(f.ctx, f.call(f.settler), req))
	assert.Equal(t, uint64(50_000_000), f.vault(owner).Vault.AccumWager)

	req.Stake, req.Metadata = 50_000_000, metadata("r2")
	require.NoError(t, f.engine.BetAndSettle(f.ctx, f.call(f.settler), req))
	assert.Zero(t, f.vault(owner).Vault.AccumWager)

	for _, evt := range f.sink.ofType(models.EventGemsAwarded) {
		gems := evt.(*models.GemsAwardedEvent)
		assert.Equal(t, owner, gems.Owner)
		assert.Equal(t, uint64(ledger.DefaultRewardThreshold), gems.ThresholdUnit)
		assert.NotEmpty(t, gems.Gems)
	}
}

func TestRewardRollsAreCapped(t *testing.T) {
	settings := ledger.DefaultSettings()
	settings.RewardThreshold = 1
	f := newFixtureWith(t, settings)
	owner := f.player(1000)
	mult := uint16(300)

	req := models.BetAndSettleRequest{Owner: owner, Stake: 1000, Payout: 1000, Multiplier: &mult, Metadata: metadata("cap")}
	require.NoError(t, f.engine.BetAndSettle(f.ctx, f.call(f.settler), req))
	assert.Equal(t, uint64(900), f.vault(owner).Vault.AccumWager)

	awarded := f.sink.ofType(models.EventGemsAwarded)
	require.Len(t, awarded, 1)
	evt := awarded[0].(*models.GemsAwardedEvent)
	assert.Equal(t, uint32(100), evt.NumRolls)
	assert.Equal(t, uint16(300), evt.Multiplier)
	assert.NotEmpty(t, evt.Gems)
}
