package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestKeyIgnoresCaseAndSpace(t *testing.T) {
	assert.Equal(t, "virat kohli", Key("  Virat Kohli "))
	assert.Equal(t, Key("ALICE"), Key("alice"))
}

func TestSaleRecordRoundsToMillions(t *testing.T) {
	assert.Equal(t, "Dhoni ($12M)", SaleRecord("Dhoni", 12_000_000))
	assert.Equal(t, "Dhoni ($3M)", SaleRecord("Dhoni", 2_500_000))
	assert.Equal(t, "Dhoni ($2M)", SaleRecord("Dhoni", 2_499_999))
	assert.Equal(t, "Dhoni (Draft)", DraftRecord("Dhoni"))
}

func TestHoldingsCountsRetainedPlayer(t *testing.T) {
	m := &Manager{Name: "A", Players: []string{"x", "y"}}
	assert.Equal(t, 2, m.Holdings())
	m.RetainedPlayer = "z"
	assert.Equal(t, 3, m.Holdings())
}

func TestCloneIsDeep(t *testing.T) {
	s := NewAuctionState()
	s.Managers["a"] = &Manager{Name: "A", Budget: 10, Players: []string{"p1"}}
	s.Phase = PhaseBidding
	s.OnBlock = &OnBlock{Player: Player{Name: "P", BasePrice: 1, Rating: intPtr(90)}, CurrentBid: 1}
	s.Queue = []string{"q"}

	c := s.Clone()
	c.Managers["a"].Budget = 0
	c.Managers["a"].Players[0] = "changed"
	*c.OnBlock.Player.Rating = 1
	c.Queue[0] = "changed"

	assert.Equal(t, int64(10), s.Managers["a"].Budget)
	assert.Equal(t, "p1", s.Managers["a"].Players[0])
	assert.Equal(t, 90, *s.OnBlock.Player.Rating)
	assert.Equal(t, "q", s.Queue[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *AuctionState)
		wantErr bool
	}{
		{name: "fresh state", mutate: func(*AuctionState) {}},
		{name: "unknown phase", mutate: func(s *AuctionState) { s.Phase = "lunch" }, wantErr: true},
		{name: "zero cap", mutate: func(s *AuctionState) { s.ItemCap = 0 }, wantErr: true},
		{name: "negative budget", mutate: func(s *AuctionState) {
			s.Managers["a"] = &Manager{Name: "A", Budget: -1}
		}, wantErr: true},
		{name: "over cap", mutate: func(s *AuctionState) {
			s.ItemCap = 1
			s.Managers["a"] = &Manager{Name: "A", Players: []string{"x"}, RetainedPlayer: "y"}
		}, wantErr: true},
		{name: "bidding without block", mutate: func(s *AuctionState) { s.Phase = PhaseBidding }, wantErr: true},
		{name: "bid below base", mutate: func(s *AuctionState) {
			s.Phase = PhaseBidding
			s.OnBlock = &OnBlock{Player: Player{Name: "P", BasePrice: 5}, CurrentBid: 4}
		}, wantErr: true},
		{name: "drafting without order", mutate: func(s *AuctionState) { s.Phase = PhaseDrafting }, wantErr: true},
		{name: "idle with block", mutate: func(s *AuctionState) {
			s.OnBlock = &OnBlock{Player: Player{Name: "P", BasePrice: 1}, CurrentBid: 1}
		}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAuctionState()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	c := Catalog{}
	c.Put(Player{Name: "Rohit Sharma", Team: "MI", BasePrice: 2_000_000})
	c.Put(Player{Name: "Ab de Villiers", Team: "RCB", BasePrice: 2_000_000})

	p, ok := c.Get("ROHIT SHARMA")
	require.True(t, ok)
	assert.Equal(t, "MI", p.Team)

	sorted := c.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "Ab de Villiers", sorted[0].Name)

	assert.True(t, c.Remove("rohit sharma"))
	assert.False(t, c.Remove("rohit sharma"))
	assert.Len(t, c, 1)
}
