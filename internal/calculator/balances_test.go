package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNetBalances(t *testing.T) {
	t.Run("payer is owed the unsettled shares", func(t *testing.T) {
		obligations := []Obligation{
			{Debtor: "bob", Creditor: "alice", Amount: d("3.33")},
			{Debtor: "carol", Creditor: "alice", Amount: d("3.33")},
		}

		balances := NetBalances([]string{"alice", "bob", "carol"}, obligations)

		want := map[string]string{"alice": "6.66", "bob": "-3.33", "carol": "-3.33"}
		if len(balances) != 3 {
			t.Fatalf("got %d balances, want 3", len(balances))
		}
		for i, member := range []string{"alice", "bob", "carol"} {
			if balances[i].Member != member {
				t.Errorf("balance %d member = %q, want %q", i, balances[i].Member, member)
			}
			if !balances[i].Net.Equal(d(want[member])) {
				t.Errorf("%s net = %s, want %s", member, balances[i].Net, want[member])
			}
		}
	})

	t.Run("members with no obligations have zero balance", func(t *testing.T) {
		balances := NetBalances([]string{"alice", "bob"}, nil)
		for _, b := range balances {
			if !b.Net.IsZero() {
				t.Errorf("%s net = %s, want 0", b.Member, b.Net)
			}
		}
	})

	t.Run("former members are appended", func(t *testing.T) {
		obligations := []Obligation{{Debtor: "dave", Creditor: "alice", Amount: d("5")}}
		balances := NetBalances([]string{"alice"}, obligations)
		if len(balances) != 2 || balances[1].Member != "dave" {
			t.Fatalf("balances = %+v, want alice then dave", balances)
		}
		if !balances[1].Net.Equal(d("-5")) {
			t.Errorf("dave net = %s, want -5", balances[1].Net)
		}
	})

	t.Run("self obligations are ignored", func(t *testing.T) {
		obligations := []Obligation{{Debtor: "alice", Creditor: "alice", Amount: d("5")}}
		balances := NetBalances([]string{"alice"}, obligations)
		if !balances[0].Net.IsZero() {
			t.Errorf("alice net = %s, want 0", balances[0].Net)
		}
	})
}

func TestSimplifyDebts(t *testing.T) {
	tests := []struct {
		name     string
		balances []MemberBalance
		want     []DebtEdge
	}{
		{
			name:     "all settled",
			balances: []MemberBalance{{Member: "alice", Net: decimal.Zero}},
			want:     []DebtEdge{},
		},
		{
			name: "two debtors one creditor",
			balances: []MemberBalance{
				{Member: "alice", Net: d("6.66")},
				{Member: "bob", Net: d("-3.33")},
				{Member: "carol", Net: d("-3.33")},
			},
			want: []DebtEdge{
				{From: "bob", To: "alice", Amount: d("3.33")},
				{From: "carol", To: "alice", Amount: d("3.33")},
			},
		},
		{
			name: "chain collapses",
			balances: []MemberBalance{
				{Member: "alice", Net: d("10")},
				{Member: "bob", Net: d("0")},
				{Member: "carol", Net: d("-10")},
			},
			want: []DebtEdge{
				{From: "carol", To: "alice", Amount: d("10")},
			},
		},
		{
			name: "largest debtor pays largest creditor first",
			balances: []MemberBalance{
				{Member: "alice", Net: d("5")},
				{Member: "bob", Net: d("15")},
				{Member: "carol", Net: d("-12")},
				{Member: "dave", Net: d("-8")},
			},
			want: []DebtEdge{
				{From: "carol", To: "bob", Amount: d("12")},
				{From: "dave", To: "bob", Amount: d("3")},
				{From: "dave", To: "alice", Amount: d("5")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimplifyDebts(tt.balances)
			if len(got) != len(tt.want) {
				t.Fatalf("SimplifyDebts() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i].From != tt.want[i].From || got[i].To != tt.want[i].To || !got[i].Amount.Equal(tt.want[i].Amount) {
					t.Errorf("edge %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
