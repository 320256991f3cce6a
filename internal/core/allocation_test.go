package core

import "testing"

func pct(p float64) Percent { return Percent(p * 100) }

func TestAllocateIncome_Waterfall(t *testing.T) {
	rule := SplitRule{
		TitheEnabled:     true,
		TithePercent:     pct(10),
		SavingsEnabled:   true,
		SavingsPercent:   pct(20),
		CorePercent:      pct(90),
		SatellitePercent: pct(10),
		Allocations: []RuleAllocation{
			{CategoryID: "food", Percent: pct(50)},
			{CategoryID: "transport", Percent: pct(30)},
			{CategoryID: "fun", Percent: pct(20)},
		},
	}
	gross := Money{Cents: 1_000_000_00} // 1,000,000.00

	res := AllocateIncome(gross, rule)

	if res.Tithe.Cents != 100_000_00 {
		t.Errorf("tithe = %d, want %d", res.Tithe.Cents, 100_000_00)
	}
	if res.Savings.Cents != 200_000_00 {
		t.Errorf("savings = %d, want %d", res.Savings.Cents, 200_000_00)
	}
	if res.Core.Cents != 180_000_00 {
		t.Errorf("core = %d, want %d", res.Core.Cents, 180_000_00)
	}
	if res.Satellite.Cents != 20_000_00 {
		t.Errorf("satellite = %d, want %d", res.Satellite.Cents, 20_000_00)
	}
	if res.Net.Cents != 700_000_00 {
		t.Errorf("net = %d, want %d", res.Net.Cents, 700_000_00)
	}

	wantCats := []int64{350_000_00, 210_000_00, 140_000_00}
	for i, want := range wantCats {
		if got := res.Categories[i].Amount.Cents; got != want {
			t.Errorf("category %d = %d, want %d", i, got, want)
		}
	}
}

func TestAllocateIncome_TotalsPreserved(t *testing.T) {
	rules := []SplitRule{
		{
			TitheEnabled: true, TithePercent: pct(7.5),
			SavingsEnabled: true, SavingsPercent: pct(13.33),
			CorePercent: pct(66.67), SatellitePercent: pct(33.33),
			Allocations: []RuleAllocation{
				{CategoryID: "a", Percent: pct(33.33)},
				{CategoryID: "b", Percent: pct(33.33)},
				{CategoryID: "c", Percent: pct(33.34)},
			},
		},
		{SavingsEnabled: true, SavingsPercent: pct(100)},
		{}, // everything disabled
	}
	grosses := []int64{1, 99, 12345, 1_000_000_00, 777_777_77}

	for ri, rule := range rules {
		for _, g := range grosses {
			res := AllocateIncome(Money{Cents: g}, rule)

			total := res.Tithe.Cents + res.Savings.Cents + res.Net.Cents
			if total != g {
				t.Errorf("rule %d gross %d: tithe+savings+net = %d", ri, g, total)
			}
			if res.Core.Cents+res.Satellite.Cents != res.Savings.Cents {
				t.Errorf("rule %d gross %d: core+satellite != savings", ri, g)
			}
			if len(res.Categories) > 0 {
				var sum int64
				for _, c := range res.Categories {
					sum += c.Amount.Cents
				}
				if sum != res.Net.Cents {
					t.Errorf("rule %d gross %d: allocations sum %d != net %d", ri, g, sum, res.Net.Cents)
				}
			}
		}
	}
}

func TestAllocateIncome_DisabledStepsAreZero(t *testing.T) {
	rule := SplitRule{
		TithePercent:   pct(10), // set but not enabled
		SavingsPercent: pct(20),
	}
	res := AllocateIncome(Money{Cents: 50000}, rule)
	if res.Tithe.Cents != 0 || res.Savings.Cents != 0 {
		t.Errorf("disabled steps produced amounts: tithe=%d savings=%d", res.Tithe.Cents, res.Savings.Cents)
	}
	if res.Net.Cents != 50000 {
		t.Errorf("net = %d, want gross", res.Net.Cents)
	}
}

func TestSplitRuleValidate(t *testing.T) {
	base := SplitRule{Name: "default"}

	tests := []struct {
		name    string
		mutate  func(*SplitRule)
		wantErr error
	}{
		{"bare rule ok", func(r *SplitRule) {}, nil},
		{"empty name", func(r *SplitRule) { r.Name = " " }, ErrEmptyName},
		{
			"core/satellite must sum to 100",
			func(r *SplitRule) {
				r.SavingsEnabled = true
				r.SavingsPercent = pct(20)
				r.CorePercent = pct(90)
				r.SatellitePercent = pct(20)
			},
			ErrPercentSum,
		},
		{
			"allocations must sum to 100",
			func(r *SplitRule) {
				r.Allocations = []RuleAllocation{
					{CategoryID: "a", Percent: pct(60)},
					{CategoryID: "b", Percent: pct(30)},
				}
			},
			ErrPercentSum,
		},
		{
			"tithe plus savings cannot exceed gross",
			func(r *SplitRule) {
				r.TitheEnabled = true
				r.TithePercent = pct(60)
				r.SavingsEnabled = true
				r.SavingsPercent = pct(50)
				r.CorePercent = pct(50)
				r.SatellitePercent = pct(50)
			},
			ErrInvalidPercent,
		},
		{
			"valid full rule",
			func(r *SplitRule) {
				r.TitheEnabled = true
				r.TithePercent = pct(10)
				r.SavingsEnabled = true
				r.SavingsPercent = pct(20)
				r.CorePercent = pct(90)
				r.SatellitePercent = pct(10)
				r.Allocations = []RuleAllocation{
					{CategoryID: "a", Percent: pct(100)},
				}
			},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := base
			tt.mutate(&rule)
			err := rule.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && err != tt.wantErr {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
