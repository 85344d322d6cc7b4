package domain

import "testing"

func TestRewardTier(t *testing.T) {
	cases := []struct {
		correct, total int
		want           BonusRange
		ok             bool
	}{
		{3, 3, BonusRange{10, 90}, true},
		{2, 3, BonusRange{5, 25}, true},
		{1, 3, BonusRange{}, false},
		{0, 0, BonusRange{}, false},
		{4, 6, BonusRange{5, 25}, true},
		{3, 6, BonusRange{}, false},
	}
	for _, tc := range cases {
		got, ok := RewardTier(tc.correct, tc.total)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("RewardTier(%d, %d) = %v, %v; want %v, %v", tc.correct, tc.total, got, ok, tc.want, tc.ok)
		}
	}
}

func TestComputeReward(t *testing.T) {
	lowest := func(int) int { return 0 }
	highest := func(n int) int { return n - 1 }

	if payout, bonus := ComputeReward(1_000_000, 3, 3, lowest); payout != 1_100_000 || bonus != 100_000 {
		t.Fatalf("perfect lowest: payout=%d bonus=%d", payout, bonus)
	}
	if payout, bonus := ComputeReward(1_000_000, 3, 3, highest); payout != 1_900_000 || bonus != 900_000 {
		t.Fatalf("perfect highest: payout=%d bonus=%d", payout, bonus)
	}
	if payout, bonus := ComputeReward(1_000_000, 2, 3, highest); payout != 1_250_000 || bonus != 250_000 {
		t.Fatalf("good highest: payout=%d bonus=%d", payout, bonus)
	}
	if payout, bonus := ComputeReward(1_000_000, 1, 3, highest); payout != 0 || bonus != 0 {
		t.Fatalf("poor: payout=%d bonus=%d", payout, bonus)
	}
}

func TestRewardEligible(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"race win", Snapshot{Mode: ModeRace, Phase: PhaseCompleted, Result: ResultHumanWins}, true},
		{"turns tie", Snapshot{Mode: ModeTurns, Phase: PhaseCompleted, Result: ResultTie}, true},
		{"race loss", Snapshot{Mode: ModeRace, Phase: PhaseCompleted, Result: ResultOpponentWins}, false},
		{"not completed", Snapshot{Mode: ModeSolo, Phase: PhaseAwaitingHumanAnswer, HumanScore: 3, TotalQuestions: 3}, false},
		{"solo perfect", Snapshot{Mode: ModeSolo, Phase: PhaseCompleted, Result: ResultHumanWins, HumanScore: 3, TotalQuestions: 3}, true},
		{"solo two thirds", Snapshot{Mode: ModeSolo, Phase: PhaseCompleted, Result: ResultHumanWins, HumanScore: 2, TotalQuestions: 3}, true},
		{"solo below tier", Snapshot{Mode: ModeSolo, Phase: PhaseCompleted, Result: ResultHumanWins, HumanScore: 1, TotalQuestions: 3}, false},
	}
	for _, tc := range cases {
		if got := RewardEligible(tc.snap); got != tc.want {
			t.Fatalf("%s: RewardEligible = %v, want %v", tc.name, got, tc.want)
		}
	}
}
