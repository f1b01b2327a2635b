package mahjong_test

import (
	"errors"
	"testing"

	"mahjong-score/internal/mahjong"
)

func TestCalculatePaymentRon(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.FourPlayer)

	cases := []struct {
		name  string
		hand  mahjong.HandValue
		role  mahjong.SeatRole
		want  int
		limit mahjong.Limit
	}{
		{"1han 30fu child", mahjong.HandValue{Han: 1, Fu: 30}, mahjong.NonDealer, 1000, mahjong.LimitNone},
		{"2han 40fu child", mahjong.HandValue{Han: 2, Fu: 40}, mahjong.NonDealer, 2600, mahjong.LimitNone},
		{"3han 30fu dealer", mahjong.HandValue{Han: 3, Fu: 30}, mahjong.Dealer, 5800, mahjong.LimitNone},
		{"4han 30fu dealer stays below mangan", mahjong.HandValue{Han: 4, Fu: 30}, mahjong.Dealer, 11600, mahjong.LimitNone},
		{"4han 40fu clamps to mangan", mahjong.HandValue{Han: 4, Fu: 40}, mahjong.NonDealer, 8000, mahjong.Mangan},
		{"5han mangan dealer", mahjong.HandValue{Han: 5}, mahjong.Dealer, 12000, mahjong.Mangan},
		{"haneman", mahjong.HandValue{Han: 7}, mahjong.NonDealer, 12000, mahjong.Haneman},
		{"baiman", mahjong.HandValue{Han: 9}, mahjong.NonDealer, 16000, mahjong.Baiman},
		{"sanbaiman", mahjong.HandValue{Han: 12}, mahjong.Dealer, 36000, mahjong.Sanbaiman},
		{"yakuman", mahjong.HandValue{Han: 13}, mahjong.NonDealer, 32000, mahjong.Yakuman},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := mahjong.CalculatePayment(s, tc.hand, tc.role, mahjong.Ron)
			if p.Ron != tc.want {
				t.Fatalf("expected ron %d, got %d", tc.want, p.Ron)
			}
			if p.Limit != tc.limit {
				t.Fatalf("expected limit %q, got %q", tc.limit, p.Limit)
			}
		})
	}
}

func TestCalculatePaymentKiriage(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.FourPlayer)
	s.KiriageMangan = true

	p := mahjong.CalculatePayment(s, mahjong.HandValue{Han: 4, Fu: 30}, mahjong.Dealer, mahjong.Ron)
	if p.Ron != 12000 || p.Limit != mahjong.Mangan {
		t.Fatalf("expected kiriage mangan 12000, got %+v", p)
	}
	p = mahjong.CalculatePayment(s, mahjong.HandValue{Han: 3, Fu: 60}, mahjong.NonDealer, mahjong.Ron)
	if p.Ron != 8000 {
		t.Fatalf("expected 3han 60fu to round up to 8000, got %d", p.Ron)
	}
}

func TestCalculatePaymentTsumo(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.FourPlayer)

	p := mahjong.CalculatePayment(s, mahjong.HandValue{Han: 1, Fu: 30}, mahjong.NonDealer, mahjong.Tsumo)
	if p.TsumoDealer != 500 || p.TsumoNonDealer != 300 {
		t.Fatalf("expected 300/500, got %+v", p)
	}
	if p.ShareFor(mahjong.Dealer) != 500 || p.ShareFor(mahjong.NonDealer) != 300 {
		t.Fatalf("unexpected shares: %+v", p)
	}
	if p.Total(4) != 1100 {
		t.Fatalf("expected total 1100, got %d", p.Total(4))
	}

	p = mahjong.CalculatePayment(s, mahjong.HandValue{Han: 2, Fu: 30}, mahjong.Dealer, mahjong.Tsumo)
	if p.TsumoAll != 1000 {
		t.Fatalf("expected 1000 all, got %+v", p)
	}
	if p.ShareFor(mahjong.NonDealer) != 1000 || p.Total(4) != 3000 {
		t.Fatalf("unexpected dealer tsumo shares: %+v", p)
	}
	if p.Label != "2han 30fu" {
		t.Fatalf("unexpected label %q", p.Label)
	}
}

func TestCalculatePaymentThreePlayerPhantom(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.ThreePlayer)

	p := mahjong.CalculatePayment(s, mahjong.HandValue{Han: 5}, mahjong.NonDealer, mahjong.Tsumo)
	if p.TsumoNonDealer != 3000 || p.TsumoDealer != 5000 {
		t.Fatalf("expected 3000/5000, got %+v", p)
	}
	if p.Total(3) != 8000 {
		t.Fatalf("expected mangan total 8000, got %d", p.Total(3))
	}

	p = mahjong.CalculatePayment(s, mahjong.HandValue{Han: 5}, mahjong.Dealer, mahjong.Tsumo)
	if p.TsumoAll != 6000 {
		t.Fatalf("expected 6000 all, got %+v", p)
	}

	p = mahjong.CalculatePayment(s, mahjong.HandValue{Han: 5}, mahjong.NonDealer, mahjong.Ron)
	if p.Ron != 8000 {
		t.Fatalf("ron must not carry a phantom share, got %d", p.Ron)
	}
}

func TestCalculatePaymentSimplified(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.FourPlayer)
	s.UseFuCalculation = false

	cases := []struct {
		han    int
		role   mahjong.SeatRole
		ron    int
		all    int
		dealer int
		other  int
	}{
		{1, mahjong.Dealer, 1500, 500, 0, 0},
		{2, mahjong.Dealer, 3000, 1000, 0, 0},
		{3, mahjong.Dealer, 6000, 2000, 0, 0},
		{1, mahjong.NonDealer, 1000, 0, 500, 300},
		{2, mahjong.NonDealer, 2000, 0, 1000, 500},
		{3, mahjong.NonDealer, 4000, 0, 2000, 1000},
	}
	for _, tc := range cases {
		v := mahjong.HandValue{Han: tc.han}
		if err := s.CheckHand(v); err != nil {
			t.Fatalf("simplified hand rejected: %v", err)
		}
		ron := mahjong.CalculatePayment(s, v, tc.role, mahjong.Ron)
		if ron.Ron != tc.ron {
			t.Fatalf("han %d role %d: expected ron %d, got %d", tc.han, tc.role, tc.ron, ron.Ron)
		}
		tsumo := mahjong.CalculatePayment(s, v, tc.role, mahjong.Tsumo)
		if tsumo.TsumoAll != tc.all || tsumo.TsumoDealer != tc.dealer || tsumo.TsumoNonDealer != tc.other {
			t.Fatalf("han %d role %d: unexpected tsumo %+v", tc.han, tc.role, tsumo)
		}
		if tsumo.Label == "" {
			t.Fatalf("missing label")
		}
	}

	// 4 han and above fall back to the regular table
	p := mahjong.CalculatePayment(s, mahjong.HandValue{Han: 4, Fu: 30}, mahjong.NonDealer, mahjong.Ron)
	if p.Ron != 7700 {
		t.Fatalf("expected 7700, got %d", p.Ron)
	}
}

func TestCalculatePaymentSimplifiedThreePlayer(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.ThreePlayer)
	s.UseFuCalculation = false

	p := mahjong.CalculatePayment(s, mahjong.HandValue{Han: 1}, mahjong.Dealer, mahjong.Tsumo)
	if p.TsumoAll != 800 {
		t.Fatalf("expected 800 all, got %+v", p)
	}
	p = mahjong.CalculatePayment(s, mahjong.HandValue{Han: 3}, mahjong.NonDealer, mahjong.Tsumo)
	if p.TsumoNonDealer != 1500 || p.TsumoDealer != 2500 {
		t.Fatalf("expected 1500/2500, got %+v", p)
	}
}

func TestCheckHand(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.FourPlayer)

	bad := []mahjong.HandValue{
		{Han: 0, Fu: 30},
		{Han: -1, Fu: 30},
		{Han: 2, Fu: 10},
		{Han: 2, Fu: 35},
		{Han: 1, Fu: 200},
	}
	for _, v := range bad {
		if err := s.CheckHand(v); !errors.Is(err, mahjong.ErrInvalidHand) {
			t.Fatalf("expected ErrInvalidHand for %+v, got %v", v, err)
		}
	}

	good := []mahjong.HandValue{{Han: 2, Fu: 25}, {Han: 1, Fu: 110}, {Han: 6}}
	for _, v := range good {
		if err := s.CheckHand(v); err != nil {
			t.Fatalf("unexpected error for %+v: %v", v, err)
		}
	}
}
