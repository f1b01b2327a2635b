package mahjong_test

import (
	"testing"

	"mahjong-score/internal/mahjong"
)

func TestCalculateDrawSettlement(t *testing.T) {
	cases := []struct {
		mode   mahjong.Mode
		tenpai int
		noten  int
		want   mahjong.DrawShares
	}{
		{mahjong.FourPlayer, 1, 3, mahjong.DrawShares{Tenpai: 3000, Noten: -1000}},
		{mahjong.FourPlayer, 2, 2, mahjong.DrawShares{Tenpai: 1500, Noten: -1500}},
		{mahjong.FourPlayer, 3, 1, mahjong.DrawShares{Tenpai: 1000, Noten: -3000}},
		{mahjong.FourPlayer, 0, 4, mahjong.DrawShares{}},
		{mahjong.FourPlayer, 4, 0, mahjong.DrawShares{}},
		{mahjong.ThreePlayer, 1, 2, mahjong.DrawShares{Tenpai: 2000, Noten: -1000}},
		{mahjong.ThreePlayer, 2, 1, mahjong.DrawShares{Tenpai: 1000, Noten: -2000}},
		{mahjong.ThreePlayer, 3, 0, mahjong.DrawShares{}},
	}
	for _, tc := range cases {
		got := mahjong.CalculateDrawSettlement(tc.tenpai, tc.noten, tc.mode)
		if got != tc.want {
			t.Fatalf("%s %d/%d: expected %+v, got %+v", tc.mode, tc.tenpai, tc.noten, tc.want, got)
		}
		if sum := got.Tenpai*tc.tenpai + got.Noten*tc.noten; sum != 0 {
			t.Fatalf("%s %d/%d: not zero-sum (%d)", tc.mode, tc.tenpai, tc.noten, sum)
		}
	}
}

func TestDrawDeltas(t *testing.T) {
	deltas, err := mahjong.DrawDeltas(fourSeats, []string{"north"}, mahjong.FourPlayer)
	if err != nil {
		t.Fatalf("draw deltas failed: %v", err)
	}
	if d := deltaOf(t, deltas, "north"); d.Total != 3000 {
		t.Fatalf("expected tenpai +3000, got %+v", d)
	}
	if d := deltaOf(t, deltas, "east"); d.Total != -1000 {
		t.Fatalf("expected noten -1000, got %+v", d)
	}
	if mahjong.Balance(deltas) != 0 {
		t.Fatalf("draw deltas must sum to zero")
	}

	if _, err := mahjong.DrawDeltas(fourSeats, []string{"ghost"}, mahjong.FourPlayer); err == nil {
		t.Fatalf("expected error for unknown tenpai player")
	}
}
