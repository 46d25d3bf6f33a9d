package core

import "testing"

func TestMakePairNormalizes(t *testing.T) {
	if MakePair(7, 2) != MakePair(2, 7) {
		t.Fatalf("pair order must not matter")
	}
	p := MakePair(7, 2)
	if p.Low != 2 || p.High != 7 {
		t.Fatalf("MakePair(7,2) = %+v, want {2 7}", p)
	}
}

func TestPairOtherContains(t *testing.T) {
	p := MakePair(3, 9)
	if !p.Contains(3) || !p.Contains(9) || p.Contains(4) {
		t.Fatalf("Contains misbehaves for %+v", p)
	}
	if p.Other(3) != 9 || p.Other(9) != 3 {
		t.Fatalf("Other misbehaves for %+v", p)
	}
}

func TestKnownPositionsClone(t *testing.T) {
	orig := KnownPositions{1: {X: 5, Y: 5}}
	clone := orig.Clone()
	clone[2] = Vec2{X: 9, Y: 9}

	if _, ok := orig[2]; ok {
		t.Fatalf("Clone shares storage with the original")
	}
}
