package format

import "testing"

func threeSceneTable(end EndBehavior) *AnimationTable {
	return &AnimationTable{
		HasAnimation: true,
		DurationMs:   15000,
		EndBehavior:  end,
		Scenes: []Scene{
			{IDStringID: 1, FrameStringID: 10, StartMs: 0, EndMs: 5000},
			{IDStringID: 2, FrameStringID: 11, StartMs: 5000, EndMs: 10000},
			{IDStringID: 3, FrameStringID: 12, StartMs: 10000, EndMs: 15000},
		},
	}
}

func TestFindSceneAtTimeHold(t *testing.T) {
	a := threeSceneTable(EndHold)
	cases := []struct {
		t    uint32
		want int
	}{
		{0, 0}, {2500, 0}, {5000, 1}, {14999, 2}, {20000, 2},
	}
	for _, c := range cases {
		idx, ok := a.FindSceneAtTime(c.t)
		if !ok || idx != c.want {
			t.Errorf("FindSceneAtTime(%d) = (%d, %v), want (%d, true)", c.t, idx, ok, c.want)
		}
	}
}

func TestFindSceneAtTimeStop(t *testing.T) {
	a := threeSceneTable(EndStop)
	if _, ok := a.FindSceneAtTime(20000); ok {
		t.Fatal("expected no scene past the end with EndStop")
	}
	if idx, ok := a.FindSceneAtTime(12000); !ok || idx != 2 {
		t.Fatalf("FindSceneAtTime(12000) = (%d, %v), want (2, true)", idx, ok)
	}
}

func TestFindSceneAtTimeNoAnimation(t *testing.T) {
	a := NewAnimationTable()
	if _, ok := a.FindSceneAtTime(0); ok {
		t.Fatal("expected no scene when no animation is present")
	}
}

func TestAnimationTableSerializeAbsent(t *testing.T) {
	a := NewAnimationTable()
	buf := a.Serialize()
	if len(buf) != 1 || buf[0] != 0 {
		t.Fatalf("absent animation table = %v, want [0x00]", buf)
	}
	got, n, err := DeserializeAnimationTable(buf)
	if err != nil {
		t.Fatalf("DeserializeAnimationTable: %v", err)
	}
	if n != 1 || got.HasAnimation {
		t.Fatalf("got = %+v, n = %d", got, n)
	}
}

func TestAnimationTableSerializeRoundTrip(t *testing.T) {
	a := threeSceneTable(EndHold)
	a.NameStringID = 42
	a.Loop = true

	buf := a.Serialize()
	if buf[0]&(1<<0) == 0 || buf[0]&(1<<1) == 0 {
		t.Fatalf("flags byte = %08b, want both bits 0 and 1 set", buf[0])
	}

	got, n, err := DeserializeAnimationTable(buf)
	if err != nil {
		t.Fatalf("DeserializeAnimationTable: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d of %d bytes", n, len(buf))
	}
	if !got.HasAnimation || !got.Loop || got.NameStringID != 42 || got.DurationMs != 15000 {
		t.Fatalf("got = %+v", got)
	}
	if len(got.Scenes) != 3 || got.Scenes[1].StartMs != 5000 || got.Scenes[1].EndMs != 10000 {
		t.Fatalf("scenes = %+v", got.Scenes)
	}
}

func TestAnimationTableDeserializeTruncated(t *testing.T) {
	if _, _, err := DeserializeAnimationTable(nil); err != ErrInvalidFormat {
		t.Fatalf("error = %v, want ErrInvalidFormat", err)
	}
	// flags says has_animation but no further bytes follow.
	if _, _, err := DeserializeAnimationTable([]byte{1}); err != ErrInvalidFormat {
		t.Fatalf("error = %v, want ErrInvalidFormat", err)
	}
}
