package surround

import "testing"

var (
	origin  = Vector3{0, 0, 0}
	forward = Vector3{0, 1, 0}
	upward  = Vector3{0, 0, 1}
)

func TestNormalizeZeroGuard(t *testing.T) {
	tests := []struct {
		in   Vector3
		want Vector3
	}{
		{Vector3{0, 0, 0}, Vector3{0, 0, 0}},
		{Vector3{1e-8, -1e-8, 1e-9}, Vector3{0, 0, 0}},
		{Vector3{3, 0, 0}, Vector3{1, 0, 0}},
		{Vector3{0, -2, 0}, Vector3{0, -1, 0}},
	}

	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStereoFrontEmitter(t *testing.T) {
	gains := SetupMatrix(Vector3{0, 5, 0}, origin, forward, upward, Stereo)

	for i := 0; i < 2; i++ {
		if gains[i] <= stereoVectors[i].bias {
			t.Errorf("gain[%d] = %f, not above bias %f", i, gains[i], stereoVectors[i].bias)
		}
	}
	if gains[0] != gains[1] {
		t.Errorf("front emitter should be centred: %v", gains)
	}
	for i := 2; i < MaxChannels; i++ {
		if gains[i] != 0 {
			t.Errorf("unused slot %d = %f", i, gains[i])
		}
	}
}

func TestStereoMirrorSwapsChannels(t *testing.T) {
	positions := []Vector3{
		{3, 0, 0},
		{2, 1, 0},
		{5, -4, 1},
		{0.5, 7, -2},
	}

	for _, pos := range positions {
		mirrored := Vector3{-pos.X, pos.Y, pos.Z}

		a := SetupMatrix(pos, origin, forward, upward, Stereo)
		b := SetupMatrix(mirrored, origin, forward, upward, Stereo)

		if a[0] != b[1] || a[1] != b[0] {
			t.Errorf("emitter %v: %v, mirrored %v", pos, a[:2], b[:2])
		}
	}

	right := SetupMatrix(Vector3{3, 0, 0}, origin, forward, upward, Stereo)
	if right[1] <= right[0] {
		t.Errorf("emitter on the right should favour the right channel: %v", right[:2])
	}
}

func TestListenerHeadingRotatesField(t *testing.T) {
	// Facing +X with Z up, an emitter at -Y is on the listener's right.
	gains := SetupMatrix(Vector3{0, -4, 0}, origin, Vector3{1, 0, 0}, upward, Stereo)

	if gains[1] <= gains[0] {
		t.Errorf("expected right-weighted gains, got %v", gains[:2])
	}
}

func TestLFEAlwaysFull(t *testing.T) {
	for _, pos := range []Vector3{{0, 3, 0}, {0, -3, 0}, {1, 1, 1}} {
		gains := SetupMatrix(pos, origin, forward, upward, Surround51)
		if gains[LFE] != 1.0 {
			t.Errorf("LFE gain at %v = %f", pos, gains[LFE])
		}
	}
}

func TestCoincidentEmitter(t *testing.T) {
	gains := SetupMatrix(origin, origin, forward, upward, Surround71)

	for i := 0; i < MaxChannels; i++ {
		if gains[i] != 1.0 {
			t.Errorf("slot %d = %f, want 1 for a coincident emitter", i, gains[i])
		}
	}
}

func TestChannelMapUnknownAndAbsent(t *testing.T) {
	chanMap := ChannelMap{Count: 4, Channels: [MaxChannels]AudioChannel{FrontLeft, Unknown, SideLeft, FrontRight}}

	gains := SetupMatrixWithMap(Vector3{1, 1, 0}, origin, forward, upward, Stereo, chanMap)

	if gains[0] == 0 || gains[3] == 0 {
		t.Errorf("mapped stereo slots should be driven: %v", gains)
	}
	if gains[1] != 0 {
		t.Errorf("Unknown slot = %f", gains[1])
	}
	if gains[2] != 0 {
		t.Errorf("side channel is absent from stereo: %f", gains[2])
	}
}

func TestDefaultChannelMapCounts(t *testing.T) {
	tests := []struct {
		layout ChannelLayout
		count  int
	}{
		{Stereo, 2},
		{Quad, 4},
		{Surround51, 6},
		{Surround71, 8},
	}

	for _, tt := range tests {
		m := DefaultChannelMap(tt.layout)
		if m.Count != tt.count {
			t.Errorf("layout %d count = %d, want %d", tt.layout, m.Count, tt.count)
		}
		for i := tt.count; i < MaxChannels; i++ {
			if m.Channels[i] != Unknown {
				t.Errorf("layout %d slot %d = %d", tt.layout, i, m.Channels[i])
			}
		}
	}
}

func TestLayoutAndChannelNames(t *testing.T) {
	for name, want := range map[string]ChannelLayout{"stereo": Stereo, "quad": Quad, "5.1": Surround51, "7.1": Surround71} {
		if got, ok := ParseLayout(name); !ok || got != want {
			t.Errorf("ParseLayout(%q) = %d, %v", name, got, ok)
		}
	}

	if _, ok := ParseLayout("mono"); ok {
		t.Error("mono accepted")
	}

	if LFE.String() != "LFE" || SideRight.String() != "SR" || Unknown.String() != "--" {
		t.Errorf("names %s %s %s", LFE, SideRight, Unknown)
	}
}
