// Package surround computes per-speaker gains for a positioned emitter.
package surround

import "math"

const floatEpsilon = 1.1920929e-07

type Vector3 struct {
	X, Y, Z float32
}

func (a Vector3) Sub(b Vector3) Vector3 {
	return Vector3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func (a Vector3) Dot(b Vector3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func (a Vector3) Cross(b Vector3) Vector3 {
	return Vector3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (a Vector3) Length() float32 {
	return float32(math.Sqrt(float64(a.Dot(a))))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Normalize returns a unit vector, or the zero vector when every component
// is below float32 epsilon.
func (a Vector3) Normalize() Vector3 {
	if abs32(a.X) < floatEpsilon && abs32(a.Y) < floatEpsilon && abs32(a.Z) < floatEpsilon {
		return Vector3{}
	}

	var length = a.Length()
	return Vector3{a.X / length, a.Y / length, a.Z / length}
}

type ChannelLayout int

const (
	Stereo ChannelLayout = iota
	Quad
	Surround51
	Surround71
)

type AudioChannel int

const (
	FrontLeft AudioChannel = iota
	FrontRight
	RearLeft
	RearRight
	FrontCenter
	LFE
	SideLeft
	SideRight
	Unknown AudioChannel = 0xff
)

const MaxChannels = 8

var channelNames = [...]string{"FL", "FR", "RL", "RR", "FC", "LFE", "SL", "SR"}

func (channel AudioChannel) String() string {
	if channel >= 0 && int(channel) < len(channelNames) {
		return channelNames[channel]
	}

	return "--"
}

var layoutNames = map[string]ChannelLayout{
	"stereo": Stereo,
	"quad":   Quad,
	"5.1":    Surround51,
	"7.1":    Surround71,
}

// ParseLayout accepts stereo, quad, 5.1 or 7.1.
func ParseLayout(name string) (ChannelLayout, bool) {
	layout, ok := layoutNames[name]
	return layout, ok
}

// ChannelMap assigns a speaker to each of the output slots.
type ChannelMap struct {
	Count    int
	Channels [MaxChannels]AudioChannel
}

type referenceVector struct {
	vec   Vector3
	bias  float32
	valid bool
}

var stereoVectors = [MaxChannels]referenceVector{
	FrontLeft:  {Vector3{-0.80901, 0.58778, 0.0}, 0.3, true},
	FrontRight: {Vector3{0.80901, 0.58778, 0.0}, 0.3, true},
}

var quadVectors = [MaxChannels]referenceVector{
	FrontLeft:  {Vector3{-0.70710, 0.70710, 0.0}, 0.1, true},
	FrontRight: {Vector3{0.70710, 0.70710, 0.0}, 0.1, true},
	RearLeft:   {Vector3{-0.70710, -0.70710, 0.0}, 0.1, true},
	RearRight:  {Vector3{0.70710, -0.70710, 0.0}, 0.1, true},
}

var surround51Vectors = [MaxChannels]referenceVector{
	FrontLeft:   {Vector3{-0.70710, 0.70710, 0.0}, 0.1, true},
	FrontRight:  {Vector3{0.70710, 0.70710, 0.0}, 0.1, true},
	RearLeft:    {Vector3{-0.70710, -0.70710, 0.0}, 0.1, true},
	RearRight:   {Vector3{0.70710, -0.70710, 0.0}, 0.1, true},
	FrontCenter: {Vector3{0.0, 1.0, 0.0}, 0.1, true},
	LFE:         {Vector3{0.0, 0.0, 0.0}, 1.0, true},
}

var surround71Vectors = [MaxChannels]referenceVector{
	FrontLeft:   {Vector3{-0.70710, 0.70710, 0.0}, 0.1, true},
	FrontRight:  {Vector3{0.70710, 0.70710, 0.0}, 0.1, true},
	RearLeft:    {Vector3{-0.70710, -0.70710, 0.0}, 0.1, true},
	RearRight:   {Vector3{0.70710, -0.70710, 0.0}, 0.1, true},
	FrontCenter: {Vector3{0.0, 1.0, 0.0}, 0.1, true},
	LFE:         {Vector3{0.0, 0.0, 0.0}, 1.0, true},
	SideLeft:    {Vector3{-1.0, 0.0, 0.0}, 0.1, true},
	SideRight:   {Vector3{1.0, 0.0, 0.0}, 0.1, true},
}

func referenceVectors(layout ChannelLayout) *[MaxChannels]referenceVector {
	switch layout {
	case Quad:
		return &quadVectors
	case Surround51:
		return &surround51Vectors
	case Surround71:
		return &surround71Vectors
	}

	return &stereoVectors
}

// DefaultChannelMap returns the usual slot order for a layout.
func DefaultChannelMap(layout ChannelLayout) ChannelMap {
	var result ChannelMap

	for i := range result.Channels {
		result.Channels[i] = Unknown
	}

	switch layout {
	case Stereo:
		result.Count = 2
	case Quad:
		result.Count = 4
	case Surround51:
		result.Count = 6
	case Surround71:
		result.Count = 8
	}

	for i := 0; i < result.Count; i++ {
		result.Channels[i] = AudioChannel(i)
	}

	return result
}

// listenerSpace maps a world direction onto (right, front, up) of a
// listener facing heading.
func listenerSpace(dir Vector3, heading Vector3, up Vector3) Vector3 {
	var front = heading.Normalize()
	var right = front.Cross(up).Normalize()
	var realUp = right.Cross(front).Normalize()

	return Vector3{dir.Dot(right), dir.Dot(front), dir.Dot(realUp)}
}

func SetupMatrix(emitterPos Vector3, listenerPos Vector3, heading Vector3, up Vector3, layout ChannelLayout) [MaxChannels]float32 {
	return SetupMatrixWithMap(emitterPos, listenerPos, heading, up, layout, DefaultChannelMap(layout))
}

// SetupMatrixWithMap gives every slot of chanMap max(1, dot+bias) against
// the layout's reference vector, and 0 for slots the layout does not drive.
func SetupMatrixWithMap(emitterPos Vector3, listenerPos Vector3, heading Vector3, up Vector3, layout ChannelLayout, chanMap ChannelMap) [MaxChannels]float32 {
	var result [MaxChannels]float32
	var refs = referenceVectors(layout)

	var dir = listenerSpace(emitterPos.Sub(listenerPos).Normalize(), heading, up)

	for i := 0; i < chanMap.Count && i < MaxChannels; i++ {
		var channel = chanMap.Channels[i]

		if channel == Unknown || channel < 0 || int(channel) >= MaxChannels {
			continue
		}

		var ref = refs[channel]

		if !ref.valid {
			continue
		}

		result[i] = max(1.0, dir.Dot(ref.vec)+ref.bias)
	}

	return result
}
