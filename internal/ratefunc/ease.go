package ratefunc

import "math"

// Constants of the back and elastic curves.
const (
	backC1    = 1.70158
	backC2    = backC1 * 1.525
	backC3    = backC1 + 1
	elasticC4 = (2 * math.Pi) / 3
	elasticC5 = (2 * math.Pi) / 4.5
)

// inOut builds an in-out curve from an in curve: the first half runs in,
// the second half runs the mirrored in curve.
func inOut(in Func) Func {
	return pinned(func(t float64) float64 {
		if t < 0.5 {
			return in(2*t) / 2
		}
		return 1 - in(2-2*t)/2
	})
}

// out mirrors an in curve.
func out(in Func) Func {
	return pinned(func(t float64) float64 { return 1 - in(1-t) })
}

func powIn(n float64) Func {
	return func(t float64) float64 { return math.Pow(t, n) }
}

func sineIn(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) }

func expoIn(t float64) float64 {
	if t == 0 {
		return 0
	}
	return math.Pow(2, 10*t-10)
}

func circIn(t float64) float64 { return 1 - math.Sqrt(1-t*t) }

func backIn(t float64) float64 { return backC3*t*t*t - backC1*t*t }

func elasticIn(t float64) float64 {
	if t == 0 || t == 1 {
		return t
	}
	return -math.Pow(2, 10*t-10) * math.Sin((t*10-10.75)*elasticC4)
}

// bounceOut implements the standard 4-segment parabolic bounce curve.
func bounceOut(t float64) float64 {
	n1 := 7.5625
	d1 := 2.75
	if t < 1/d1 {
		return n1 * t * t
	} else if t < 2/d1 {
		t -= 1.5 / d1
		return n1*t*t + 0.75
	} else if t < 2.5/d1 {
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	} else {
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

func bounceIn(t float64) float64 { return 1 - bounceOut(1-t) }

// backInOut overshoots on both ends, so it uses the wider c2 constant
// instead of mirroring backIn.
func backInOut(t float64) float64 {
	if t < 0.5 {
		return (math.Pow(2*t, 2) * ((backC2+1)*2*t - backC2)) / 2
	}
	return (math.Pow(2*t-2, 2)*((backC2+1)*(t*2-2)+backC2) + 2) / 2
}

func elasticInOut(t float64) float64 {
	if t < 0.5 {
		return -(math.Pow(2, 20*t-10) * math.Sin((20*t-11.125)*elasticC5)) / 2
	}
	return (math.Pow(2, -20*t+10)*math.Sin((20*t-11.125)*elasticC5))/2 + 1
}

var (
	EaseInSine    = pinned(sineIn)
	EaseOutSine   = out(sineIn)
	EaseInOutSine = inOut(sineIn)

	EaseInQuad    = pinned(powIn(2))
	EaseOutQuad   = out(powIn(2))
	EaseInOutQuad = inOut(powIn(2))

	EaseInCubic    = pinned(powIn(3))
	EaseOutCubic   = out(powIn(3))
	EaseInOutCubic = inOut(powIn(3))

	EaseInQuart    = pinned(powIn(4))
	EaseOutQuart   = out(powIn(4))
	EaseInOutQuart = inOut(powIn(4))

	EaseInQuint    = pinned(powIn(5))
	EaseOutQuint   = out(powIn(5))
	EaseInOutQuint = inOut(powIn(5))

	EaseInExpo    = pinned(expoIn)
	EaseOutExpo   = out(expoIn)
	EaseInOutExpo = inOut(expoIn)

	EaseInCirc    = pinned(circIn)
	EaseOutCirc   = out(circIn)
	EaseInOutCirc = inOut(circIn)

	EaseInBack    = pinned(backIn)
	EaseOutBack   = out(backIn)
	EaseInOutBack = pinned(backInOut)

	EaseInElastic    = pinned(elasticIn)
	EaseOutElastic   = out(elasticIn)
	EaseInOutElastic = pinned(elasticInOut)

	EaseInBounce    = pinned(bounceIn)
	EaseOutBounce   = pinned(bounceOut)
	EaseInOutBounce = inOut(bounceIn)
)

var eases = map[string]Func{
	"easeInSine": EaseInSine, "easeOutSine": EaseOutSine, "easeInOutSine": EaseInOutSine,
	"easeInQuad": EaseInQuad, "easeOutQuad": EaseOutQuad, "easeInOutQuad": EaseInOutQuad,
	"easeInCubic": EaseInCubic, "easeOutCubic": EaseOutCubic, "easeInOutCubic": EaseInOutCubic,
	"easeInQuart": EaseInQuart, "easeOutQuart": EaseOutQuart, "easeInOutQuart": EaseInOutQuart,
	"easeInQuint": EaseInQuint, "easeOutQuint": EaseOutQuint, "easeInOutQuint": EaseInOutQuint,
	"easeInExpo": EaseInExpo, "easeOutExpo": EaseOutExpo, "easeInOutExpo": EaseInOutExpo,
	"easeInCirc": EaseInCirc, "easeOutCirc": EaseOutCirc, "easeInOutCirc": EaseInOutCirc,
	"easeInBack": EaseInBack, "easeOutBack": EaseOutBack, "easeInOutBack": EaseInOutBack,
	"easeInElastic": EaseInElastic, "easeOutElastic": EaseOutElastic, "easeInOutElastic": EaseInOutElastic,
	"easeInBounce": EaseInBounce, "easeOutBounce": EaseOutBounce, "easeInOutBounce": EaseInOutBounce,
}
