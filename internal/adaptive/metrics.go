package adaptive

import "math"

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clampF(v, 0, 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// tail returns the last n entries of xs without copying.
func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

func meanTail(xs []float64, n int) float64 {
	return mean(tail(xs, n))
}

// consistency measures how stable a history is as the inverse coefficient of
// variation mapped into (0, 1]. Histories too short to vary count as fully
// consistent; a near-zero mean with any spread counts as fully inconsistent.
func consistency(xs []float64) float64 {
	if len(xs) < 2 {
		return 1.0
	}
	m := mean(xs)
	if m < 1e-9 {
		return 0
	}
	cv := stdDev(xs) / m
	return 1.0 / (1.0 + cv)
}

// improvementRate compares the mean of the most recent three entries against
// the mean of the three before them. Positive values mean the signal is
// improving. Histories shorter than two entries have no measurable trend.
func improvementRate(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	recent := tail(xs, 3)
	older := xs[:len(xs)-len(recent)]
	if len(older) == 0 {
		return 0
	}
	if len(older) > 3 {
		older = older[len(older)-3:]
	}
	return mean(recent) - mean(older)
}

func intsToFloats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
