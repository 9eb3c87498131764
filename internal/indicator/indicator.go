// Package indicator computes technical indicator series from price data.
//
// Every function returns a slice aligned 1:1 by index with its input. Values
// inside an indicator's warm-up period are NaN; consumers must skip them
// (the engine treats a NaN input as HOLD).
package indicator

import "math"

// SMA is the simple moving average over the trailing window. The first
// period-1 values are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA is the exponential moving average seeded with the first value and
// smoothing factor 2/(period+1). It has no NaN warm-up prefix; early values
// are simply dominated by the seed.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || period <= 0 {
		return out
	}

	alpha := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI is the relative strength index using rolling-mean gains and losses over
// the trailing window. The first period values are NaN (the first delta
// consumes one bar). A window with no losses yields 100; a completely flat
// window yields NaN.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(values); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		switch {
		case avgLoss == 0 && avgGain == 0:
			// flat window, undefined
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// MACD returns the MACD line (fast EMA - slow EMA), the signal line (EMA of
// the MACD line) and the histogram (line - signal).
func MACD(values []float64, fast, slow, signalPeriod int) (line, signal, histogram []float64) {
	emaFast := EMA(values, fast)
	emaSlow := EMA(values, slow)

	line = make([]float64, len(values))
	for i := range values {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signal = EMA(line, signalPeriod)

	histogram = make([]float64, len(values))
	for i := range values {
		histogram[i] = line[i] - signal[i]
	}
	return line, signal, histogram
}

// Bollinger returns the upper, middle and lower bands: middle is the SMA,
// the bands sit numStd sample standard deviations away. The first period-1
// values are NaN.
func Bollinger(values []float64, period int, numStd float64) (upper, middle, lower []float64) {
	middle = SMA(values, period)
	upper = nanSlice(len(values))
	lower = nanSlice(len(values))
	if period <= 1 || len(values) < period {
		return upper, middle, lower
	}

	for i := period - 1; i < len(values); i++ {
		mean := middle[i]
		var varSum float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum / float64(period-1))
		upper[i] = mean + numStd*std
		lower[i] = mean - numStd*std
	}
	return upper, middle, lower
}

// ATR is the average true range: the rolling mean of the true range over the
// trailing window. The first period values are NaN.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if period <= 0 || n <= period || len(highs) != n || len(lows) != n {
		return out
	}

	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var sum float64
	for i := 1; i < n; i++ {
		sum += tr[i]
		if i > period {
			sum -= tr[i-period]
		}
		if i >= period {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
