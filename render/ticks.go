package render

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"

	"github.com/zalepa/crimedash/chart"
)

// yearTicks labels whole years, thinning the labels past a dozen.
type yearTicks struct{}

func (yearTicks) Ticks(min, max float64) []plot.Tick {
	lo, hi := math.Ceil(min), math.Floor(max)
	n := int(hi-lo) + 1
	if n <= 0 {
		return nil
	}
	step := 1
	if n > 12 {
		step = (n + 11) / 12
	}
	var ticks []plot.Tick
	for i := 0; i < n; i++ {
		v := lo + float64(i)
		t := plot.Tick{Value: v}
		if i%step == 0 {
			t.Label = strconv.Itoa(int(v))
		}
		ticks = append(ticks, t)
	}
	return ticks
}

type numTicks struct {
	percent bool
}

func (nt numTicks) Ticks(min, max float64) []plot.Tick {
	t := plot.DefaultTicks{}
	ticks := t.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = formatTick(ticks[i].Value, nt.percent)
		}
	}
	return ticks
}

func formatTick(v float64, percent bool) string {
	s := chart.FormatCompact(v)
	if percent {
		s += "%"
	}
	return s
}
