package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Matrix is a square matrix of pairwise statistics over named columns.
type Matrix struct {
	Labels []string
	Values [][]float64
}

// Correlation returns the Pearson correlation between every pair of cols,
// using for each pair only the rows where both values are present. Pairs with
// fewer than two such rows, or with a constant column, are NaN.
func Correlation(t Table, cols []string) Matrix {
	m := Matrix{
		Labels: append([]string(nil), cols...),
		Values: make([][]float64, len(cols)),
	}
	data := make([][]float64, len(cols))
	for i, c := range cols {
		data[i] = t.Values(c)
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pearson(data[i], data[j])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

func pearson(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
