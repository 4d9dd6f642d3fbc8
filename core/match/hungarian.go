package match

import "math"

// assign solves the square minimum-cost assignment problem with the
// Kuhn–Munkres potentials-and-augmenting-path formulation in O(n^3).
// It returns, per row, the assigned column. Equal-cost alternatives resolve
// to the algorithm's canonical row-major solution; callers must not rely on
// tie-break stability beyond determinism for a fixed matrix.
func assign(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	rowOf := make([]int, n+1) // rowOf[j]: row currently matched to column j (1-based, 0 = free)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		rowOf[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := 0; j <= n; j++ {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := rowOf[j0]
			delta := math.Inf(1)
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				current := cost[i0-1][j-1] - u[i0] - v[j]
				if current < minv[j] {
					minv[j] = current
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[rowOf[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if rowOf[j0] == 0 {
				break
			}
		}

		for {
			j1 := way[j0]
			rowOf[j0] = rowOf[j1]
			j0 = j1
			if j0 == 0 {
				break
			}
		}
	}

	result := make([]int, n)
	for j := 1; j <= n; j++ {
		if rowOf[j] > 0 {
			result[rowOf[j]-1] = j - 1
		}
	}
	return result
}

// assignRectangular pads a rectangular cost matrix to square with zero-cost
// dummies on the smaller side, solves the square problem, and reports only
// real row assignments; unmatched rows map to -1.
func assignRectangular(cost [][]float64, rows, cols int) []int {
	if rows == 0 || cols == 0 {
		return make([]int, 0)
	}
	dim := rows
	if cols > dim {
		dim = cols
	}

	padded := make([][]float64, dim)
	for i := range padded {
		padded[i] = make([]float64, dim)
		if i < rows {
			copy(padded[i], cost[i])
		}
	}

	square := assign(padded)
	result := make([]int, rows)
	for i := 0; i < rows; i++ {
		if square[i] < cols {
			result[i] = square[i]
		} else {
			result[i] = -1
		}
	}
	return result
}
