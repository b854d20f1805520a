package dwt

// 9/7 irreversible lifting constants, per spec.md §4.C (Cohen-Daubechies-
// Feauveau biorthogonal 9/7, ISO/IEC 15444-1 Annex F naming).
const (
	alpha97 = -1.586134342
	beta97  = -0.052980118
	gamma97 = 0.882911075
	delta97 = 0.443506852
	k97     = 1.149604398
)

// deinterleave splits line x (length n) into even-indexed s (length
// ceil(n/2)) and odd-indexed d (length floor(n/2)).
func deinterleave(x []float64) (s, d []float64) {
	n := len(x)
	nL := (n + 1) / 2
	nH := n - nL
	s = make([]float64, nL)
	d = make([]float64, nH)
	for i := 0; i < nL; i++ {
		s[i] = x[2*i]
	}
	for i := 0; i < nH; i++ {
		d[i] = x[2*i+1]
	}
	return s, d
}

func interleave(x, s, d []float64) {
	for i := range s {
		x[2*i] = s[i]
	}
	for i := range d {
		x[2*i+1] = d[i]
	}
}

// forward97 performs the forward 9/7 irreversible lifting transform on one
// line in place, per spec.md §4.C steps 1-5. Output layout matches
// forward53: lowpass (scaled s) first, then highpass (scaled d).
func forward97(x []float64, mode Boundary) {
	n := len(x)
	if n <= 1 {
		return
	}
	s, d := deinterleave(x)

	// Step 1: d[n] += alpha * (s[n] + s[n+1])
	for i := range d {
		d[i] += alpha97 * (at(s, i, mode) + at(s, i+1, mode))
	}
	// Step 2: s[n] += beta * (d[n-1] + d[n])
	for i := range s {
		s[i] += beta97 * (at(d, i-1, mode) + at(d, i, mode))
	}
	// Step 3: d[n] += gamma * (s[n] + s[n+1])
	for i := range d {
		d[i] += gamma97 * (at(s, i, mode) + at(s, i+1, mode))
	}
	// Step 4: s[n] += delta * (d[n-1] + d[n])
	for i := range s {
		s[i] += delta97 * (at(d, i-1, mode) + at(d, i, mode))
	}
	// Step 5: scale
	for i := range s {
		s[i] /= k97
	}
	for i := range d {
		d[i] *= k97
	}

	nL := len(s)
	copy(x[:nL], s)
	copy(x[nL:], d)
}

// inverse97 undoes forward97 in place.
func inverse97(x []float64, mode Boundary) {
	n := len(x)
	if n <= 1 {
		return
	}
	nL := (n + 1) / 2
	s := append([]float64(nil), x[:nL]...)
	d := append([]float64(nil), x[nL:]...)

	// Undo step 5
	for i := range s {
		s[i] *= k97
	}
	for i := range d {
		d[i] /= k97
	}
	// Undo step 4
	for i := range s {
		s[i] -= delta97 * (at(d, i-1, mode) + at(d, i, mode))
	}
	// Undo step 3
	for i := range d {
		d[i] -= gamma97 * (at(s, i, mode) + at(s, i+1, mode))
	}
	// Undo step 2
	for i := range s {
		s[i] -= beta97 * (at(d, i-1, mode) + at(d, i, mode))
	}
	// Undo step 1
	for i := range d {
		d[i] -= alpha97 * (at(s, i, mode) + at(s, i+1, mode))
	}

	interleave(x, s, d)
}
