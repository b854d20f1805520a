package dwt

// forward53 performs the forward 5/3 reversible lifting transform on one
// line in place. Output layout: lowpass ceil(N/2) values first, then
// highpass floor(N/2) values (spec.md §4.C).
//
//	Predict: H[n] = x[2n+1] - floor((x[2n] + x[2n+2]) / 2)
//	Update:  L[n] = x[2n]   + floor((H[n-1] + H[n] + 2) / 4)
func forward53(x []float64, mode Boundary) {
	n := len(x)
	if n <= 1 {
		return
	}
	nL := (n + 1) / 2
	nH := n - nL

	h := make([]float64, nH)
	for i := 0; i < nH; i++ {
		h[i] = at(x, 2*i+1, mode) - floorDiv(at(x, 2*i, mode)+at(x, 2*i+2, mode), 2)
	}

	l := make([]float64, nL)
	for i := 0; i < nL; i++ {
		hPrev := at(h, i-1, mode)
		hCur := at(h, i, mode)
		l[i] = at(x, 2*i, mode) + floorDiv(hPrev+hCur+2, 4)
	}

	copy(x[:nL], l)
	copy(x[nL:], h)
}

// inverse53 undoes forward53 in place: x holds lowpass (nL) then highpass
// (nH) values on entry, and the original interleaved line on return.
func inverse53(x []float64, mode Boundary) {
	n := len(x)
	if n <= 1 {
		return
	}
	nL := (n + 1) / 2
	nH := n - nL

	l := append([]float64(nil), x[:nL]...)
	h := append([]float64(nil), x[nL:]...)

	s := make([]float64, nL)
	for i := 0; i < nL; i++ {
		hPrev := at(h, i-1, mode)
		hCur := at(h, i, mode)
		s[i] = l[i] - floorDiv(hPrev+hCur+2, 4)
	}

	// forward53 read x[2i+2] through the full-line extension, so the right
	// neighbour is looked up the same way here: the even full-line index j
	// it lands on is s[j/2].
	for i := 0; i < nH; i++ {
		sCur := s[i]
		sNext := 0.0
		if j := reflect(2*i+2, n, mode); j >= 0 {
			sNext = s[j/2]
		}
		x[2*i+1] = h[i] + floorDiv(sCur+sNext, 2)
	}
	for i := 0; i < nL; i++ {
		x[2*i] = s[i]
	}
}
