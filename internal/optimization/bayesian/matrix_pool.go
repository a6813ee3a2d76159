package bayesian

import "gonum.org/v1/gonum/mat"

// MatrixPool reuses matrix allocations across repeated GP fits. Entries
// are matched by exact size; a request with no matching entry allocates.
type MatrixPool struct {
	sym   map[int][]*mat.SymDense
	dense map[[2]int][]*mat.Dense
	vec   map[int][]*mat.VecDense
}

// NewMatrixPool creates an empty MatrixPool.
func NewMatrixPool() *MatrixPool {
	return &MatrixPool{
		sym:   make(map[int][]*mat.SymDense),
		dense: make(map[[2]int][]*mat.Dense),
		vec:   make(map[int][]*mat.VecDense),
	}
}

// GetSymDense returns an n×n symmetric matrix from the pool or allocates
// a new one. Contents are unspecified; callers must overwrite what they
// read.
func (p *MatrixPool) GetSymDense(n int) *mat.SymDense {
	if entries := p.sym[n]; len(entries) > 0 {
		m := entries[len(entries)-1]
		p.sym[n] = entries[:len(entries)-1]
		return m
	}
	return mat.NewSymDense(n, nil)
}

// PutSymDense returns a symmetric matrix to the pool.
func (p *MatrixPool) PutSymDense(m *mat.SymDense) {
	n := m.SymmetricDim()
	p.sym[n] = append(p.sym[n], m)
}

// GetDense returns an r×c dense matrix from the pool or allocates a new one.
func (p *MatrixPool) GetDense(r, c int) *mat.Dense {
	key := [2]int{r, c}
	if entries := p.dense[key]; len(entries) > 0 {
		m := entries[len(entries)-1]
		p.dense[key] = entries[:len(entries)-1]
		return m
	}
	return mat.NewDense(r, c, nil)
}

// PutDense returns a dense matrix to the pool.
func (p *MatrixPool) PutDense(m *mat.Dense) {
	r, c := m.Dims()
	p.dense[[2]int{r, c}] = append(p.dense[[2]int{r, c}], m)
}

// GetVecDense returns a length-n vector from the pool or allocates a new one.
func (p *MatrixPool) GetVecDense(n int) *mat.VecDense {
	if entries := p.vec[n]; len(entries) > 0 {
		v := entries[len(entries)-1]
		p.vec[n] = entries[:len(entries)-1]
		return v
	}
	return mat.NewVecDense(n, nil)
}

// PutVecDense returns a vector to the pool.
func (p *MatrixPool) PutVecDense(v *mat.VecDense) {
	p.vec[v.Len()] = append(p.vec[v.Len()], v)
}
