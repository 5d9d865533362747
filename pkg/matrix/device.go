package matrix

// DeviceMatrix receives component stamps.
type DeviceMatrix interface {
	AddComplexElement(i, j int, value complex128) // 1-based indexing, 0 is the reference node
	AddComplexRHS(i int, value complex128)
}
