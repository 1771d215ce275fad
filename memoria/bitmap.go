package memoria

import "math/bits"

// Bitmap es un conjunto de bits de tamaño fijo para llevar la ocupación de una región
// (marcos, tablas, pool de PCBs, buffers o bloques de swap).
type Bitmap struct {
	palabras []uint64
	tamanio  int
	ocupados int
}

// NuevoBitmap crea un bitmap con n posiciones libres
func NuevoBitmap(n int) *Bitmap {
	return &Bitmap{
		palabras: make([]uint64, (n+63)/64),
		tamanio:  n,
	}
}

// Tamanio devuelve la cantidad de posiciones del bitmap
func (b *Bitmap) Tamanio() int {
	return b.tamanio
}

// Libres devuelve cuántas posiciones siguen sin asignar
func (b *Bitmap) Libres() int {
	return b.tamanio - b.ocupados
}

// Ocupado indica si la posición i está asignada
func (b *Bitmap) Ocupado(i int) bool {
	if i < 0 || i >= b.tamanio {
		return false
	}
	return b.palabras[i/64]&(1<<(uint(i)%64)) != 0
}

// BuscarLibre devuelve la primera posición libre o -1 si no hay
func (b *Bitmap) BuscarLibre() int {
	for p, palabra := range b.palabras {
		if palabra == ^uint64(0) {
			continue
		}
		i := p*64 + bits.TrailingZeros64(^palabra)
		if i < b.tamanio {
			return i
		}
	}
	return -1
}

// Asignar marca como ocupada la primera posición libre y la devuelve
func (b *Bitmap) Asignar() (int, bool) {
	i := b.BuscarLibre()
	if i == -1 {
		return -1, false
	}
	b.Ocupar(i)
	return i, true
}

// Ocupar marca la posición i. No hace nada si ya estaba ocupada.
func (b *Bitmap) Ocupar(i int) {
	if i < 0 || i >= b.tamanio || b.Ocupado(i) {
		return
	}
	b.palabras[i/64] |= 1 << (uint(i) % 64)
	b.ocupados++
}

// Liberar desmarca la posición i y devuelve false si no estaba ocupada
func (b *Bitmap) Liberar(i int) bool {
	if !b.Ocupado(i) {
		return false
	}
	b.palabras[i/64] &^= 1 << (uint(i) % 64)
	b.ocupados--
	return true
}
