package disco

import (
	"fmt"
	"sync"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
)

// AreaSwap lleva qué bloques del área de swap están en uso
type AreaSwap struct {
	mu      sync.Mutex
	bloques *memoria.Bitmap
}

func NuevaAreaSwap() *AreaSwap {
	return &AreaSwap{bloques: memoria.NuevoBitmap(memoria.BloquesAreaSwap)}
}

// AsignarBloque reserva el primer bloque libre y devuelve su número absoluto
func (a *AreaSwap) AsignarBloque() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	indice, ok := a.bloques.Asignar()
	if !ok {
		return 0, ErrSwapLleno
	}
	return memoria.InicioAreaSwap + indice, nil
}

func (a *AreaSwap) LiberarBloque(bloque int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.bloques.Liberar(bloque - memoria.InicioAreaSwap) {
		return fmt.Errorf("%w: %d", ErrBloqueLibre, bloque)
	}
	return nil
}

func (a *AreaSwap) Libres() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bloques.Libres()
}
