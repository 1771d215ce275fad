package disco

import (
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/utils"
)

// MemoriaBuffers es la parte de la memoria física que usa el gestor
type MemoriaBuffers interface {
	AsignarBuffer() (int, error)
	LiberarBuffer(marco int) error
	LeerPagina(marco int) ([]byte, error)
	EscribirPagina(marco int, datos []byte) error
}

// GestorBuffers hace pasar cada transferencia con el dispositivo por un marco del área de
// buffers. Cuando todos los buffers están ocupados, la transferencia espera.
type GestorBuffers struct {
	dispositivo Dispositivo
	memoria     MemoriaBuffers
	libres      *utils.Semaforo
}

// NuevoGestorBuffers crea el gestor con cantidad buffers
func NuevoGestorBuffers(dispositivo Dispositivo, mem MemoriaBuffers, cantidad int) *GestorBuffers {
	return &GestorBuffers{
		dispositivo: dispositivo,
		memoria:     mem,
		libres:      utils.NewSemaforo(cantidad),
	}
}

func (g *GestorBuffers) tomarBuffer() (int, error) {
	g.libres.Wait()
	marco, err := g.memoria.AsignarBuffer()
	if err != nil {
		g.libres.Signal()
		return 0, err
	}
	return marco, nil
}

func (g *GestorBuffers) devolverBuffer(marco int) {
	if err := g.memoria.LiberarBuffer(marco); err != nil {
		utils.ErrorLog.Error("Error liberando buffer", "marco", marco, "error", err)
	}
	g.libres.Signal()
}

// Leer trae el bloque del dispositivo a un buffer y devuelve una copia de su contenido
func (g *GestorBuffers) Leer(bloque int) ([]byte, error) {
	marco, err := g.tomarBuffer()
	if err != nil {
		return nil, err
	}
	defer g.devolverBuffer(marco)

	pagina, err := g.memoria.LeerPagina(marco)
	if err != nil {
		return nil, err
	}
	if err := g.dispositivo.LeerBloque(bloque, pagina); err != nil {
		return nil, fmt.Errorf("error leyendo bloque %d: %w", bloque, err)
	}
	if err := g.memoria.EscribirPagina(marco, pagina); err != nil {
		return nil, err
	}
	return g.memoria.LeerPagina(marco)
}

// Escribir copia datos a un buffer y de ahí al bloque. Si datos es más corto que una página
// el resto del bloque queda en cero.
func (g *GestorBuffers) Escribir(bloque int, datos []byte) error {
	marco, err := g.tomarBuffer()
	if err != nil {
		return err
	}
	defer g.devolverBuffer(marco)

	if err := g.memoria.EscribirPagina(marco, datos); err != nil {
		return err
	}
	pagina, err := g.memoria.LeerPagina(marco)
	if err != nil {
		return err
	}
	if err := g.dispositivo.EscribirBloque(bloque, pagina); err != nil {
		return fmt.Errorf("error escribiendo bloque %d: %w", bloque, err)
	}
	return nil
}

// BuffersLibres devuelve cuántos buffers no están en uso
func (g *GestorBuffers) BuffersLibres() int {
	return g.libres.Disponibles()
}
