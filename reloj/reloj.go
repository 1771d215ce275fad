// Package reloj lleva el tiempo virtual del simulador y dispara las tareas programadas
// para cada tick.
package reloj

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

type plazo struct {
	tick  int
	orden int
	fn    func()
}

type colaPlazos []plazo

func (c colaPlazos) Len() int { return len(c) }
func (c colaPlazos) Less(i, j int) bool {
	if c[i].tick != c[j].tick {
		return c[i].tick < c[j].tick
	}
	return c[i].orden < c[j].orden
}
func (c colaPlazos) Swap(i, j int)       { c[i], c[j] = c[j], c[i] }
func (c *colaPlazos) Push(x interface{}) { *c = append(*c, x.(plazo)) }
func (c *colaPlazos) Pop() interface{} {
	viejo := *c
	n := len(viejo)
	p := viejo[n-1]
	*c = viejo[:n-1]
	return p
}

// Reloj es el reloj virtual. Arranca en -1 para que el primer tick sea el 0.
type Reloj struct {
	mu         sync.Mutex
	ahora      int
	pendientes colaPlazos
	orden      int
	pausado    bool
}

func NuevoReloj() *Reloj {
	return &Reloj{ahora: -1}
}

// Ahora devuelve el tick actual
func (r *Reloj) Ahora() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ahora
}

// Programar agenda fn para el tick indicado. Si ese tick ya pasó, fn corre en el próximo
// Avanzar. Las tareas de un mismo tick corren en el orden en que se programaron.
func (r *Reloj) Programar(tick int, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orden++
	heap.Push(&r.pendientes, plazo{tick: tick, orden: r.orden, fn: fn})
}

// Pendientes devuelve cuántas tareas esperan su tick
func (r *Reloj) Pendientes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendientes.Len()
}

// Avanzar incrementa el tiempo y ejecuta las tareas vencidas. Las tareas corren sin el
// lock del reloj, así que pueden programar otras.
func (r *Reloj) Avanzar() int {
	r.mu.Lock()
	r.ahora++
	ahora := r.ahora
	r.mu.Unlock()

	for {
		fn, ok := r.siguienteVencida(ahora)
		if !ok {
			return ahora
		}
		fn()
	}
}

func (r *Reloj) siguienteVencida(ahora int) (func(), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pendientes.Len() == 0 || r.pendientes[0].tick > ahora {
		return nil, false
	}
	p := heap.Pop(&r.pendientes).(plazo)
	return p.fn, true
}

func (r *Reloj) Pausar() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pausado = true
}

func (r *Reloj) Reanudar() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pausado = false
}

func (r *Reloj) Pausado() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pausado
}

// Iniciar llama a tick una vez por período mientras el reloj no esté pausado, hasta que
// ctx termine
func (r *Reloj) Iniciar(ctx context.Context, periodo time.Duration, tick func()) {
	ticker := time.NewTicker(periodo)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.Pausado() {
				tick()
			}
		}
	}
}
