// Package kernel es el núcleo del simulador: planifica en tres niveles, atiende las
// interrupciones de la CPU y administra la memoria virtual y los recursos de los procesos.
package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/sisoputnfrba/simulador-nucleo/archivos"
	"github.com/sisoputnfrba/simulador-nucleo/cpu"
	"github.com/sisoputnfrba/simulador-nucleo/disco"
	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/proceso"
	"github.com/sisoputnfrba/simulador-nucleo/reloj"
)

// Kernel guarda las colas de planificación y los colaboradores. mu protege las colas, los
// PCBs, las tablas de páginas, los registros de la CPU y la TLB.
type Kernel struct {
	mu sync.Mutex

	params   Parametros
	log      *slog.Logger
	traza    Traza
	reloj    *reloj.Reloj
	mem      *memoria.MemoriaFisica
	swap     *disco.AreaSwap
	buffers  *disco.GestorBuffers
	fs       archivos.SistemaArchivos
	cpu      *cpu.CPU
	recursos *Interbloqueo
	dirDump  string
	rng      *rand.Rand

	procesos    map[int]*proceso.PCB
	ids         map[int]bool
	trabajos    []Trabajo
	reserva     []Trabajo
	listos      []*proceso.PCB
	bloqueados  []*proceso.PCB
	suspendidos []*proceso.PCB
	finalizados []*proceso.PCB
	colaRecurso [][]*proceso.PCB
	lru         []*proceso.PCB

	tareas     sync.WaitGroup
	enServicio map[int]bool
}

// NuevoKernel arma el núcleo con los colaboradores del entorno
func NuevoKernel(env Entorno) (*Kernel, error) {
	env = env.completar()
	if err := env.Parametros.Validar(); err != nil {
		return nil, err
	}
	semilla := env.Semilla
	if semilla == 0 {
		semilla = time.Now().UnixNano()
	}

	p := env.Parametros
	k := &Kernel{
		params:      p,
		log:         env.Logger,
		traza:       env.Traza,
		reloj:       env.Reloj,
		mem:         env.Memoria,
		swap:        disco.NuevaAreaSwap(),
		buffers:     disco.NuevoGestorBuffers(env.Dispositivo, env.Memoria, memoria.PaginasBuffers),
		fs:          env.Archivos,
		cpu:         cpu.NuevaCPU(env.Memoria, p.CapacidadTLB, p.Quantum),
		recursos:    NuevoInterbloqueo(p.Recursos),
		dirDump:     env.DirDump,
		rng:         rand.New(rand.NewSource(semilla)),
		procesos:    make(map[int]*proceso.PCB),
		ids:         make(map[int]bool),
		colaRecurso: make([][]*proceso.PCB, len(p.Recursos)),
		enServicio:  make(map[int]bool),
	}

	k.log.Info("Núcleo inicializado",
		"quantum", p.Quantum,
		"max_procesos", p.MaxProcesos,
		"umbrales_marcos", fmt.Sprintf("%d/%d", p.UmbralMinMarcos, p.UmbralMaxMarcos),
		"recursos", p.Recursos)
	return k, nil
}

// Tick avanza el reloj un tick: corren los plazos vencidos, la interrupción de reloj abre
// la ventana de planificación y, si quedó abierta, se hace una pasada y la CPU ejecuta una
// instrucción. Devuelve el tick actual.
func (k *Kernel) Tick() int {
	k.tareas.Wait()
	ahora := k.reloj.Avanzar()
	k.tareas.Wait()

	k.mu.Lock()
	defer k.mu.Unlock()

	k.despachar(&cpu.Interrupcion{Vector: cpu.VectorReloj}, nil, ahora)
	if k.cpu.PuedePlanificar() {
		k.planificar(ahora)
		k.cpu.CerrarVentana()
		k.ejecutar(ahora)
	}
	return ahora
}

// Correr ejecuta n ticks seguidos
func (k *Kernel) Correr(n int) {
	for i := 0; i < n; i++ {
		k.Tick()
	}
}

// Iniciar hace un tick por período real hasta que ctx termine. Al salir espera las tareas
// en curso.
func (k *Kernel) Iniciar(ctx context.Context, periodo time.Duration) {
	k.reloj.Iniciar(ctx, periodo, func() { k.Tick() })
	k.tareas.Wait()
}

func (k *Kernel) Pausar() {
	k.reloj.Pausar()
	k.log.Info("Reloj pausado", "tick", k.reloj.Ahora())
}

func (k *Kernel) Reanudar() {
	k.reloj.Reanudar()
	k.log.Info("Reloj reanudado", "tick", k.reloj.Ahora())
}

// Ahora devuelve el tick actual del reloj
func (k *Kernel) Ahora() int {
	return k.reloj.Ahora()
}

// Ocioso indica que no queda nada por hacer: sin trabajos pendientes ni procesos vivos
func (k *Kernel) Ocioso() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.trabajos) == 0 && len(k.reserva) == 0 && len(k.procesos) == 0
}

func (k *Kernel) registrar(ahora int, tipo string, pid int, formato string, args ...interface{}) {
	k.traza.Registrar(Evento{Tick: ahora, Tipo: tipo, PID: pid, Detalle: fmt.Sprintf(formato, args...)})
}

// lanzar corre fn en una goroutine marcando a pid como en servicio. Tick espera a que termine.
func (k *Kernel) lanzar(pid int, fn func()) {
	k.enServicio[pid] = true
	k.tareas.Add(1)
	go func() {
		defer k.tareas.Done()
		fn()
	}()
}

func quitar(cola []*proceso.PCB, pcb *proceso.PCB) ([]*proceso.PCB, bool) {
	for i, p := range cola {
		if p == pcb {
			return append(cola[:i], cola[i+1:]...), true
		}
	}
	return cola, false
}

func contiene(cola []*proceso.PCB, pcb *proceso.PCB) bool {
	for _, p := range cola {
		if p == pcb {
			return true
		}
	}
	return false
}

func pids(cola []*proceso.PCB) []int {
	ids := make([]int, 0, len(cola))
	for _, p := range cola {
		ids = append(ids, p.PID)
	}
	return ids
}
