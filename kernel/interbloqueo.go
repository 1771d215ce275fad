package kernel

import (
	"fmt"
	"sort"
	"sync"
)

// Interbloqueo es el registro de recursos: por tipo lleva un semáforo contador, las unidades
// disponibles y las aristas de solicitud y asignación de cada proceso. El semáforo vale
// disponibles menos solicitudes pendientes y puede ser negativo.
type Interbloqueo struct {
	mu          sync.Mutex
	totales     []int
	disponibles []int
	semaforos   []int
	solicitudes map[int][]int
	asignados   map[int][]int
}

// Transferencia es una unidad de recurso que la recuperación le quitó a Desde para dársela a Hacia
type Transferencia struct {
	Tipo  int `json:"tipo"`
	Desde int `json:"desde"`
	Hacia int `json:"hacia"`
}

// EstadoRecursos es una copia del registro para mostrar o verificar
type EstadoRecursos struct {
	Totales     []int         `json:"totales"`
	Disponibles []int         `json:"disponibles"`
	Semaforos   []int         `json:"semaforos"`
	Asignados   map[int][]int `json:"asignados"`
	Solicitudes map[int][]int `json:"solicitudes"`
}

func NuevoInterbloqueo(totales []int) *Interbloqueo {
	return &Interbloqueo{
		totales:     append([]int(nil), totales...),
		disponibles: append([]int(nil), totales...),
		semaforos:   append([]int(nil), totales...),
		solicitudes: make(map[int][]int),
		asignados:   make(map[int][]int),
	}
}

// CantidadTipos devuelve cuántos tipos de recurso hay
func (d *Interbloqueo) CantidadTipos() int {
	return len(d.totales)
}

func (d *Interbloqueo) validarTipo(tipo int) error {
	if tipo < 0 || tipo >= len(d.totales) {
		return fmt.Errorf("%w: %d", ErrRecursoInvalido, tipo)
	}
	return nil
}

func vector(m map[int][]int, pid, n int) []int {
	v, ok := m[pid]
	if !ok {
		v = make([]int, n)
		m[pid] = v
	}
	return v
}

// Solicitar hace P sobre el semáforo del tipo y agrega la arista de solicitud
func (d *Interbloqueo) Solicitar(pid, tipo int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.validarTipo(tipo); err != nil {
		return err
	}
	d.semaforos[tipo]--
	vector(d.solicitudes, pid, len(d.totales))[tipo]++
	return nil
}

// IntentarAsignar convierte la solicitud pendiente en asignación si el semáforo no quedó
// negativo. Devuelve false cuando el proceso tiene que bloquearse en la cola del tipo.
func (d *Interbloqueo) IntentarAsignar(pid, tipo int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.validarTipo(tipo); err != nil {
		return false, err
	}
	if d.semaforos[tipo] < 0 {
		return false, nil
	}
	if err := d.conceder(pid, tipo); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Interbloqueo) conceder(pid, tipo int) error {
	solicitudes := d.solicitudes[pid]
	if solicitudes == nil || solicitudes[tipo] == 0 {
		return fmt.Errorf("%w: pid %d tipo %d", ErrSinSolicitud, pid, tipo)
	}
	solicitudes[tipo]--
	vector(d.asignados, pid, len(d.totales))[tipo]++
	d.disponibles[tipo]--
	return nil
}

// Liberar hace V sobre el semáforo y devuelve una unidad del tipo
func (d *Interbloqueo) Liberar(pid, tipo int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.validarTipo(tipo); err != nil {
		return err
	}
	asignados := d.asignados[pid]
	if asignados == nil || asignados[tipo] == 0 {
		return fmt.Errorf("%w: pid %d tipo %d", ErrRecursoNoAsignado, pid, tipo)
	}
	asignados[tipo]--
	d.disponibles[tipo]++
	d.semaforos[tipo]++
	return nil
}

// IntentarReasignar le entrega una unidad liberada a pid, el primero de la cola del tipo.
// Si el semáforo es positivo nadie estaba esperando y no hace nada.
func (d *Interbloqueo) IntentarReasignar(pid, tipo int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.validarTipo(tipo) != nil || d.semaforos[tipo] > 0 || d.disponibles[tipo] == 0 {
		return false
	}
	return d.conceder(pid, tipo) == nil
}

// RetirarSolicitud borra una solicitud pendiente y deshace su P
func (d *Interbloqueo) RetirarSolicitud(pid, tipo int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	solicitudes := d.solicitudes[pid]
	if d.validarTipo(tipo) != nil || solicitudes == nil || solicitudes[tipo] == 0 {
		return false
	}
	solicitudes[tipo]--
	d.semaforos[tipo]++
	return true
}

// Olvidar descarta los vectores de un proceso que ya no tiene aristas
func (d *Interbloqueo) Olvidar(pid int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if vacio(d.asignados[pid]) && vacio(d.solicitudes[pid]) {
		delete(d.asignados, pid)
		delete(d.solicitudes, pid)
	}
}

// Asignados devuelve cuántas unidades de cada tipo tiene pid
func (d *Interbloqueo) Asignados(pid int) []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copiaVector(d.asignados[pid], len(d.totales))
}

// Solicitudes devuelve cuántas unidades de cada tipo espera pid
func (d *Interbloqueo) Solicitudes(pid int) []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copiaVector(d.solicitudes[pid], len(d.totales))
}

// Detectar reduce el grafo de asignación de recursos y devuelve, en orden de PID, los
// procesos que quedan interbloqueados. En cada pasada un proceso que sólo solicita se
// descarta, uno que sólo retiene devuelve lo suyo al total de trabajo y se descarta, y uno
// que hace las dos cosas recibe las solicitudes que el total de trabajo puede cubrir.
func (d *Interbloqueo) Detectar() []int {
	d.mu.Lock()
	defer d.mu.Unlock()

	trabajo := append([]int(nil), d.disponibles...)
	type nodo struct {
		pid         int
		solicitudes []int
		asignados   []int
	}

	var nodos []*nodo
	for _, pid := range d.pidsConAristas() {
		n := &nodo{
			pid:         pid,
			solicitudes: copiaVector(d.solicitudes[pid], len(d.totales)),
			asignados:   copiaVector(d.asignados[pid], len(d.totales)),
		}
		nodos = append(nodos, n)
	}

	for avance := true; avance && len(nodos) > 0; {
		avance = false
		restantes := nodos[:0]
		for _, n := range nodos {
			switch {
			case vacio(n.asignados):
				avance = true
			case vacio(n.solicitudes):
				for t, c := range n.asignados {
					trabajo[t] += c
				}
				avance = true
			default:
				for t := range n.solicitudes {
					for n.solicitudes[t] > 0 && trabajo[t] > 0 {
						n.solicitudes[t]--
						n.asignados[t]++
						trabajo[t]--
						avance = true
					}
				}
				restantes = append(restantes, n)
			}
		}
		nodos = restantes
	}

	bloqueados := make([]int, 0, len(nodos))
	for _, n := range nodos {
		bloqueados = append(bloqueados, n.pid)
	}
	return bloqueados
}

// Recuperar rompe el interbloqueo expropiando al primero de bloqueados que retiene algo pedido
// por otro interbloqueado. Cada unidad que retiene pasa al primer otro proceso interbloqueado que la solicita, y la víctima queda
// solicitándola. Los semáforos no cambian.
func (d *Interbloqueo) Recuperar(bloqueados []int) []Transferencia {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(bloqueados) < 2 {
		return nil
	}
	victima := d.elegirVictima(bloqueados)
	if victima == -1 {
		return nil
	}
	asignadosVictima := d.asignados[victima]

	var transferencias []Transferencia
	for tipo := range asignadosVictima {
		for asignadosVictima[tipo] > 0 {
			receptor := d.receptor(bloqueados, victima, tipo)
			if receptor == -1 {
				break
			}

			asignadosVictima[tipo]--
			vector(d.solicitudes, victima, len(d.totales))[tipo]++
			d.solicitudes[receptor][tipo]--
			vector(d.asignados, receptor, len(d.totales))[tipo]++
			transferencias = append(transferencias, Transferencia{Tipo: tipo, Desde: victima, Hacia: receptor})
		}
	}
	return transferencias
}

// elegirVictima devuelve el primer proceso de bloqueados que retiene una unidad pedida por
// otro de ellos, o -1 si ninguno puede ceder nada
func (d *Interbloqueo) elegirVictima(bloqueados []int) int {
	for _, pid := range bloqueados {
		for tipo, c := range d.asignados[pid] {
			if c > 0 && d.receptor(bloqueados, pid, tipo) != -1 {
				return pid
			}
		}
	}
	return -1
}

// receptor es el primer proceso de bloqueados, distinto de victima, que solicita el tipo
func (d *Interbloqueo) receptor(bloqueados []int, victima, tipo int) int {
	for _, pid := range bloqueados {
		if pid == victima {
			continue
		}
		if s := d.solicitudes[pid]; s != nil && s[tipo] > 0 {
			return pid
		}
	}
	return -1
}

// Estado devuelve una copia del registro
func (d *Interbloqueo) Estado() EstadoRecursos {
	d.mu.Lock()
	defer d.mu.Unlock()

	e := EstadoRecursos{
		Totales:     append([]int(nil), d.totales...),
		Disponibles: append([]int(nil), d.disponibles...),
		Semaforos:   append([]int(nil), d.semaforos...),
		Asignados:   make(map[int][]int),
		Solicitudes: make(map[int][]int),
	}
	for pid, v := range d.asignados {
		if !vacio(v) {
			e.Asignados[pid] = append([]int(nil), v...)
		}
	}
	for pid, v := range d.solicitudes {
		if !vacio(v) {
			e.Solicitudes[pid] = append([]int(nil), v...)
		}
	}
	return e
}

// Consistente verifica disponibles + asignados == totales y semáforo == disponibles -
// solicitudes para cada tipo
func (d *Interbloqueo) Consistente() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for t, total := range d.totales {
		asignados, solicitudes := 0, 0
		for _, v := range d.asignados {
			asignados += v[t]
		}
		for _, v := range d.solicitudes {
			solicitudes += v[t]
		}
		if d.disponibles[t]+asignados != total {
			return fmt.Errorf("tipo %d: disponibles %d + asignados %d != total %d", t, d.disponibles[t], asignados, total)
		}
		if d.semaforos[t] != d.disponibles[t]-solicitudes {
			return fmt.Errorf("tipo %d: semáforo %d != disponibles %d - solicitudes %d", t, d.semaforos[t], d.disponibles[t], solicitudes)
		}
	}
	return nil
}

func (d *Interbloqueo) pidsConAristas() []int {
	vistos := make(map[int]bool)
	for pid, v := range d.asignados {
		if !vacio(v) {
			vistos[pid] = true
		}
	}
	for pid, v := range d.solicitudes {
		if !vacio(v) {
			vistos[pid] = true
		}
	}
	pids := make([]int, 0, len(vistos))
	for pid := range vistos {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

func vacio(v []int) bool {
	for _, c := range v {
		if c != 0 {
			return false
		}
	}
	return true
}

func copiaVector(v []int, n int) []int {
	c := make([]int, n)
	copy(c, v)
	return c
}
