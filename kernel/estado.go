package kernel

import (
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/sisoputnfrba/simulador-nucleo/cpu"
	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// EstadoProceso es la vista de un PCB en una instantánea
type EstadoProceso struct {
	PID               int                     `json:"pid"`
	Prioridad         int                     `json:"prioridad"`
	Estado            string                  `json:"estado"`
	PC                int                     `json:"pc"`
	IR                int                     `json:"ir"`
	CantInstrucciones int                     `json:"cant_instrucciones"`
	CantPaginas       int                     `json:"cant_paginas"`
	Llegada           int                     `json:"llegada"`
	Admision          int                     `json:"admision"`
	Fin               int                     `json:"fin,omitempty"`
	Retorno           int                     `json:"retorno,omitempty"`
	TiempoEjecucion   int                     `json:"tiempo_ejecucion,omitempty"`
	TiempoBloqueo     int                     `json:"tiempo_bloqueo"`
	Residentes        []int                   `json:"residentes,omitempty"`
	Metricas          proceso.MetricasProceso `json:"metricas"`
}

// Instantanea es una foto del núcleo para el tablero
type Instantanea struct {
	Tick          int               `json:"tick"`
	Pausado       bool              `json:"pausado"`
	EnEjecucion   int               `json:"en_ejecucion"`
	Rebanada      int               `json:"rebanada"`
	Pendientes    []int             `json:"pendientes"`
	Reserva       []int             `json:"reserva"`
	Listos        []int             `json:"listos"`
	Bloqueados    []int             `json:"bloqueados"`
	ColasRecursos [][]int           `json:"colas_recursos"`
	Suspendidos   []int             `json:"suspendidos"`
	Finalizados   []int             `json:"finalizados"`
	LRU           []int             `json:"lru"`
	Memoria       memoria.Ocupacion `json:"memoria"`
	SwapLibre     int               `json:"swap_libre"`
	Recursos      EstadoRecursos    `json:"recursos"`
	TLB           []cpu.EntradaTLB  `json:"tlb"`
	Procesos      []EstadoProceso   `json:"procesos"`
	Resumen       Resumen           `json:"resumen"`
	Eventos       []Evento          `json:"eventos,omitempty"`
}

// Instantanea copia el estado actual del núcleo
func (k *Kernel) Instantanea() Instantanea {
	k.mu.Lock()
	defer k.mu.Unlock()

	inst := Instantanea{
		Tick:        k.reloj.Ahora(),
		Pausado:     k.reloj.Pausado(),
		EnEjecucion: -1,
		Listos:      pids(k.listos),
		Bloqueados:  pids(k.bloqueados),
		Suspendidos: pids(k.suspendidos),
		Finalizados: pids(k.finalizados),
		LRU:         pids(k.lru),
		Memoria:     k.mem.Ocupacion(),
		SwapLibre:   k.swap.Libres(),
		Recursos:    k.recursos.Estado(),
		TLB:         k.cpu.MMU.TLB.Entradas(),
		Resumen:     k.resumen(),
	}
	if pcb := k.cpu.Proceso; pcb != nil {
		inst.EnEjecucion = pcb.PID
		inst.Rebanada = k.cpu.Rebanada
	}
	for _, t := range k.trabajos {
		inst.Pendientes = append(inst.Pendientes, t.ID)
	}
	for _, t := range k.reserva {
		inst.Reserva = append(inst.Reserva, t.ID)
	}
	for _, cola := range k.colaRecurso {
		inst.ColasRecursos = append(inst.ColasRecursos, pids(cola))
	}

	for _, pcb := range k.procesos {
		inst.Procesos = append(inst.Procesos, k.estadoProceso(pcb))
	}
	for _, pcb := range k.finalizados {
		inst.Procesos = append(inst.Procesos, k.estadoProceso(pcb))
	}
	sort.Slice(inst.Procesos, func(i, j int) bool { return inst.Procesos[i].PID < inst.Procesos[j].PID })

	inst.Eventos = k.Eventos()
	return inst
}

// Eventos devuelve los últimos eventos si la traza los guarda
func (k *Kernel) Eventos() []Evento {
	if t, ok := k.traza.(*TrazaMemoria); ok {
		return t.Eventos()
	}
	return nil
}

func (k *Kernel) estadoProceso(pcb *proceso.PCB) EstadoProceso {
	e := EstadoProceso{
		PID:               pcb.PID,
		Prioridad:         pcb.Prioridad,
		Estado:            pcb.Estado,
		PC:                pcb.PC,
		IR:                pcb.IR,
		CantInstrucciones: pcb.CantInstrucciones,
		CantPaginas:       pcb.CantPaginas,
		Llegada:           pcb.Llegada,
		Admision:          pcb.Admision,
		Fin:               pcb.Fin,
		Retorno:           pcb.Retorno,
		TiempoEjecucion:   pcb.TiempoEjecucion,
		TiempoBloqueo:     pcb.TiempoBloqueo,
		Metricas:          pcb.Metricas,
	}
	if k.cpu.Proceso == pcb {
		e.PC = k.cpu.PC
		e.IR = k.cpu.IR
	}
	if pcb.Estado != proceso.EstadoFinished {
		e.Residentes = k.paginasResidentes(pcb)
	}
	return e
}

// paginasResidentes lista las páginas lógicas del proceso que están en memoria
func (k *Kernel) paginasResidentes(pcb *proceso.PCB) []int {
	var residentes []int
	for pagina := 0; pagina < pcb.CantPaginas; pagina++ {
		entrada, err := k.mem.LeerEntrada(pcb.BaseTabla, pagina)
		if err == nil && entrada.Presente {
			residentes = append(residentes, pagina)
		}
	}
	return residentes
}

// Proceso devuelve la vista de un proceso vivo o terminado
func (k *Kernel) Proceso(pid int) (EstadoProceso, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if pcb, ok := k.procesos[pid]; ok {
		return k.estadoProceso(pcb), true
	}
	for _, pcb := range k.finalizados {
		if pcb.PID == pid {
			return k.estadoProceso(pcb), true
		}
	}
	return EstadoProceso{}, false
}

var volcador = spew.ConfigState{Indent: "  ", SortKeys: true, DisableMethods: true, DisablePointerAddresses: true}

// Volcar devuelve la instantánea formateada para depurar
func (k *Kernel) Volcar() string {
	return volcador.Sdump(k.Instantanea())
}
