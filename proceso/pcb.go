// Package proceso define el bloque de control de proceso y el formato de sus instrucciones.
package proceso

import (
	"encoding/binary"
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/utils"
)

const (
	EstadoReady     = "READY"
	EstadoRunning   = "RUNNING"
	EstadoBlocked   = "BLOCKED"
	EstadoSuspended = "SUSPENDED"
	EstadoFinished  = "FINISHED"
)

// Disposición lógica de un proceso
const (
	PaginaPCB    = 0
	PaginaCodigo = 1
	PaginaPila   = 2
	InicioDatos  = 3

	MinPaginas = InicioDatos
	MaxPaginas = memoria.EntradasPorTabla
)

// MetricasProceso almacena estadísticas sobre el uso de memoria de un proceso
type MetricasProceso struct {
	AccesosTablasPaginas     int `json:"accesos_tablas_paginas"`
	InstruccionesSolicitadas int `json:"instrucciones_solicitadas"`
	FallosPagina             int `json:"fallos_pagina"`
	BajadasSwap              int `json:"bajadas_swap"`
	SubidasMemoria           int `json:"subidas_memoria"`
	LecturasMemoria          int `json:"lecturas_memoria"`
	EscriturasMemoria        int `json:"escrituras_memoria"`
}

type PCB struct {
	PID               int
	Prioridad         int
	CantInstrucciones int
	PC                int
	IR                int
	Estado            string

	// Tiempos en ticks
	Llegada         int
	Admision        int
	Fin             int
	Retorno         int
	TiempoEjecucion int
	TiempoBloqueo   int
	InicioBloqueo   int

	BaseTabla   int
	CantPaginas int
	MarcoPCB    int

	// RecienFallo marca al proceso que vuelve de un fallo de página para que el planificador
	// lo elija primero. RebanadaPendiente es la rebanada que le quedaba al fallar, 0 si no hay.
	RecienFallo       bool
	RebanadaPendiente int

	RecursosSuspendidos []int
	Instrucciones       []Instruccion
	ArchivosAbiertos    map[string]int
	Metricas            MetricasProceso

	recientes []int
}

// NuevoPCB crea el PCB con el PC en la primera instrucción
func NuevoPCB(pid, prioridad, paginas, llegada int, instrucciones []Instruccion, cantRecursos int) *PCB {
	return &PCB{
		PID:                 pid,
		Prioridad:           prioridad,
		CantInstrucciones:   len(instrucciones),
		PC:                  1,
		IR:                  0,
		Estado:              EstadoReady,
		Llegada:             llegada,
		CantPaginas:         paginas,
		MarcoPCB:            -1,
		RecursosSuspendidos: make([]int, cantRecursos),
		Instrucciones:       instrucciones,
		ArchivosAbiertos:    make(map[string]int),
	}
}

// CambiarEstado registra la transición y devuelve el estado anterior
func (pcb *PCB) CambiarEstado(nuevoEstado string) string {
	estadoAnterior := pcb.Estado
	if estadoAnterior == nuevoEstado {
		return estadoAnterior
	}

	pcb.Estado = nuevoEstado
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Pasa del estado %s al estado %s", pcb.PID, estadoAnterior, nuevoEstado))
	return estadoAnterior
}

// Agotado indica si el PC ya pasó la última instrucción
func (pcb *PCB) Agotado() bool {
	return pcb.PC > pcb.CantInstrucciones
}

// Extra devuelve el parámetro textual de la instrucción n (contando desde 1)
func (pcb *PCB) Extra(n int) string {
	if n < 1 || n > len(pcb.Instrucciones) {
		return ""
	}
	return pcb.Instrucciones[n-1].Extra
}

// PaginasDatos es la cantidad de páginas del segmento de datos
func (pcb *PCB) PaginasDatos() int {
	return pcb.CantPaginas - InicioDatos
}

// AccederPagina mueve la página al final de la lista de uso reciente
func (pcb *PCB) AccederPagina(pagina int) {
	pcb.OlvidarPagina(pagina)
	pcb.recientes = append(pcb.recientes, pagina)
}

// OlvidarPagina saca la página de la lista de uso reciente
func (pcb *PCB) OlvidarPagina(pagina int) {
	for i, p := range pcb.recientes {
		if p == pagina {
			pcb.recientes = append(pcb.recientes[:i], pcb.recientes[i+1:]...)
			return
		}
	}
}

// PaginasRecientes devuelve las páginas de la menos a la más recientemente usada
func (pcb *PCB) PaginasRecientes() []int {
	return append([]int(nil), pcb.recientes...)
}

// OlvidarPaginas vacía la lista de uso reciente
func (pcb *PCB) OlvidarPaginas() {
	pcb.recientes = nil
}

// CodificarPaginaPCB arma el contenido de la página 0: pid, prioridad, instrucciones y llegada
// como enteros de 16 bits little-endian
func (pcb *PCB) CodificarPaginaPCB() []byte {
	pagina := make([]byte, memoria.TamPagina)
	for i, v := range []int{pcb.PID, pcb.Prioridad, pcb.CantInstrucciones, pcb.Llegada} {
		binary.LittleEndian.PutUint16(pagina[2*i:], uint16(int16(v)))
	}
	return pagina
}
