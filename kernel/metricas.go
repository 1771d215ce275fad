package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// Resumen junta los tiempos de los procesos terminados y los contadores de la MMU
type Resumen struct {
	Finalizados        int     `json:"finalizados"`
	RetornoPromedio    float64 `json:"retorno_promedio"`
	EjecucionPromedio  float64 `json:"ejecucion_promedio"`
	BloqueoPromedio    float64 `json:"bloqueo_promedio"`
	FallosPagina       int     `json:"fallos_pagina"`
	BajadasSwap        int     `json:"bajadas_swap"`
	SubidasMemoria     int     `json:"subidas_memoria"`
	AciertosTLB        int     `json:"aciertos_tlb"`
	FallosTLB          int     `json:"fallos_tlb"`
	InstruccionesTotal int     `json:"instrucciones_total"`
}

// informarMetricas deja en el log las métricas de memoria y de tiempo del proceso terminado
func (k *Kernel) informarMetricas(pcb *proceso.PCB) {
	m := pcb.Metricas
	k.log.Info(fmt.Sprintf("## PID: %d - Proc. Terminado - Met. Acc.T.Pag: %d; Inst.Sol.: %d; SWAP: %d; Mem.Prin.: %d; Lec.Mem.: %d; Esc.Mem.: %d; Fallos: %d",
		pcb.PID, m.AccesosTablasPaginas, m.InstruccionesSolicitadas, m.BajadasSwap, m.SubidasMemoria,
		m.LecturasMemoria, m.EscriturasMemoria, m.FallosPagina))
	k.log.Info(fmt.Sprintf("(%d) - Métricas de tiempo: llegada %d, admisión %d, fin %d, retorno %d, ejecución %d, bloqueo %d",
		pcb.PID, pcb.Llegada, pcb.Admision, pcb.Fin, pcb.Retorno, pcb.TiempoEjecucion, pcb.TiempoBloqueo))
}

// resumen se calcula con el lock tomado
func (k *Kernel) resumen() Resumen {
	r := Resumen{
		Finalizados: len(k.finalizados),
		AciertosTLB: k.cpu.MMU.Aciertos,
		FallosTLB:   k.cpu.MMU.Fallos,
	}
	sumar := func(pcb *proceso.PCB) {
		r.FallosPagina += pcb.Metricas.FallosPagina
		r.BajadasSwap += pcb.Metricas.BajadasSwap
		r.SubidasMemoria += pcb.Metricas.SubidasMemoria
		r.InstruccionesTotal += pcb.Metricas.InstruccionesSolicitadas
	}

	var retorno, ejecucion, bloqueo int
	for _, pcb := range k.finalizados {
		retorno += pcb.Retorno
		ejecucion += pcb.TiempoEjecucion
		bloqueo += pcb.TiempoBloqueo
		sumar(pcb)
	}
	for _, pcb := range k.procesos {
		sumar(pcb)
	}
	if n := len(k.finalizados); n > 0 {
		r.RetornoPromedio = float64(retorno) / float64(n)
		r.EjecucionPromedio = float64(ejecucion) / float64(n)
		r.BloqueoPromedio = float64(bloqueo) / float64(n)
	}
	return r
}

// Resumen devuelve las métricas acumuladas del simulador
func (k *Kernel) Resumen() Resumen {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.resumen()
}
