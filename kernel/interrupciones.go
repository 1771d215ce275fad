package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/cpu"
	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// despachar atiende una interrupción. pcb es el proceso que la provocó, nil para las que
// no vienen de la CPU.
func (k *Kernel) despachar(intr *cpu.Interrupcion, pcb *proceso.PCB, ahora int) {
	switch intr.Vector {
	case cpu.VectorReloj:
		k.cpu.AbrirVentana()
	case cpu.VectorFalloPagina:
		k.atenderFallo(pcb, intr.Argumento, ahora)
	case cpu.VectorSolicitarRecurso:
		k.solicitarRecurso(pcb, intr.Argumento, ahora)
	case cpu.VectorLiberarRecurso:
		k.liberarRecurso(pcb, intr.Argumento, ahora)
	case cpu.VectorEntrada, cpu.VectorSalida:
		k.atenderES(pcb, *intr, ahora)
	case cpu.VectorCrearArchivo, cpu.VectorCerrarArchivo:
		k.atenderArchivo(pcb, *intr, ahora)
	case cpu.VectorSolicitudTrabajo:
		k.generarTrabajo(ahora)
	default:
		k.log.Error("Interrupción desconocida", "vector", intr.Vector)
		if pcb != nil {
			k.finalizar(pcb, ahora, fmt.Errorf("vector de interrupción %d desconocido", intr.Vector))
		}
	}
}

// solicitarRecurso pide una unidad del tipo. Si no hay, el proceso queda bloqueado en la
// cola del recurso. Devuelve true si el proceso consiguió la unidad y sigue en la CPU.
func (k *Kernel) solicitarRecurso(pcb *proceso.PCB, tipo int, ahora int) bool {
	if err := k.recursos.Solicitar(pcb.PID, tipo); err != nil {
		k.finalizar(pcb, ahora, err)
		return false
	}
	asignado, err := k.recursos.IntentarAsignar(pcb.PID, tipo)
	if err != nil {
		k.finalizar(pcb, ahora, err)
		return false
	}
	if asignado {
		k.registrar(ahora, EventoRecurso, pcb.PID, "obtiene una unidad de %d", tipo)
		return true
	}

	k.bloquear(pcb, ahora, fmt.Sprintf("espera el recurso %d", tipo))
	k.colaRecurso[tipo] = append(k.colaRecurso[tipo], pcb)
	return false
}

// liberarRecurso devuelve una unidad y se la ofrece al primero que la espera
func (k *Kernel) liberarRecurso(pcb *proceso.PCB, tipo int, ahora int) {
	if err := k.recursos.Liberar(pcb.PID, tipo); err != nil {
		k.finalizar(pcb, ahora, err)
		return
	}
	k.registrar(ahora, EventoRecurso, pcb.PID, "libera una unidad de %d", tipo)
	k.reasignar(tipo, ahora)
}

// reasignar le da la unidad recién liberada al primero de la cola del tipo
func (k *Kernel) reasignar(tipo int, ahora int) {
	cola := k.colaRecurso[tipo]
	if len(cola) == 0 {
		return
	}
	cabeza := cola[0]
	if !k.recursos.IntentarReasignar(cabeza.PID, tipo) {
		return
	}
	k.registrar(ahora, EventoRecurso, cabeza.PID, "recibe una unidad de %d", tipo)
	k.despertarDeRecurso(cabeza, tipo, ahora)
}

// despertarDeRecurso saca al proceso de la cola del tipo. Sólo vuelve a READY si no espera
// ningún otro recurso.
func (k *Kernel) despertarDeRecurso(pcb *proceso.PCB, tipo int, ahora int) {
	k.colaRecurso[tipo], _ = quitar(k.colaRecurso[tipo], pcb)
	for _, cola := range k.colaRecurso {
		if contiene(cola, pcb) {
			return
		}
	}
	if pcb.Estado == proceso.EstadoBlocked {
		k.desbloquear(pcb, ahora)
	}
}

// detectarInterbloqueo busca procesos interbloqueados y, si los hay, expropia a uno que
// pueda ceder un recurso
func (k *Kernel) detectarInterbloqueo(ahora int) {
	bloqueados := k.recursos.Detectar()
	if len(bloqueados) == 0 {
		return
	}
	k.log.Warn("Interbloqueo detectado", "tick", ahora, "pids", bloqueados)
	k.registrar(ahora, EventoInterbloqueo, bloqueados[0], "procesos %v", bloqueados)

	for _, t := range k.recursos.Recuperar(bloqueados) {
		victima := k.procesos[t.Desde]
		receptor := k.procesos[t.Hacia]
		if victima == nil || receptor == nil {
			k.log.Error("Transferencia con proceso inexistente", "desde", t.Desde, "hacia", t.Hacia)
			continue
		}
		k.log.Info("Recurso expropiado", "tipo", t.Tipo, "desde", t.Desde, "hacia", t.Hacia)
		k.registrar(ahora, EventoInterbloqueo, t.Desde, "cede una unidad de %d al proceso %d", t.Tipo, t.Hacia)

		k.despertarDeRecurso(receptor, t.Tipo, ahora)
		if !contiene(k.colaRecurso[t.Tipo], victima) {
			k.colaRecurso[t.Tipo] = append([]*proceso.PCB{victima}, k.colaRecurso[t.Tipo]...)
		}
	}
}
