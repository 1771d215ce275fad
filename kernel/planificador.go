package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// planificar es la pasada de cada ventana: detección de interbloqueo e ingreso de trabajos
// cuando les toca, y después los planificadores de largo, mediano y corto plazo
func (k *Kernel) planificar(ahora int) {
	if ahora%k.params.CicloDeteccion == 0 {
		k.detectarInterbloqueo(ahora)
	}
	if ahora%k.params.CicloTrabajos == 0 {
		k.ingresarTrabajos(ahora)
	}
	k.planificarLargoPlazo(ahora)
	k.planificarMedianoPlazo(ahora)
	k.planificarCortoPlazo(ahora)
}

// planificarLargoPlazo crea procesos para los trabajos de la reserva mientras no se llegue
// al máximo de procesos. Un trabajo que no se pudo crear queda primero en la reserva.
func (k *Kernel) planificarLargoPlazo(ahora int) {
	for len(k.reserva) > 0 && len(k.procesos) < k.params.MaxProcesos {
		trabajo := k.reserva[0]
		pcb, err := k.crearProceso(trabajo, ahora)
		if err != nil {
			k.log.Warn("No se pudo crear el proceso", "pid", trabajo.ID, "error", err)
			return
		}
		k.reserva = k.reserva[1:]
		k.procesos[pcb.PID] = pcb
		k.listos = append(k.listos, pcb)

		k.log.Info(fmt.Sprintf("(%d) - Se crea el proceso - Estado: %s", pcb.PID, pcb.Estado))
		k.registrar(ahora, EventoCreacion, pcb.PID, "prioridad %d, %d páginas, %d instrucciones",
			pcb.Prioridad, pcb.CantPaginas, pcb.CantInstrucciones)
	}
}

// planificarMedianoPlazo suspende un proceso cuando quedan pocos marcos libres y reanuda
// el primero de los suspendidos cuando sobran
func (k *Kernel) planificarMedianoPlazo(ahora int) {
	libres := k.mem.MarcosLibres()
	switch {
	case libres < k.params.UmbralMinMarcos:
		if victima := k.elegirSuspension(); victima != nil {
			k.suspender(victima, ahora)
		}
	case libres > k.params.UmbralMaxMarcos && len(k.suspendidos) > 0:
		k.reanudar(k.suspendidos[0], ahora)
	}
}

// elegirSuspension devuelve el proceso usado hace más tiempo si está listo, si no el
// primero de la cola de listos
func (k *Kernel) elegirSuspension() *proceso.PCB {
	if len(k.lru) > 0 && k.lru[0].Estado == proceso.EstadoReady {
		return k.lru[0]
	}
	if len(k.listos) > 0 {
		return k.listos[0]
	}
	return nil
}

// planificarCortoPlazo despacha un proceso si la CPU está libre. Gana el primero que
// vuelve de un fallo de página; si no hay, el de menor número de prioridad.
func (k *Kernel) planificarCortoPlazo(ahora int) {
	if k.cpu.Proceso != nil || len(k.listos) == 0 {
		return
	}

	elegido := -1
	for i, pcb := range k.listos {
		if pcb.RecienFallo {
			elegido = i
			break
		}
	}
	if elegido == -1 {
		elegido = 0
		for i, pcb := range k.listos {
			if pcb.Prioridad < k.listos[elegido].Prioridad {
				elegido = i
			}
		}
	}

	pcb := k.listos[elegido]
	k.listos = append(k.listos[:elegido], k.listos[elegido+1:]...)
	pcb.RecienFallo = false
	pcb.CambiarEstado(proceso.EstadoRunning)
	k.cpu.RecuperarContexto(pcb)
	k.registrar(ahora, EventoDespacho, pcb.PID, "rebanada %d", k.cpu.Rebanada)
}

// ejecutar corre una instrucción del proceso en ejecución y decide si sigue, se expropia
// o termina
func (k *Kernel) ejecutar(ahora int) {
	pcb := k.cpu.Proceso
	if pcb == nil {
		return
	}
	if k.cpu.PC > pcb.CantInstrucciones {
		k.finalizar(pcb, ahora, nil)
		return
	}

	k.accederProceso(pcb)
	if !k.reaplicarRecursos(pcb, ahora) {
		return
	}

	intr, err := k.cpu.Ejecutar()
	if err != nil {
		k.finalizar(pcb, ahora, err)
		return
	}
	if intr != nil {
		k.despachar(intr, pcb, ahora)
	}
	if k.cpu.Proceso != pcb {
		return
	}

	switch {
	case k.cpu.PC > pcb.CantInstrucciones:
		k.finalizar(pcb, ahora, nil)
	case k.cpu.Rebanada <= 0:
		k.cpu.ProtegerContexto()
		pcb.CambiarEstado(proceso.EstadoReady)
		k.listos = append(k.listos, pcb)
		k.registrar(ahora, EventoExpropiacion, pcb.PID, "fin de rebanada en PC %d", pcb.PC)
	}
}

// accederProceso pasa a pcb al final de la lista global de uso reciente
func (k *Kernel) accederProceso(pcb *proceso.PCB) {
	k.lru, _ = quitar(k.lru, pcb)
	k.lru = append(k.lru, pcb)
}

// reaplicarRecursos vuelve a pedir los recursos que el proceso soltó al suspenderse.
// Devuelve false si quedó bloqueado o terminó.
func (k *Kernel) reaplicarRecursos(pcb *proceso.PCB, ahora int) bool {
	for tipo := range pcb.RecursosSuspendidos {
		for pcb.RecursosSuspendidos[tipo] > 0 {
			pcb.RecursosSuspendidos[tipo]--
			if !k.solicitarRecurso(pcb, tipo, ahora) {
				return false
			}
		}
	}
	return true
}
