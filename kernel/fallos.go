package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// atenderFallo bloquea al proceso y lanza la tarea que trae la página desde swap
func (k *Kernel) atenderFallo(pcb *proceso.PCB, pagina int, ahora int) {
	pcb.RecienFallo = true
	pcb.Metricas.FallosPagina++
	k.bloquear(pcb, ahora, fmt.Sprintf("fallo de página %d", pagina))
	k.bloqueados = append(k.bloqueados, pcb)
	k.registrar(ahora, EventoFallo, pcb.PID, "página %d", pagina)

	k.lanzar(pcb.PID, func() { k.servirFallo(pcb, pagina, ahora) })
}

// servirFallo carga la página en un marco libre. Si no hay, reemplaza la página del mismo
// proceso usada hace más tiempo. Las transferencias con el dispositivo se hacen sin el lock
// del núcleo. Al terminar programa el desbloqueo para inicio + TiempoFallo.
func (k *Kernel) servirFallo(pcb *proceso.PCB, pagina int, inicio int) {
	k.mu.Lock()
	if pcb.Estado != proceso.EstadoBlocked {
		delete(k.enServicio, pcb.PID)
		k.mu.Unlock()
		return
	}

	entrada, err := k.mem.LeerEntrada(pcb.BaseTabla, pagina)
	if err != nil {
		k.abortarServicio(pcb, err)
		k.mu.Unlock()
		return
	}
	if entrada.Presente {
		k.reloj.Programar(inicio+k.params.TiempoFallo, k.completarBloqueo(pcb.PID))
		k.mu.Unlock()
		return
	}

	var v *volcado
	if k.mem.MarcosLibres() == 0 {
		victima := k.elegirVictima(pcb, pagina)
		if victima == -1 {
			k.reintentarFallo(pcb, pagina, inicio)
			k.mu.Unlock()
			return
		}
		v, err = k.liberarPagina(pcb, victima)
		if err != nil {
			k.abortarServicio(pcb, err)
			k.mu.Unlock()
			return
		}
		k.registrar(k.reloj.Ahora(), EventoReemplazo, pcb.PID, "página %d reemplaza a %d", pagina, victima)
	}

	marco, err := k.mem.AsignarMarco()
	k.mu.Unlock()

	errVolcado := k.volcar(v)
	if err != nil {
		k.mu.Lock()
		if errVolcado != nil {
			k.abortarServicio(pcb, errVolcado)
		} else {
			k.reintentarFallo(pcb, pagina, inicio)
		}
		k.mu.Unlock()
		return
	}
	datos, errLectura := k.buffers.Leer(entrada.Bloque)

	k.mu.Lock()
	defer k.mu.Unlock()

	if errVolcado != nil || errLectura != nil || pcb.Estado != proceso.EstadoBlocked {
		k.mem.LiberarMarco(marco)
		switch {
		case errVolcado != nil:
			k.abortarServicio(pcb, errVolcado)
		case errLectura != nil:
			k.abortarServicio(pcb, errLectura)
		default:
			delete(k.enServicio, pcb.PID)
		}
		return
	}

	if err := k.mem.EscribirPagina(marco, datos); err != nil {
		k.mem.LiberarMarco(marco)
		k.abortarServicio(pcb, err)
		return
	}
	entrada.Marco = marco
	entrada.Presente = true
	entrada.Modificada = false
	if err := k.mem.EscribirEntrada(pcb.BaseTabla, entrada); err != nil {
		k.mem.LiberarMarco(marco)
		k.abortarServicio(pcb, err)
		return
	}
	pcb.Metricas.SubidasMemoria++

	k.log.Debug("Página cargada", "pid", pcb.PID, "pagina", pagina, "marco", marco)
	k.reloj.Programar(inicio+k.params.TiempoFallo, k.completarBloqueo(pcb.PID))
}

// reintentarFallo vuelve a lanzar la tarea en el próximo tick, cuando el planificador de
// mediano plazo pudo haber liberado marcos
func (k *Kernel) reintentarFallo(pcb *proceso.PCB, pagina int, inicio int) {
	k.log.Debug("Sin marcos para el fallo, se reintenta", "pid", pcb.PID, "pagina", pagina)
	k.reloj.Programar(k.reloj.Ahora()+1, func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		if pcb.Estado == proceso.EstadoBlocked {
			k.lanzar(pcb.PID, func() { k.servirFallo(pcb, pagina, inicio) })
		}
	})
}

// elegirVictima devuelve la página residente del proceso usada hace más tiempo, sin contar
// la del PCB ni la que falló, o -1 si no tiene ninguna
func (k *Kernel) elegirVictima(pcb *proceso.PCB, pagina int) int {
	candidatas := pcb.PaginasRecientes()
	for p := proceso.PaginaCodigo; p < pcb.CantPaginas; p++ {
		candidatas = append(candidatas, p)
	}
	for _, p := range candidatas {
		if p == proceso.PaginaPCB || p == pagina {
			continue
		}
		entrada, err := k.mem.LeerEntrada(pcb.BaseTabla, p)
		if err == nil && entrada.Presente {
			return p
		}
	}
	return -1
}
