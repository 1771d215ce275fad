package kernel

import (
	"errors"
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// volcado es una página que hay que escribir en swap después de liberar su marco
type volcado struct {
	bloque int
	datos  []byte
}

// crearProceso reserva el lugar del PCB en el pool, la tabla de páginas y un bloque de swap
// por página, escribe la imagen inicial en swap y deja residente sólo la página del PCB.
// Si algo falla deshace lo reservado.
func (k *Kernel) crearProceso(t Trabajo, ahora int) (*proceso.PCB, error) {
	codigo, err := proceso.CodificarCodigo(t.Instrucciones)
	if err != nil {
		return nil, err
	}

	pcb := proceso.NuevoPCB(t.ID, t.Prioridad, t.Paginas, t.Llegada, t.Instrucciones, k.recursos.CantidadTipos())
	pcb.Admision = ahora

	marcoPCB, err := k.mem.AsignarPool()
	if err != nil {
		return nil, err
	}
	base, err := k.mem.AsignarTabla()
	if err != nil {
		k.mem.LiberarPool(marcoPCB)
		return nil, err
	}
	pcb.MarcoPCB = marcoPCB
	pcb.BaseTabla = base

	var bloques []int
	deshacer := func(err error) (*proceso.PCB, error) {
		for _, b := range bloques {
			k.swap.LiberarBloque(b)
		}
		k.mem.LiberarTabla(base)
		k.mem.LiberarPool(marcoPCB)
		return nil, fmt.Errorf("creando proceso %d: %w", t.ID, err)
	}

	for i := 0; i < t.Paginas; i++ {
		b, err := k.swap.AsignarBloque()
		if err != nil {
			return deshacer(err)
		}
		bloques = append(bloques, b)
	}

	paginaPCB := pcb.CodificarPaginaPCB()
	for pagina, bloque := range bloques {
		var datos []byte
		switch pagina {
		case proceso.PaginaPCB:
			datos = paginaPCB
		case proceso.PaginaCodigo:
			datos = codigo
		}
		if err := k.buffers.Escribir(bloque, datos); err != nil {
			return deshacer(err)
		}

		entrada := memoria.EntradaTabla{PaginaLogica: pagina, Marco: memoria.MarcoAusente, Bloque: bloque}
		if pagina == proceso.PaginaPCB {
			entrada.Marco = marcoPCB
			entrada.Presente = true
		}
		if err := k.mem.EscribirEntrada(base, entrada); err != nil {
			return deshacer(err)
		}
	}
	if err := k.mem.EscribirPagina(marcoPCB, paginaPCB); err != nil {
		return deshacer(err)
	}
	return pcb, nil
}

// liberarPagina saca de memoria una página residente del proceso. Si estaba modificada
// devuelve su contenido para escribirlo en swap.
func (k *Kernel) liberarPagina(pcb *proceso.PCB, pagina int) (*volcado, error) {
	entrada, err := k.mem.LeerEntrada(pcb.BaseTabla, pagina)
	if err != nil || !entrada.Presente {
		return nil, err
	}

	var v *volcado
	if entrada.Modificada {
		datos, err := k.mem.LeerPagina(entrada.Marco)
		if err != nil {
			return nil, err
		}
		v = &volcado{bloque: entrada.Bloque, datos: datos}
		pcb.Metricas.BajadasSwap++
	}

	marco := entrada.Marco
	entrada.Marco = memoria.MarcoAusente
	entrada.Presente = false
	entrada.Modificada = false
	if err := k.mem.EscribirEntrada(pcb.BaseTabla, entrada); err != nil {
		return nil, err
	}
	if err := k.mem.LiberarMarco(marco); err != nil {
		return nil, err
	}
	if k.cpu.Proceso == pcb {
		k.cpu.MMU.TLB.Quitar(pagina)
	}
	pcb.OlvidarPagina(pagina)
	return v, nil
}

func (k *Kernel) volcar(v *volcado) error {
	if v == nil {
		return nil
	}
	return k.buffers.Escribir(v.bloque, v.datos)
}

// suspender saca de memoria todas las páginas del proceso menos la del PCB, suelta sus
// recursos recordándolos para pedirlos de nuevo y lo pasa a SUSPENDED
func (k *Kernel) suspender(pcb *proceso.PCB, ahora int) {
	for pagina := proceso.PaginaCodigo; pagina < pcb.CantPaginas; pagina++ {
		v, err := k.liberarPagina(pcb, pagina)
		if err == nil {
			err = k.volcar(v)
		}
		if err != nil {
			k.finalizar(pcb, ahora, fmt.Errorf("suspendiendo: %w", err))
			return
		}
	}
	pcb.OlvidarPaginas()

	for tipo, cantidad := range k.recursos.Asignados(pcb.PID) {
		for i := 0; i < cantidad; i++ {
			if err := k.recursos.Liberar(pcb.PID, tipo); err != nil {
				k.log.Error("Error soltando recurso al suspender", "pid", pcb.PID, "tipo", tipo, "error", err)
				break
			}
			pcb.RecursosSuspendidos[tipo]++
			k.reasignar(tipo, ahora)
		}
	}

	k.listos, _ = quitar(k.listos, pcb)
	k.lru, _ = quitar(k.lru, pcb)
	pcb.CambiarEstado(proceso.EstadoSuspended)
	k.suspendidos = append(k.suspendidos, pcb)

	k.log.Info("Proceso suspendido", "pid", pcb.PID, "marcos_libres", k.mem.MarcosLibres())
	k.registrar(ahora, EventoSuspension, pcb.PID, "recursos pendientes %v", pcb.RecursosSuspendidos)
}

// reanudar vuelve a poner al proceso en READY precargando su página de código
func (k *Kernel) reanudar(pcb *proceso.PCB, ahora int) {
	marco, err := k.mem.AsignarMarco()
	if err != nil {
		k.log.Warn("No hay marco para reanudar", "pid", pcb.PID, "error", err)
		return
	}

	entrada, err := k.mem.LeerEntrada(pcb.BaseTabla, proceso.PaginaCodigo)
	var datos []byte
	if err == nil {
		datos, err = k.buffers.Leer(entrada.Bloque)
	}
	if err == nil {
		err = k.mem.EscribirPagina(marco, datos)
	}
	if err == nil {
		entrada.Marco = marco
		entrada.Presente = true
		entrada.Modificada = false
		err = k.mem.EscribirEntrada(pcb.BaseTabla, entrada)
	}
	if err != nil {
		k.mem.LiberarMarco(marco)
		k.suspendidos, _ = quitar(k.suspendidos, pcb)
		k.finalizar(pcb, ahora, fmt.Errorf("reanudando: %w", err))
		return
	}
	pcb.Metricas.SubidasMemoria++

	k.suspendidos, _ = quitar(k.suspendidos, pcb)
	pcb.CambiarEstado(proceso.EstadoReady)
	k.listos = append(k.listos, pcb)

	k.log.Info("Proceso reanudado", "pid", pcb.PID, "marco_codigo", marco)
	k.registrar(ahora, EventoReanudacion, pcb.PID, "código en el marco %d", marco)
}

// bloquear saca de la CPU al proceso en ejecución y lo deja en BLOCKED. El llamador lo
// pone en la cola que corresponda.
func (k *Kernel) bloquear(pcb *proceso.PCB, ahora int, motivo string) {
	if k.cpu.Proceso == pcb {
		k.cpu.ProtegerContexto()
	}
	pcb.CambiarEstado(proceso.EstadoBlocked)
	pcb.InicioBloqueo = ahora
	k.registrar(ahora, EventoBloqueo, pcb.PID, "%s", motivo)
}

// desbloquear pasa a READY a un proceso bloqueado que ya no está en ninguna cola
func (k *Kernel) desbloquear(pcb *proceso.PCB, ahora int) {
	pcb.TiempoBloqueo += ahora - pcb.InicioBloqueo
	pcb.CambiarEstado(proceso.EstadoReady)
	k.listos = append(k.listos, pcb)
	k.registrar(ahora, EventoDesbloqueo, pcb.PID, "bloqueado %d ticks", ahora-pcb.InicioBloqueo)
}

// completarBloqueo arma el plazo que termina un fallo o una E/S: el proceso vuelve a READY
// o termina si ya no le quedan instrucciones
func (k *Kernel) completarBloqueo(pid int) func() {
	return func() {
		k.mu.Lock()
		defer k.mu.Unlock()

		delete(k.enServicio, pid)
		pcb := k.procesos[pid]
		if pcb == nil || pcb.Estado != proceso.EstadoBlocked {
			return
		}
		ahora := k.reloj.Ahora()
		k.bloqueados, _ = quitar(k.bloqueados, pcb)
		if pcb.Agotado() {
			k.finalizar(pcb, ahora, nil)
			return
		}
		k.desbloquear(pcb, ahora)
	}
}

// abortarServicio termina al proceso cuya tarea de fallo o E/S falló
func (k *Kernel) abortarServicio(pcb *proceso.PCB, err error) {
	delete(k.enServicio, pcb.PID)
	k.bloqueados, _ = quitar(k.bloqueados, pcb)
	k.finalizar(pcb, k.reloj.Ahora(), err)
}

// finalizar termina el proceso: cierra sus archivos, devuelve sus recursos, libera su
// memoria y su swap y lo pasa a FINISHED. causa es nil en una finalización normal.
func (k *Kernel) finalizar(pcb *proceso.PCB, ahora int, causa error) {
	if pcb.Estado == proceso.EstadoFinished {
		return
	}
	if k.cpu.Proceso == pcb {
		k.cpu.ProtegerContexto()
		k.cpu.MMU.TLB.Limpiar()
	}
	k.quitarDeColas(pcb)

	for ruta, fd := range pcb.ArchivosAbiertos {
		if err := k.fs.Cerrar(fd); err != nil {
			k.log.Warn("Error cerrando archivo", "pid", pcb.PID, "ruta", ruta, "error", err)
		}
	}
	clear(pcb.ArchivosAbiertos)

	for tipo, cantidad := range k.recursos.Solicitudes(pcb.PID) {
		for i := 0; i < cantidad; i++ {
			k.recursos.RetirarSolicitud(pcb.PID, tipo)
		}
	}
	for tipo, cantidad := range k.recursos.Asignados(pcb.PID) {
		for i := 0; i < cantidad; i++ {
			if err := k.recursos.Liberar(pcb.PID, tipo); err != nil {
				break
			}
			k.reasignar(tipo, ahora)
		}
	}
	k.recursos.Olvidar(pcb.PID)

	k.liberarMemoria(pcb)

	pcb.CambiarEstado(proceso.EstadoFinished)
	pcb.Fin = ahora
	pcb.Retorno = ahora - pcb.Llegada
	pcb.TiempoEjecucion = ahora - pcb.Admision
	delete(k.procesos, pcb.PID)
	delete(k.enServicio, pcb.PID)
	k.finalizados = append(k.finalizados, pcb)

	if causa != nil {
		k.log.Error("Proceso cancelado por error", "pid", pcb.PID, "error", causa)
		k.registrar(ahora, EventoError, pcb.PID, "%v", causa)
	}
	k.log.Info(fmt.Sprintf("(%d) - Finaliza el proceso", pcb.PID))
	k.registrar(ahora, EventoFinalizacion, pcb.PID, "retorno %d, ejecución %d, bloqueo %d",
		pcb.Retorno, pcb.TiempoEjecucion, pcb.TiempoBloqueo)
	k.informarMetricas(pcb)
}

func (k *Kernel) quitarDeColas(pcb *proceso.PCB) {
	k.listos, _ = quitar(k.listos, pcb)
	k.bloqueados, _ = quitar(k.bloqueados, pcb)
	k.suspendidos, _ = quitar(k.suspendidos, pcb)
	k.lru, _ = quitar(k.lru, pcb)
	for t := range k.colaRecurso {
		k.colaRecurso[t], _ = quitar(k.colaRecurso[t], pcb)
	}
}

// liberarMemoria devuelve los marcos, los bloques de swap, la tabla y el lugar en el pool
func (k *Kernel) liberarMemoria(pcb *proceso.PCB) {
	var errs []error
	for pagina := 0; pagina < pcb.CantPaginas; pagina++ {
		entrada, err := k.mem.LeerEntrada(pcb.BaseTabla, pagina)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if entrada.Presente && pagina != proceso.PaginaPCB {
			errs = append(errs, k.mem.LiberarMarco(entrada.Marco))
		}
		errs = append(errs, k.swap.LiberarBloque(entrada.Bloque))
	}
	errs = append(errs, k.mem.LiberarTabla(pcb.BaseTabla), k.mem.LiberarPool(pcb.MarcoPCB))
	pcb.OlvidarPaginas()

	if err := errors.Join(errs...); err != nil {
		k.log.Error("Error liberando memoria del proceso", "pid", pcb.PID, "error", err)
	}
}

// Finalizar termina desde afuera un proceso que no está en ejecución ni esperando una
// tarea de fallo o E/S. Si el pid todavía es un trabajo sin proceso, lo descarta.
func (k *Kernel) Finalizar(pid int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	pcb, ok := k.procesos[pid]
	if !ok {
		if k.descartarTrabajo(pid) {
			k.log.Info("Trabajo descartado", "pid", pid)
			return nil
		}
		return fmt.Errorf("%w: %d", ErrProcesoInexistente, pid)
	}
	if k.cpu.Proceso == pcb {
		return fmt.Errorf("%w: %d", ErrProcesoEnEjecucion, pid)
	}
	if k.enServicio[pid] {
		return fmt.Errorf("%w: %d", ErrProcesoEnServicio, pid)
	}
	k.finalizar(pcb, k.reloj.Ahora(), nil)
	return nil
}
