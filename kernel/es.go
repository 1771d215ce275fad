package kernel

import (
	"fmt"
	"strings"

	"github.com/sisoputnfrba/simulador-nucleo/cpu"
	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// atenderES bloquea al proceso y lanza la transferencia entre el archivo y su página de datos
func (k *Kernel) atenderES(pcb *proceso.PCB, intr cpu.Interrupcion, ahora int) {
	k.bloquear(pcb, ahora, fmt.Sprintf("%s %s", strings.ToLower(cpu.NombreVector(intr.Vector)), intr.Extra))
	k.bloqueados = append(k.bloqueados, pcb)
	k.registrar(ahora, EventoES, pcb.PID, "%s marco %d (%s)", cpu.NombreVector(intr.Vector), intr.Argumento, intr.Extra)

	k.lanzar(pcb.PID, func() { k.servirES(pcb, intr, ahora) })
}

// servirES abre el archivo si hace falta y copia una página entre el archivo y el marco.
// Una entrada deja la página modificada.
func (k *Kernel) servirES(pcb *proceso.PCB, intr cpu.Interrupcion, inicio int) {
	k.mu.Lock()
	pagina, ruta, err := proceso.ParametrosES(intr.Extra)
	fd, abierto := pcb.ArchivosAbiertos[ruta]
	k.mu.Unlock()

	if err == nil && !abierto {
		fd, err = k.fs.Abrir(ruta)
		if err == nil {
			k.mu.Lock()
			pcb.ArchivosAbiertos[ruta] = fd
			k.mu.Unlock()
		}
	}
	if err == nil {
		dir := intr.Argumento * memoria.TamPagina
		if intr.Vector == cpu.VectorEntrada {
			_, err = k.fs.Leer(fd, dir, memoria.TamPagina)
		} else {
			_, err = k.fs.Escribir(fd, dir, memoria.TamPagina)
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err != nil {
		k.abortarServicio(pcb, fmt.Errorf("%s %q: %w", cpu.NombreVector(intr.Vector), intr.Extra, err))
		return
	}
	if intr.Vector == cpu.VectorEntrada {
		if err := k.marcarModificada(pcb, proceso.InicioDatos+pagina); err != nil {
			k.abortarServicio(pcb, err)
			return
		}
		pcb.Metricas.EscriturasMemoria++
	} else {
		pcb.Metricas.LecturasMemoria++
	}
	k.reloj.Programar(inicio+k.params.TiempoES, k.completarBloqueo(pcb.PID))
}

// atenderArchivo crea o cierra el archivo de la instrucción y bloquea al proceso el tiempo
// de la operación
func (k *Kernel) atenderArchivo(pcb *proceso.PCB, intr cpu.Interrupcion, ahora int) {
	ruta := strings.TrimSpace(intr.Extra)
	var err error
	if intr.Vector == cpu.VectorCrearArchivo {
		err = k.crearArchivo(pcb, ruta)
	} else {
		k.cerrarArchivo(pcb, ruta)
	}
	if err != nil {
		k.finalizar(pcb, ahora, fmt.Errorf("creando %q: %w", ruta, err))
		return
	}

	k.bloquear(pcb, ahora, fmt.Sprintf("%s %s", strings.ToLower(cpu.NombreVector(intr.Vector)), ruta))
	k.bloqueados = append(k.bloqueados, pcb)
	k.registrar(ahora, EventoES, pcb.PID, "%s %s", cpu.NombreVector(intr.Vector), ruta)
	k.enServicio[pcb.PID] = true
	k.reloj.Programar(ahora+k.params.TiempoArchivo, k.completarBloqueo(pcb.PID))
}

func (k *Kernel) crearArchivo(pcb *proceso.PCB, ruta string) error {
	if fd, ok := pcb.ArchivosAbiertos[ruta]; ok {
		if err := k.fs.Cerrar(fd); err != nil {
			k.log.Warn("Error cerrando archivo antes de recrearlo", "pid", pcb.PID, "ruta", ruta, "error", err)
		}
		delete(pcb.ArchivosAbiertos, ruta)
	}
	fd, err := k.fs.Crear(ruta)
	if err != nil {
		return err
	}
	pcb.ArchivosAbiertos[ruta] = fd
	return nil
}

func (k *Kernel) cerrarArchivo(pcb *proceso.PCB, ruta string) {
	fd, ok := pcb.ArchivosAbiertos[ruta]
	if !ok {
		k.log.Warn("Cierre de un archivo que no estaba abierto", "pid", pcb.PID, "ruta", ruta)
		return
	}
	if err := k.fs.Cerrar(fd); err != nil {
		k.log.Warn("Error cerrando archivo", "pid", pcb.PID, "ruta", ruta, "error", err)
	}
	delete(pcb.ArchivosAbiertos, ruta)
}

// marcarModificada prende el bit de modificada de una página residente
func (k *Kernel) marcarModificada(pcb *proceso.PCB, pagina int) error {
	entrada, err := k.mem.LeerEntrada(pcb.BaseTabla, pagina)
	if err != nil {
		return err
	}
	if !entrada.Presente {
		return fmt.Errorf("página %d del proceso %d no residente", pagina, pcb.PID)
	}
	entrada.Modificada = true
	return k.mem.EscribirEntrada(pcb.BaseTabla, entrada)
}
