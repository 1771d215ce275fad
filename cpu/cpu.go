// Package cpu ejecuta las instrucciones del proceso en ejecución, una por ventana de planificación.
package cpu

import (
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// Vectores de interrupción
const (
	VectorReloj = iota
	VectorFalloPagina
	VectorSolicitarRecurso
	VectorLiberarRecurso
	VectorEntrada
	VectorSalida
	VectorSolicitudTrabajo
	VectorCrearArchivo
	VectorCerrarArchivo
)

// ValorEscritura es lo que guarda una instrucción STORE
const ValorEscritura uint16 = 0x6666

var nombresVector = [...]string{
	"RELOJ", "FALLO_PAGINA", "SOLICITAR_RECURSO", "LIBERAR_RECURSO",
	"ENTRADA", "SALIDA", "SOLICITUD_TRABAJO", "CREAR_ARCHIVO", "CERRAR_ARCHIVO",
}

// NombreVector devuelve el nombre legible del vector
func NombreVector(vector int) string {
	if vector < 0 || vector >= len(nombresVector) {
		return fmt.Sprintf("VECTOR(%d)", vector)
	}
	return nombresVector[vector]
}

// Interrupcion es lo que la CPU le pide al núcleo después de ejecutar una instrucción.
// Para un fallo Argumento es la página lógica, para entrada y salida el marco físico de
// la página de datos y para los recursos el tipo.
type Interrupcion struct {
	Vector    int
	Argumento int
	Extra     string
}

// Memoria es lo que la CPU necesita de la memoria física
type Memoria interface {
	TablaPaginas
	EscribirEntrada(base int, e memoria.EntradaTabla) error
	LeerBytes(dir, n int) ([]byte, error)
	LeerPalabra(dir int) (uint16, error)
	EscribirPalabra(dir int, valor uint16) error
}

type CPU struct {
	mem     Memoria
	MMU     *MMU
	quantum int

	Proceso    *proceso.PCB
	PC         int
	IR         int
	Rebanada   int
	Acumulador uint16

	puedePlanificar bool
}

func NuevaCPU(mem Memoria, capacidadTLB, quantum int) *CPU {
	return &CPU{
		mem:     mem,
		MMU:     NuevaMMU(mem, capacidadTLB),
		quantum: quantum,
	}
}

// AbrirVentana habilita una pasada del planificador. La llama la interrupción de reloj.
func (c *CPU) AbrirVentana() {
	c.puedePlanificar = true
}

func (c *CPU) CerrarVentana() {
	c.puedePlanificar = false
}

func (c *CPU) PuedePlanificar() bool {
	return c.puedePlanificar
}

// RecuperarContexto pone a pcb en ejecución. Si volvió de un fallo retoma la rebanada que
// le quedaba, si no arranca un quantum nuevo.
func (c *CPU) RecuperarContexto(pcb *proceso.PCB) {
	c.Proceso = pcb
	c.PC = pcb.PC
	c.IR = pcb.IR
	c.Rebanada = c.quantum
	if pcb.RebanadaPendiente > 0 {
		c.Rebanada = pcb.RebanadaPendiente
		pcb.RebanadaPendiente = 0
	}
	c.MMU.TLB.Limpiar()
}

// ProtegerContexto guarda los registros en el PCB y deja la CPU libre
func (c *CPU) ProtegerContexto() *proceso.PCB {
	pcb := c.Proceso
	if pcb != nil {
		pcb.PC = c.PC
		pcb.IR = c.IR
	}
	c.Proceso = nil
	return pcb
}

// Ejecutar corre una instrucción del proceso en ejecución. Devuelve a lo sumo una
// interrupción. Un fallo de página deja la instrucción para reintentar y no consume rebanada.
func (c *CPU) Ejecutar() (*Interrupcion, error) {
	pcb := c.Proceso
	if pcb == nil {
		return nil, ErrSinProceso
	}

	dirCodigo := proceso.PaginaCodigo*memoria.TamPagina + proceso.TamInstruccion*(c.PC-1)
	fisica, presente, err := c.MMU.Resolver(pcb, dirCodigo)
	if err != nil {
		return nil, err
	}
	if !presente {
		return c.fallo(proceso.PaginaCodigo), nil
	}
	pcb.AccederPagina(proceso.PaginaCodigo)

	crudo, err := c.mem.LeerBytes(fisica, proceso.TamInstruccion)
	if err != nil {
		return nil, err
	}
	c.IR = c.PC
	c.PC++
	pcb.Metricas.InstruccionesSolicitadas++

	instr, err := proceso.DecodificarInstruccion(crudo)
	if err != nil {
		return nil, fmt.Errorf("pid %d instrucción %d: %w", pcb.PID, c.IR, err)
	}
	instr.Extra = pcb.Extra(c.IR)

	var intr *Interrupcion
	switch instr.Tipo {
	case proceso.OpSyscall:
		intr, err = c.syscall(pcb, instr)
	case proceso.OpCompute:
	case proceso.OpLoad, proceso.OpStore:
		intr, err = c.accederDatos(pcb, instr)
	case proceso.OpSwitch:
		c.Rebanada = 1
	case proceso.OpJump:
		c.PC = instr.Argumento
	case proceso.OpApply:
		intr = &Interrupcion{Vector: VectorSolicitarRecurso, Argumento: instr.Argumento}
	case proceso.OpRelease:
		intr = &Interrupcion{Vector: VectorLiberarRecurso, Argumento: instr.Argumento}
	}
	if err != nil {
		return nil, err
	}
	if intr != nil && intr.Vector == VectorFalloPagina {
		return intr, nil
	}

	c.Rebanada--
	return intr, nil
}

func (c *CPU) syscall(pcb *proceso.PCB, instr proceso.Instruccion) (*Interrupcion, error) {
	switch instr.Argumento {
	case proceso.SyscallCrear:
		return &Interrupcion{Vector: VectorCrearArchivo, Extra: instr.Extra}, nil
	case proceso.SyscallCerrar:
		return &Interrupcion{Vector: VectorCerrarArchivo, Extra: instr.Extra}, nil
	case proceso.SyscallEntrada, proceso.SyscallSalida:
		k, _, err := proceso.ParametrosES(instr.Extra)
		if err != nil {
			return nil, err
		}
		pagina := proceso.InicioDatos + k
		fisica, presente, err := c.MMU.Resolver(pcb, pagina*memoria.TamPagina)
		if err != nil {
			return nil, err
		}
		if !presente {
			c.rebobinar()
			return c.fallo(pagina), nil
		}
		pcb.AccederPagina(pagina)

		vector := VectorEntrada
		if instr.Argumento == proceso.SyscallSalida {
			vector = VectorSalida
		}
		return &Interrupcion{Vector: vector, Argumento: fisica / memoria.TamPagina, Extra: instr.Extra}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrSyscallInvalida, instr.Argumento)
}

func (c *CPU) accederDatos(pcb *proceso.PCB, instr proceso.Instruccion) (*Interrupcion, error) {
	pagina := instr.Argumento >> memoria.BitsDesplazamiento
	fisica, presente, err := c.MMU.Resolver(pcb, instr.Argumento)
	if err != nil {
		return nil, err
	}
	if !presente {
		c.rebobinar()
		return c.fallo(pagina), nil
	}
	pcb.AccederPagina(pagina)

	if instr.Tipo == proceso.OpLoad {
		valor, err := c.mem.LeerPalabra(fisica)
		if err != nil {
			return nil, err
		}
		c.Acumulador = valor
		pcb.Metricas.LecturasMemoria++
		return nil, nil
	}

	if err := c.mem.EscribirPalabra(fisica, ValorEscritura); err != nil {
		return nil, err
	}
	if err := c.marcarModificada(pcb, pagina); err != nil {
		return nil, err
	}
	pcb.Metricas.EscriturasMemoria++
	return nil, nil
}

// marcarModificada prende el bit de modificada de la página en la tabla del proceso
func (c *CPU) marcarModificada(pcb *proceso.PCB, pagina int) error {
	entrada, err := c.mem.LeerEntrada(pcb.BaseTabla, pagina)
	if err != nil {
		return err
	}
	if entrada.Modificada {
		return nil
	}
	entrada.Modificada = true
	return c.mem.EscribirEntrada(pcb.BaseTabla, entrada)
}

// rebobinar deshace el fetch para reintentar la instrucción después del fallo
func (c *CPU) rebobinar() {
	c.PC--
	c.IR--
	c.Proceso.Metricas.InstruccionesSolicitadas--
}

func (c *CPU) fallo(pagina int) *Interrupcion {
	c.Proceso.RebanadaPendiente = c.Rebanada
	return &Interrupcion{Vector: VectorFalloPagina, Argumento: pagina}
}
