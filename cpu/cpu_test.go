package cpu

import (
	"testing"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/proceso"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quantumPrueba = 4

type entorno struct {
	mem *memoria.MemoriaFisica
	cpu *CPU
	pcb *proceso.PCB
}

// nuevoEntorno arma un proceso de 5 páginas con el código cargado en el marco 20 y la página
// de datos 3 en el marco 21. La pila (página 2) y la página 4 quedan ausentes.
func nuevoEntorno(t *testing.T, instrucciones []proceso.Instruccion) *entorno {
	t.Helper()
	mem := memoria.NuevaMemoriaFisica()
	base, err := mem.AsignarTabla()
	require.NoError(t, err)

	pcb := proceso.NuevoPCB(1, 1, 5, 0, instrucciones, 3)
	pcb.BaseTabla = base

	codigo, err := proceso.CodificarCodigo(instrucciones)
	require.NoError(t, err)
	require.NoError(t, mem.EscribirPagina(20, codigo))
	require.NoError(t, mem.EscribirPagina(21, nil))

	marcos := map[int]int{0: 2, 1: 20, 3: 21}
	for pagina := 0; pagina < 5; pagina++ {
		e := memoria.EntradaTabla{PaginaLogica: pagina, Marco: memoria.MarcoAusente, Bloque: memoria.InicioAreaSwap + pagina}
		if marco, ok := marcos[pagina]; ok {
			e.Marco, e.Presente = marco, true
		}
		require.NoError(t, mem.EscribirEntrada(base, e))
	}

	c := NuevaCPU(mem, 8, quantumPrueba)
	c.RecuperarContexto(pcb)
	return &entorno{mem: mem, cpu: c, pcb: pcb}
}

func TestCPU_Compute(t *testing.T) {
	e := nuevoEntorno(t, []proceso.Instruccion{{ID: 1, Tipo: proceso.OpCompute}, {ID: 2, Tipo: proceso.OpCompute}})

	intr, err := e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Nil(t, intr)
	assert.Equal(t, 2, e.cpu.PC)
	assert.Equal(t, 1, e.cpu.IR)
	assert.Equal(t, quantumPrueba-1, e.cpu.Rebanada)
	assert.Equal(t, 1, e.pcb.Metricas.InstruccionesSolicitadas)
	assert.Equal(t, []int{proceso.PaginaCodigo}, e.pcb.PaginasRecientes())

	_, err = e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, 1, e.cpu.MMU.Aciertos, "la segunda búsqueda del código pega en la TLB")
	assert.Equal(t, 1, e.pcb.Metricas.AccesosTablasPaginas)
}

func TestCPU_FalloEnCodigo(t *testing.T) {
	e := nuevoEntorno(t, []proceso.Instruccion{{ID: 1, Tipo: proceso.OpCompute}})
	require.NoError(t, e.mem.EscribirEntrada(e.pcb.BaseTabla, memoria.EntradaTabla{
		PaginaLogica: 1, Marco: memoria.MarcoAusente, Bloque: memoria.InicioAreaSwap + 1,
	}))

	intr, err := e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, &Interrupcion{Vector: VectorFalloPagina, Argumento: proceso.PaginaCodigo}, intr)
	assert.Equal(t, 1, e.cpu.PC, "el PC no avanza")
	assert.Equal(t, quantumPrueba, e.cpu.Rebanada, "el fallo no consume rebanada")
	assert.Equal(t, quantumPrueba, e.pcb.RebanadaPendiente)
}

func TestCPU_Store(t *testing.T) {
	dir := 3*memoria.TamPagina + 6
	e := nuevoEntorno(t, []proceso.Instruccion{{ID: 1, Tipo: proceso.OpStore, Argumento: dir}})

	intr, err := e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Nil(t, intr)

	valor, err := e.mem.LeerPalabra(21*memoria.TamPagina + 6)
	require.NoError(t, err)
	assert.Equal(t, ValorEscritura, valor)

	entrada, err := e.mem.LeerEntrada(e.pcb.BaseTabla, 3)
	require.NoError(t, err)
	assert.True(t, entrada.Modificada)
	assert.Equal(t, 1, e.pcb.Metricas.EscriturasMemoria)
	assert.Equal(t, []int{proceso.PaginaCodigo, 3}, e.pcb.PaginasRecientes())
}

func TestCPU_Load(t *testing.T) {
	dir := 3*memoria.TamPagina + 10
	e := nuevoEntorno(t, []proceso.Instruccion{{ID: 1, Tipo: proceso.OpLoad, Argumento: dir}})
	require.NoError(t, e.mem.EscribirPalabra(21*memoria.TamPagina+10, 0x1234))

	_, err := e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), e.cpu.Acumulador)
	assert.Equal(t, 1, e.pcb.Metricas.LecturasMemoria)

	entrada, err := e.mem.LeerEntrada(e.pcb.BaseTabla, 3)
	require.NoError(t, err)
	assert.False(t, entrada.Modificada)
}

func TestCPU_FalloEnDatosRebobina(t *testing.T) {
	e := nuevoEntorno(t, []proceso.Instruccion{
		{ID: 1, Tipo: proceso.OpCompute},
		{ID: 2, Tipo: proceso.OpLoad, Argumento: 2*memoria.TamPagina + 2},
	})

	_, err := e.cpu.Ejecutar()
	require.NoError(t, err)

	intr, err := e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, &Interrupcion{Vector: VectorFalloPagina, Argumento: proceso.PaginaPila}, intr)
	assert.Equal(t, 2, e.cpu.PC)
	assert.Equal(t, 1, e.cpu.IR)
	assert.Equal(t, quantumPrueba-1, e.pcb.RebanadaPendiente)
	assert.Equal(t, 1, e.pcb.Metricas.InstruccionesSolicitadas, "el fetch rebobinado no cuenta")

	pcb := e.cpu.ProtegerContexto()
	assert.Same(t, e.pcb, pcb)
	assert.Nil(t, e.cpu.Proceso)
	assert.Equal(t, 2, pcb.PC)

	e.cpu.RecuperarContexto(pcb)
	assert.Equal(t, quantumPrueba-1, e.cpu.Rebanada, "retoma la rebanada que le quedaba")
	assert.Zero(t, pcb.RebanadaPendiente)
	assert.Empty(t, e.cpu.MMU.TLB.Entradas())

	require.NoError(t, e.mem.EscribirEntrada(pcb.BaseTabla, memoria.EntradaTabla{
		PaginaLogica: proceso.PaginaPila, Marco: 22, Bloque: memoria.InicioAreaSwap + proceso.PaginaPila, Presente: true,
	}))
	intr, err = e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Nil(t, intr)
	assert.Equal(t, 2, pcb.Metricas.InstruccionesSolicitadas, "el reintento cuenta una sola vez")
	assert.Equal(t, 1, pcb.Metricas.LecturasMemoria)
}

func TestCPU_ControlYRecursos(t *testing.T) {
	e := nuevoEntorno(t, []proceso.Instruccion{
		{ID: 1, Tipo: proceso.OpApply, Argumento: 2},
		{ID: 2, Tipo: proceso.OpRelease, Argumento: 2},
		{ID: 3, Tipo: proceso.OpJump, Argumento: 5},
		{ID: 4, Tipo: proceso.OpCompute},
		{ID: 5, Tipo: proceso.OpSwitch},
	})

	intr, err := e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, &Interrupcion{Vector: VectorSolicitarRecurso, Argumento: 2}, intr)

	intr, err = e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, &Interrupcion{Vector: VectorLiberarRecurso, Argumento: 2}, intr)

	_, err = e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, 5, e.cpu.PC)
	assert.Equal(t, 1, e.cpu.Rebanada)

	_, err = e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, 0, e.cpu.Rebanada, "switch deja la rebanada en uno y la consume")
	assert.Equal(t, 6, e.cpu.PC)
	assert.True(t, e.cpu.PC > e.pcb.CantInstrucciones)
}

func TestCPU_Syscalls(t *testing.T) {
	e := nuevoEntorno(t, []proceso.Instruccion{
		{ID: 1, Tipo: proceso.OpSyscall, Argumento: proceso.SyscallCrear, Extra: "a.txt"},
		{ID: 2, Tipo: proceso.OpSyscall, Argumento: proceso.SyscallEntrada, Extra: "0 a.txt"},
		{ID: 3, Tipo: proceso.OpSyscall, Argumento: proceso.SyscallSalida, Extra: "1 a.txt"},
		{ID: 4, Tipo: proceso.OpSyscall, Argumento: proceso.SyscallCerrar, Extra: "a.txt"},
	})

	intr, err := e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, &Interrupcion{Vector: VectorCrearArchivo, Extra: "a.txt"}, intr)

	intr, err = e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, &Interrupcion{Vector: VectorEntrada, Argumento: 21, Extra: "0 a.txt"}, intr)

	intr, err = e.cpu.Ejecutar()
	require.NoError(t, err)
	assert.Equal(t, &Interrupcion{Vector: VectorFalloPagina, Argumento: 4}, intr, "la página de datos 1 no está cargada")
	assert.Equal(t, 3, e.cpu.PC)
}

func TestCPU_Errores(t *testing.T) {
	t.Run("DireccionFueraDelProceso", func(t *testing.T) {
		e := nuevoEntorno(t, []proceso.Instruccion{{ID: 1, Tipo: proceso.OpLoad, Argumento: 9 * memoria.TamPagina}})
		_, err := e.cpu.Ejecutar()
		assert.ErrorIs(t, err, ErrDireccionInvalida)
	})

	t.Run("SyscallDesconocida", func(t *testing.T) {
		e := nuevoEntorno(t, []proceso.Instruccion{{ID: 1, Tipo: proceso.OpSyscall, Argumento: 9}})
		_, err := e.cpu.Ejecutar()
		assert.ErrorIs(t, err, ErrSyscallInvalida)
	})

	t.Run("SinProceso", func(t *testing.T) {
		c := NuevaCPU(memoria.NuevaMemoriaFisica(), 8, quantumPrueba)
		_, err := c.Ejecutar()
		assert.ErrorIs(t, err, ErrSinProceso)
	})
}

func TestCPU_Ventana(t *testing.T) {
	c := NuevaCPU(memoria.NuevaMemoriaFisica(), 8, quantumPrueba)
	assert.False(t, c.PuedePlanificar())
	c.AbrirVentana()
	assert.True(t, c.PuedePlanificar())
	c.CerrarVentana()
	assert.False(t, c.PuedePlanificar())
}

func TestTLB(t *testing.T) {
	tlb := NuevaTLB(8)

	for pagina := 0; pagina < 8; pagina++ {
		tlb.Actualizar(pagina, 16+pagina)
	}
	marco, ok := tlb.Buscar(0)
	require.True(t, ok)
	assert.Equal(t, 16, marco)

	tlb.Actualizar(8, 30)
	assert.Len(t, tlb.Entradas(), 8, "nunca supera la capacidad")
	_, ok = tlb.Buscar(1)
	assert.False(t, ok, "se reemplaza la menos usada")
	_, ok = tlb.Buscar(0)
	assert.True(t, ok)

	tlb.Actualizar(0, 40)
	marco, _ = tlb.Buscar(0)
	assert.Equal(t, 40, marco, "actualizar pisa la traducción existente")
	assert.Len(t, tlb.Entradas(), 8)

	tlb.Quitar(8)
	_, ok = tlb.Buscar(8)
	assert.False(t, ok)
	assert.Len(t, tlb.Entradas(), 7)

	entradas := tlb.Entradas()
	assert.Equal(t, 0, entradas[len(entradas)-1].Pagina, "la última es la más reciente")

	tlb.Limpiar()
	assert.Empty(t, tlb.Entradas())
	assert.Equal(t, 8, tlb.Capacidad())
}

func TestNombreVector(t *testing.T) {
	assert.Equal(t, "FALLO_PAGINA", NombreVector(VectorFalloPagina))
	assert.Equal(t, "VECTOR(42)", NombreVector(42))
}
