package proceso

import (
	"encoding/binary"
	"testing"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstruccion_Codificacion(t *testing.T) {
	original := Instruccion{ID: 12, Tipo: OpStore, Argumento: 1600, Extra: "se pierde"}

	var crudo [TamInstruccion]byte
	original.Escribir(crudo[:])
	assert.Equal(t, []byte{12, 0, 3, 0, 0x40, 0x06, 0, 0}, crudo[:])

	leida, err := DecodificarInstruccion(crudo[:])
	require.NoError(t, err)
	assert.Equal(t, Instruccion{ID: 12, Tipo: OpStore, Argumento: 1600}, leida)

	binary.LittleEndian.PutUint16(crudo[2:4], 9)
	_, err = DecodificarInstruccion(crudo[:])
	assert.ErrorIs(t, err, ErrInstruccionInvalida)

	_, err = DecodificarInstruccion(crudo[:4])
	assert.ErrorIs(t, err, ErrInstruccionInvalida)
}

func TestCodificarCodigo(t *testing.T) {
	instrucciones := []Instruccion{
		{ID: 1, Tipo: OpCompute},
		{ID: 2, Tipo: OpJump, Argumento: 1},
	}
	pagina, err := CodificarCodigo(instrucciones)
	require.NoError(t, err)
	require.Len(t, pagina, memoria.TamPagina)

	segunda, err := DecodificarInstruccion(pagina[TamInstruccion:])
	require.NoError(t, err)
	assert.Equal(t, instrucciones[1], segunda)

	_, err = CodificarCodigo(make([]Instruccion, MaxInstrucciones+1))
	assert.ErrorIs(t, err, ErrInstruccionInvalida)
}

func TestParametrosES(t *testing.T) {
	k, ruta, err := ParametrosES("2 datos.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, k)
	assert.Equal(t, "datos.txt", ruta)

	for _, extra := range []string{"", "datos.txt", "x datos.txt", "-1 a", "1 a b"} {
		_, _, err := ParametrosES(extra)
		assert.ErrorIs(t, err, ErrExtraInvalido, "extra %q", extra)
	}
}

func TestInstruccion_Validar(t *testing.T) {
	casos := []struct {
		nombre string
		instr  Instruccion
		err    error
	}{
		{"compute", Instruccion{Tipo: OpCompute}, nil},
		{"load en la pila", Instruccion{Tipo: OpLoad, Argumento: 2*memoria.TamPagina + 4}, nil},
		{"store fuera", Instruccion{Tipo: OpStore, Argumento: 5 * memoria.TamPagina}, ErrInstruccionInvalida},
		{"salto valido", Instruccion{Tipo: OpJump, Argumento: 3}, nil},
		{"salto al final", Instruccion{Tipo: OpJump, Argumento: 11}, nil},
		{"salto fuera", Instruccion{Tipo: OpJump, Argumento: 12}, ErrInstruccionInvalida},
		{"apply", Instruccion{Tipo: OpApply, Argumento: 2}, nil},
		{"recurso inexistente", Instruccion{Tipo: OpRelease, Argumento: 3}, ErrInstruccionInvalida},
		{"crear sin ruta", Instruccion{Tipo: OpSyscall, Argumento: SyscallCrear}, ErrExtraInvalido},
		{"entrada valida", Instruccion{Tipo: OpSyscall, Argumento: SyscallEntrada, Extra: "1 a.txt"}, nil},
		{"salida fuera de datos", Instruccion{Tipo: OpSyscall, Argumento: SyscallSalida, Extra: "2 a.txt"}, ErrExtraInvalido},
		{"syscall desconocida", Instruccion{Tipo: OpSyscall, Argumento: 7}, ErrInstruccionInvalida},
		{"tipo desconocido", Instruccion{Tipo: TipoOperacion(8)}, ErrInstruccionInvalida},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			err := c.instr.Validar(10, 5, 3)
			if c.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, c.err)
			}
		})
	}
}

func TestPCB(t *testing.T) {
	pcb := NuevoPCB(4, 2, 6, 10, []Instruccion{{ID: 1, Tipo: OpCompute}, {ID: 2, Tipo: OpSyscall, Extra: "a"}}, 3)

	t.Run("Inicial", func(t *testing.T) {
		assert.Equal(t, 1, pcb.PC)
		assert.Equal(t, 0, pcb.IR)
		assert.Equal(t, EstadoReady, pcb.Estado)
		assert.Equal(t, 2, pcb.CantInstrucciones)
		assert.Equal(t, 3, pcb.PaginasDatos())
		assert.Len(t, pcb.RecursosSuspendidos, 3)
		assert.False(t, pcb.Agotado())
	})

	t.Run("CambiarEstado", func(t *testing.T) {
		assert.Equal(t, EstadoReady, pcb.CambiarEstado(EstadoRunning))
		assert.Equal(t, EstadoRunning, pcb.Estado)
		assert.Equal(t, EstadoRunning, pcb.CambiarEstado(EstadoRunning))
	})

	t.Run("Extra", func(t *testing.T) {
		assert.Equal(t, "a", pcb.Extra(2))
		assert.Equal(t, "", pcb.Extra(0))
		assert.Equal(t, "", pcb.Extra(3))
	})

	t.Run("Agotado", func(t *testing.T) {
		pcb.PC = 3
		assert.True(t, pcb.Agotado())
		pcb.PC = 1
	})

	t.Run("PaginasRecientes", func(t *testing.T) {
		pcb.AccederPagina(1)
		pcb.AccederPagina(3)
		pcb.AccederPagina(2)
		pcb.AccederPagina(1)
		assert.Equal(t, []int{3, 2, 1}, pcb.PaginasRecientes())

		pcb.OlvidarPagina(2)
		assert.Equal(t, []int{3, 1}, pcb.PaginasRecientes())

		copia := pcb.PaginasRecientes()
		copia[0] = 99
		assert.Equal(t, []int{3, 1}, pcb.PaginasRecientes(), "devuelve una copia")

		pcb.OlvidarPaginas()
		assert.Empty(t, pcb.PaginasRecientes())
	})

	t.Run("PaginaPCB", func(t *testing.T) {
		pagina := pcb.CodificarPaginaPCB()
		require.Len(t, pagina, memoria.TamPagina)
		assert.Equal(t, []byte{4, 0, 2, 0, 2, 0, 10, 0}, pagina[:8])
	})
}

func TestTipoOperacion_String(t *testing.T) {
	assert.Equal(t, "LOAD", OpLoad.String())
	assert.Equal(t, "OP(12)", TipoOperacion(12).String())
}
