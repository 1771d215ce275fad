package kernel

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

func escribir(t *testing.T, dir, nombre, contenido string) string {
	t.Helper()
	ruta := filepath.Join(dir, nombre)
	require.NoError(t, os.WriteFile(ruta, []byte(contenido), 0644))
	return ruta
}

func TestTrabajo_Validar(t *testing.T) {
	valido := func() Trabajo {
		tr := trabajo(1, 3, 4, computos(2)...)
		tr.CantInstrucciones = 2
		return tr
	}
	require.NoError(t, valido().Validar(3))

	tests := []struct {
		nombre    string
		modificar func(*Trabajo)
	}{
		{"prioridad cero", func(tr *Trabajo) { tr.Prioridad = 0 }},
		{"prioridad seis", func(tr *Trabajo) { tr.Prioridad = 6 }},
		{"sin instrucciones", func(tr *Trabajo) { tr.Instrucciones = nil }},
		{"cantidad que no coincide", func(tr *Trabajo) { tr.CantInstrucciones = 3 }},
		{"pocas páginas", func(tr *Trabajo) { tr.Paginas = 2 }},
		{"demasiadas páginas", func(tr *Trabajo) { tr.Paginas = 17 }},
		{"llegada negativa", func(tr *Trabajo) { tr.Llegada = -1 }},
		{"recurso inexistente", func(tr *Trabajo) { tr.Instrucciones[1] = op(proceso.OpApply, 3) }},
		{"acceso fuera de los datos", func(tr *Trabajo) { tr.Instrucciones[0] = op(proceso.OpLoad, 4*512) }},
	}
	for _, tt := range tests {
		t.Run(tt.nombre, func(t *testing.T) {
			tr := valido()
			tt.modificar(&tr)
			assert.ErrorIs(t, tr.Validar(3), ErrTrabajoInvalido)
		})
	}
}

func TestGenerarTrabajo(t *testing.T) {
	for semilla := int64(1); semilla <= 200; semilla++ {
		tr := GenerarTrabajo(rand.New(rand.NewSource(semilla)), int(semilla), 0, 3)
		require.NoError(t, tr.Validar(3), "semilla %d", semilla)
		require.GreaterOrEqual(t, tr.CantInstrucciones, 30)
		require.LessOrEqual(t, tr.CantInstrucciones, 60)
		require.GreaterOrEqual(t, tr.Paginas, proceso.InicioDatos+2)
		require.LessOrEqual(t, tr.Paginas, proceso.InicioDatos+10)

		abiertos := map[string]bool{}
		retenidos := map[int]bool{}
		for _, i := range tr.Instrucciones {
			switch {
			case i.Tipo == proceso.OpSyscall && i.Argumento == proceso.SyscallCrear:
				abiertos[i.Extra] = true
			case i.Tipo == proceso.OpSyscall && i.Argumento == proceso.SyscallCerrar:
				require.True(t, abiertos[i.Extra], "semilla %d cierra %s sin crearlo", semilla, i.Extra)
				delete(abiertos, i.Extra)
			case i.Tipo == proceso.OpSyscall:
				_, ruta, err := proceso.ParametrosES(i.Extra)
				require.NoError(t, err)
				require.True(t, abiertos[ruta], "semilla %d usa %s sin crearlo", semilla, ruta)
			case i.Tipo == proceso.OpApply:
				require.False(t, retenidos[i.Argumento])
				retenidos[i.Argumento] = true
			case i.Tipo == proceso.OpRelease:
				require.True(t, retenidos[i.Argumento], "semilla %d libera %d sin pedirlo", semilla, i.Argumento)
				delete(retenidos, i.Argumento)
			case i.Tipo == proceso.OpJump:
				require.Equal(t, i.ID+1, i.Argumento)
			}
		}
		require.Empty(t, abiertos, "semilla %d", semilla)
		require.Empty(t, retenidos, "semilla %d", semilla)
	}
}

func TestGenerarTrabajo_Determinista(t *testing.T) {
	a := GenerarTrabajo(rand.New(rand.NewSource(42)), 5, 10, 3)
	b := GenerarTrabajo(rand.New(rand.NewSource(42)), 5, 10, 3)
	assert.Equal(t, a, b)
	assert.Equal(t, 5, a.ID)
	assert.Equal(t, 10, a.Llegada)
}

func TestSolicitarTrabajo_TomaElSiguienteID(t *testing.T) {
	pr := nuevaPrueba(t, Parametros{})
	require.NoError(t, pr.k.SometerTrabajo(trabajo(8, 1, 4, computos(2)...)))

	pr.k.SolicitarTrabajo()
	pr.k.SolicitarTrabajo()
	assert.Equal(t, []int{8, 9, 10}, pr.k.Instantanea().Pendientes)
	assert.Len(t, pr.traza.Filtrar(EventoTrabajo), 3)
}

func TestCargarTrabajos(t *testing.T) {
	dir := t.TempDir()
	lista := escribir(t, dir, "trabajos.csv", "id,prioridad,llegada,instrucciones,paginas\n"+
		"1, 2, 0, 3, 5\n"+
		"2, 4, 12, 2, 3\n")
	escribir(t, dir, "1.txt", "id,tipo,argumento,extra\n"+
		"1,0,0,/home/a\n"+
		"2,0,1,0 /home/a\n"+
		"3,6,2,apply 2\n"+
		"4,1,0,sobra\n")
	escribir(t, dir, "2.txt", "id,tipo,argumento,extra\n1,1,0,.\n2,5,3,.\n")

	trabajos, err := CargarTrabajos(lista)
	require.NoError(t, err)
	require.Len(t, trabajos, 2)

	assert.Equal(t, Trabajo{
		ID: 1, Prioridad: 2, Llegada: 0, CantInstrucciones: 3, Paginas: 5,
		Instrucciones: []proceso.Instruccion{
			{ID: 1, Tipo: proceso.OpSyscall, Argumento: proceso.SyscallCrear, Extra: "/home/a"},
			{ID: 2, Tipo: proceso.OpSyscall, Argumento: proceso.SyscallEntrada, Extra: "0 /home/a"},
			{ID: 3, Tipo: proceso.OpApply, Argumento: 2, Extra: "apply 2"},
		},
	}, trabajos[0])
	assert.Equal(t, 12, trabajos[1].Llegada)
	assert.Equal(t, proceso.OpJump, trabajos[1].Instrucciones[1].Tipo)

	pr := nuevaPrueba(t, Parametros{})
	for _, tr := range trabajos {
		require.NoError(t, pr.k.SometerTrabajo(tr))
	}
	assert.Equal(t, []int{1, 2}, pr.k.Instantanea().Pendientes)
}

func TestLeerTrabajos_Errores(t *testing.T) {
	dir := t.TempDir()

	_, err := LeerTrabajos(filepath.Join(dir, "no-existe.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LeerTrabajos(escribir(t, dir, "vacio.csv", ""))
	assert.ErrorIs(t, err, ErrTrabajoInvalido)

	_, err = LeerTrabajos(escribir(t, dir, "letras.csv", "id,prioridad,llegada,instrucciones,paginas\n1,dos,0,3,5\n"))
	assert.ErrorIs(t, err, ErrTrabajoInvalido)

	_, err = LeerTrabajos(escribir(t, dir, "campos.csv", "id,prioridad,llegada,instrucciones,paginas\n1,2,0\n"))
	assert.Error(t, err)

	lista := escribir(t, dir, "cortos.csv", "id,prioridad,llegada,instrucciones,paginas\n7,1,0,3,4\n")
	escribir(t, dir, "7.txt", "id,tipo,argumento,extra\n1,1,0,.\n")
	_, err = CargarTrabajos(lista)
	assert.ErrorIs(t, err, ErrTrabajoInvalido)
}
