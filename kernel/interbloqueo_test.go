package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterbloqueo_AsignarYLiberar(t *testing.T) {
	d := NuevoInterbloqueo([]int{1, 1, 2})

	require.NoError(t, d.Solicitar(1, 2))
	ok, err := d.IntentarAsignar(1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, d.Consistente())

	require.NoError(t, d.Solicitar(2, 2))
	ok, err = d.IntentarAsignar(2, 2)
	require.NoError(t, err)
	assert.True(t, ok, "C tiene dos unidades")

	require.NoError(t, d.Solicitar(3, 2))
	ok, err = d.IntentarAsignar(3, 2)
	require.NoError(t, err)
	assert.False(t, ok, "sin unidades el proceso se bloquea")
	assert.Equal(t, []int{1, 1, -1}, d.Estado().Semaforos, "A y B no se tocaron")
	require.NoError(t, d.Consistente())

	require.NoError(t, d.Liberar(1, 2))
	assert.True(t, d.IntentarReasignar(3, 2))
	assert.Equal(t, []int{0, 0, 1}, d.Asignados(3))
	assert.Equal(t, []int{0, 0, 0}, d.Solicitudes(3))
	require.NoError(t, d.Consistente())

	require.NoError(t, d.Liberar(2, 2))
	assert.False(t, d.IntentarReasignar(3, 2), "nadie espera")
	assert.Equal(t, []int{1, 1, 1}, d.Estado().Disponibles)
	require.NoError(t, d.Consistente())
}

func TestInterbloqueo_Errores(t *testing.T) {
	d := NuevoInterbloqueo([]int{1, 1, 2})

	assert.ErrorIs(t, d.Solicitar(1, 3), ErrRecursoInvalido)
	assert.ErrorIs(t, d.Liberar(1, -1), ErrRecursoInvalido)
	assert.ErrorIs(t, d.Liberar(1, 0), ErrRecursoNoAsignado)

	_, err := d.IntentarAsignar(1, 0)
	assert.ErrorIs(t, err, ErrSinSolicitud)
	require.NoError(t, d.Consistente())
}

func TestInterbloqueo_RetirarSolicitud(t *testing.T) {
	d := NuevoInterbloqueo([]int{1, 1, 2})
	require.NoError(t, d.Solicitar(1, 0))
	_, _ = d.IntentarAsignar(1, 0)
	require.NoError(t, d.Solicitar(2, 0))

	assert.True(t, d.RetirarSolicitud(2, 0))
	assert.False(t, d.RetirarSolicitud(2, 0))
	assert.Equal(t, 0, d.Estado().Semaforos[0])
	require.NoError(t, d.Consistente())

	d.Olvidar(2)
	assert.NotContains(t, d.Estado().Solicitudes, 2)
}

// abba arma el interbloqueo clásico: 1 tiene A y pide B, 2 tiene B y pide A
func abba(t *testing.T) *Interbloqueo {
	t.Helper()
	d := NuevoInterbloqueo([]int{1, 1, 2})
	for _, p := range []struct{ pid, tipo int }{{1, 0}, {2, 1}} {
		require.NoError(t, d.Solicitar(p.pid, p.tipo))
		ok, err := d.IntentarAsignar(p.pid, p.tipo)
		require.NoError(t, err)
		require.True(t, ok)
	}
	for _, p := range []struct{ pid, tipo int }{{1, 1}, {2, 0}} {
		require.NoError(t, d.Solicitar(p.pid, p.tipo))
		ok, err := d.IntentarAsignar(p.pid, p.tipo)
		require.NoError(t, err)
		require.False(t, ok)
	}
	return d
}

func TestInterbloqueo_Detectar(t *testing.T) {
	t.Run("SinCiclo", func(t *testing.T) {
		d := NuevoInterbloqueo([]int{1, 1, 2})
		require.NoError(t, d.Solicitar(1, 0))
		_, _ = d.IntentarAsignar(1, 0)
		require.NoError(t, d.Solicitar(2, 0))
		_, _ = d.IntentarAsignar(2, 0)
		assert.Empty(t, d.Detectar())
	})

	t.Run("ABBA", func(t *testing.T) {
		d := abba(t)
		assert.Equal(t, []int{1, 2}, d.Detectar())
		require.NoError(t, d.Consistente())
	})

	t.Run("CadenaQueSeResuelve", func(t *testing.T) {
		d := NuevoInterbloqueo([]int{1, 1, 2})
		// 1 tiene C y pide A, 2 tiene A y sólo retiene: 2 devuelve A y 1 puede avanzar
		require.NoError(t, d.Solicitar(2, 0))
		_, _ = d.IntentarAsignar(2, 0)
		require.NoError(t, d.Solicitar(1, 2))
		_, _ = d.IntentarAsignar(1, 2)
		require.NoError(t, d.Solicitar(1, 0))
		ok, _ := d.IntentarAsignar(1, 0)
		require.False(t, ok)

		assert.Empty(t, d.Detectar())
	})

	t.Run("QuienSoloEsperaNoCuenta", func(t *testing.T) {
		d := abba(t)
		require.NoError(t, d.Solicitar(3, 0))
		assert.Equal(t, []int{1, 2}, d.Detectar())
	})
}

func TestInterbloqueo_Recuperar(t *testing.T) {
	d := abba(t)

	transferencias := d.Recuperar(d.Detectar())
	assert.Equal(t, []Transferencia{{Tipo: 0, Desde: 1, Hacia: 2}}, transferencias)
	assert.Equal(t, []int{1, 1, 0}, d.Asignados(2), "el receptor tiene A y B")
	assert.Equal(t, []int{0, 0, 0}, d.Solicitudes(2))
	assert.Equal(t, []int{1, 1, 0}, d.Solicitudes(1), "la víctima vuelve a pedir A")
	assert.Equal(t, []int{-1, -1, 2}, d.Estado().Semaforos, "la expropiación no toca los semáforos")
	require.NoError(t, d.Consistente())
	assert.Empty(t, d.Detectar())

	assert.Nil(t, d.Recuperar([]int{1}))
}

func TestInterbloqueo_RecuperarSaltaVictimaSinReceptor(t *testing.T) {
	d := abba(t)
	// 3 tiene C y pide A. Nadie pide C, así que 3 no puede ceder nada.
	require.NoError(t, d.Solicitar(3, 2))
	ok, err := d.IntentarAsignar(3, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, d.Solicitar(3, 0))
	ok, err = d.IntentarAsignar(3, 0)
	require.NoError(t, err)
	require.False(t, ok)

	bloqueados := []int{3, 1, 2}
	require.ElementsMatch(t, bloqueados, d.Detectar())

	transferencias := d.Recuperar(bloqueados)
	assert.Equal(t, []Transferencia{{Tipo: 0, Desde: 1, Hacia: 3}}, transferencias)
	assert.Equal(t, []int{1, 0, 1}, d.Asignados(3))
	assert.Equal(t, []int{1, 1, 0}, d.Solicitudes(1))
	require.NoError(t, d.Consistente())
}
