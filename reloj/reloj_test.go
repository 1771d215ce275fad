package reloj

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReloj_EmpiezaEnMenosUno(t *testing.T) {
	r := NuevoReloj()
	assert.Equal(t, -1, r.Ahora())
	assert.Equal(t, 0, r.Avanzar())
	assert.Equal(t, 1, r.Avanzar())
	assert.Equal(t, 1, r.Ahora())
}

func TestReloj_Programar(t *testing.T) {
	r := NuevoReloj()
	var orden []string

	r.Programar(2, func() { orden = append(orden, "b") })
	r.Programar(1, func() { orden = append(orden, "a") })
	r.Programar(2, func() { orden = append(orden, "c") })
	assert.Equal(t, 3, r.Pendientes())

	r.Avanzar()
	assert.Empty(t, orden)

	r.Avanzar()
	assert.Equal(t, []string{"a"}, orden)

	r.Avanzar()
	assert.Equal(t, []string{"a", "b", "c"}, orden, "mismo tick en orden de programación")
	assert.Zero(t, r.Pendientes())
}

func TestReloj_TareaQueReprograma(t *testing.T) {
	r := NuevoReloj()
	r.Avanzar()

	var veces int
	var tarea func()
	tarea = func() {
		veces++
		if veces < 3 {
			r.Programar(r.Ahora()+1, tarea)
		}
	}
	r.Programar(1, tarea)

	for i := 0; i < 5; i++ {
		r.Avanzar()
	}
	assert.Equal(t, 3, veces)
}

func TestReloj_PlazoVencido(t *testing.T) {
	r := NuevoReloj()
	r.Avanzar()
	r.Avanzar()

	var corrio bool
	r.Programar(0, func() { corrio = true })
	r.Avanzar()
	assert.True(t, corrio)
}

func TestReloj_IniciarYPausar(t *testing.T) {
	r := NuevoReloj()
	var ticks atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	terminado := make(chan struct{})
	go func() {
		r.Iniciar(ctx, time.Millisecond, func() { ticks.Add(1) })
		close(terminado)
	}()

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	r.Pausar()
	assert.True(t, r.Pausado())
	time.Sleep(5 * time.Millisecond)
	pausado := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, pausado, ticks.Load())

	r.Reanudar()
	require.Eventually(t, func() bool { return ticks.Load() > pausado }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-terminado:
	case <-time.After(time.Second):
		t.Fatal("Iniciar no terminó al cancelar el contexto")
	}
}
