package kernel

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrazaMemoria_Circular(t *testing.T) {
	traza := NuevaTrazaMemoria(3, nil)
	for i := 1; i <= 5; i++ {
		traza.Registrar(Evento{Tick: i, Tipo: EventoDespacho, PID: i})
	}

	eventos := traza.Eventos()
	assert.Len(t, eventos, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{eventos[0].Tick, eventos[1].Tick, eventos[2].Tick})
}

func TestTrazaMemoria_Filtrar(t *testing.T) {
	traza := NuevaTrazaMemoria(10, nil)
	traza.Registrar(Evento{Tick: 0, Tipo: EventoCreacion, PID: 1})
	traza.Registrar(Evento{Tick: 0, Tipo: EventoDespacho, PID: 1})
	traza.Registrar(Evento{Tick: 1, Tipo: EventoCreacion, PID: 2})

	creaciones := traza.Filtrar(EventoCreacion)
	assert.Len(t, creaciones, 2)
	assert.Equal(t, 2, creaciones[1].PID)
	assert.Empty(t, traza.Filtrar(EventoError))
}

func TestTrazaMemoria_Reenvia(t *testing.T) {
	var salida bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&salida, &slog.HandlerOptions{Level: slog.LevelDebug}))
	traza := NuevaTrazaMemoria(0, TrazaLog{Logger: logger})

	traza.Registrar(Evento{Tick: 7, Tipo: EventoFallo, PID: 3, Detalle: "página 4"})
	traza.Registrar(Evento{Tick: 8, Tipo: EventoDesbloqueo, PID: 3})

	assert.Len(t, traza.Eventos(), 1, "la capacidad mínima es uno")
	assert.Contains(t, salida.String(), "tipo=FALLO_PAGINA")
	assert.Contains(t, salida.String(), "tipo=DESBLOQUEO")
}

func TestParametros_Completar(t *testing.T) {
	p := Parametros{Quantum: 2, Recursos: []int{3}}.completar()
	assert.Equal(t, 2, p.Quantum)
	assert.Equal(t, []int{3}, p.Recursos)
	assert.Equal(t, ParametrosPorDefecto().MaxProcesos, p.MaxProcesos)
	assert.Equal(t, ParametrosPorDefecto().TiempoES, p.TiempoES)
	assert.NoError(t, p.Validar())

	assert.ErrorIs(t, Parametros{Quantum: -1}.completar().Validar(), ErrParametroInvalido)
	assert.ErrorIs(t, Parametros{UmbralMaxMarcos: 40}.completar().Validar(), ErrParametroInvalido)
	assert.ErrorIs(t, Parametros{CapacidadTLB: -2}.completar().Validar(), ErrParametroInvalido)
}
