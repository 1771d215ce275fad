package main

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/simulador-nucleo/utils"
)

func TestDireccion(t *testing.T) {
	ip, puerto, err := direccion("127.0.0.1:8100")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)
	assert.Equal(t, 8100, puerto)

	_, _, err = direccion("127.0.0.1")
	assert.Error(t, err)
	_, _, err = direccion("127.0.0.1:abc")
	assert.Error(t, err)
}

func TestLeerTrabajo(t *testing.T) {
	dir := t.TempDir()
	valido := filepath.Join(dir, "trabajo.json")
	require.NoError(t, os.WriteFile(valido, []byte(
		`{"id":3,"prioridad":2,"paginas":4,"instrucciones":[{"id":1,"tipo":1},{"id":2,"tipo":6,"argumento":1,"extra":"apply 1"}]}`), 0644))

	tr, err := leerTrabajo(valido)
	require.NoError(t, err)
	assert.Equal(t, 3, tr.ID)
	assert.Equal(t, 2, tr.CantInstrucciones)

	invalido := filepath.Join(dir, "invalido.json")
	require.NoError(t, os.WriteFile(invalido, []byte(`{"id":4,"prioridad":9,"paginas":4,"instrucciones":[{"id":1,"tipo":1}]}`), 0644))
	_, err = leerTrabajo(invalido)
	assert.Error(t, err)
}

func TestEjecutar(t *testing.T) {
	recibidos := make(chan *utils.Mensaje, 1)
	modulo := utils.NuevoModulo("Prueba", "")
	responder := func(msg *utils.Mensaje) (interface{}, error) {
		recibidos <- msg
		return map[string]interface{}{"status": "OK"}, nil
	}
	for _, tipo := range []int{utils.MensajeEstado, utils.MensajeTrabajo, utils.MensajeFinalizarProceso,
		utils.MensajeMemoryDump, utils.MensajePausar, utils.MensajeTraza} {
		modulo.RegistrarHandler(tipo, "default", responder)
	}
	servidor := httptest.NewServer(modulo.ArmarServidor("127.0.0.1", 0).Handler())
	t.Cleanup(servidor.Close)
	c := utils.NewHTTPClientURL(servidor.URL, "Prueba")

	casos := []struct {
		comando   string
		args      []string
		tipo      int
		operacion string
		clave     string
		valor     interface{}
	}{
		{"estado", nil, utils.MensajeEstado, "", "", nil},
		{"estado", []string{"4"}, utils.MensajeEstado, "proceso", "pid", float64(4)},
		{"finalizar", []string{"2"}, utils.MensajeFinalizarProceso, "", "pid", float64(2)},
		{"dump", []string{"5"}, utils.MensajeMemoryDump, "", "pid", float64(5)},
		{"trabajo", []string{"aleatorio", "3"}, utils.MensajeTrabajo, "aleatorio", "cantidad", float64(3)},
		{"trabajos", []string{"lista.csv"}, utils.MensajeTrabajo, "archivo", "ruta", "lista.csv"},
		{"traza", []string{"creacion"}, utils.MensajeTraza, "", "tipo", "CREACION"},
		{"pausar", nil, utils.MensajePausar, "", "", nil},
	}
	for _, caso := range casos {
		t.Run(caso.comando, func(t *testing.T) {
			resp, err := ejecutar(c, caso.comando, caso.args)
			require.NoError(t, err)
			assert.Equal(t, map[string]interface{}{"status": "OK"}, resp)

			recibido := <-recibidos
			assert.Equal(t, caso.tipo, recibido.Tipo)
			assert.Equal(t, caso.operacion, recibido.Operacion)
			if caso.clave != "" {
				datos, ok := recibido.Datos.(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, caso.valor, datos[caso.clave])
			}
		})
	}

	_, err := ejecutar(c, "desconocido", nil)
	assert.ErrorContains(t, err, "comando desconocido")
	_, err = ejecutar(c, "finalizar", []string{"x"})
	assert.Error(t, err)
	_, err = ejecutar(c, "trabajo", nil)
	assert.Error(t, err)
}
