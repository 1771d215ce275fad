package main

import (
	"encoding/json"
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/kernel"
	"github.com/sisoputnfrba/simulador-nucleo/utils"
)

var nucleo *kernel.Kernel

func registrarHandlers(m *utils.Modulo) {
	m.RegistrarHandler(utils.MensajeHandshake, "default", handlerHandshake)
	m.RegistrarHandler(utils.MensajeEstado, "default", handlerEstado)
	m.RegistrarHandler(utils.MensajeEstado, "proceso", handlerEstadoProceso)
	m.RegistrarHandler(utils.MensajeVolcado, "default", handlerVolcado)
	m.RegistrarHandler(utils.MensajeMemoryDump, "default", handlerMemoryDump)
	m.RegistrarHandler(utils.MensajeTraza, "default", handlerTraza)
	m.RegistrarHandler(utils.MensajeTrabajo, "default", handlerTrabajo)
	m.RegistrarHandler(utils.MensajeTrabajo, "aleatorio", handlerTrabajoAleatorio)
	m.RegistrarHandler(utils.MensajeTrabajo, "archivo", handlerTrabajosArchivo)
	m.RegistrarHandler(utils.MensajeFinalizarProceso, "default", handlerFinalizarProceso)
	m.RegistrarHandler(utils.MensajePausar, "default", handlerPausar)
	m.RegistrarHandler(utils.MensajeReanudar, "default", handlerReanudar)

	utils.InfoLog.Info("Handlers registrados correctamente")
}

func handlerHandshake(msg *utils.Mensaje) (interface{}, error) {
	utils.InfoLog.Info("Handshake recibido", "origen", msg.Origen)
	return map[string]interface{}{"status": "OK", "tick": nucleo.Ahora()}, nil
}

func handlerEstado(msg *utils.Mensaje) (interface{}, error) {
	return nucleo.Instantanea(), nil
}

func handlerEstadoProceso(msg *utils.Mensaje) (interface{}, error) {
	pid := utils.ExtraerEntero(msg, "pid", -1)
	estado, ok := nucleo.Proceso(pid)
	if !ok {
		return nil, fmt.Errorf("%w: %d", kernel.ErrProcesoInexistente, pid)
	}
	return estado, nil
}

func handlerVolcado(msg *utils.Mensaje) (interface{}, error) {
	return map[string]interface{}{"status": "OK", "volcado": nucleo.Volcar()}, nil
}

func handlerMemoryDump(msg *utils.Mensaje) (interface{}, error) {
	pid := utils.ExtraerEntero(msg, "pid", -1)
	ruta, err := nucleo.VolcarMemoria(pid)
	if err != nil {
		utils.ErrorLog.Error("Error en memory dump", "pid", pid, "error", err)
		return nil, err
	}
	return map[string]interface{}{"status": "OK", "archivo": ruta}, nil
}

// handlerTraza devuelve los últimos eventos, opcionalmente sólo los de un tipo
func handlerTraza(msg *utils.Mensaje) (interface{}, error) {
	tipo := utils.ExtraerTexto(msg, "tipo", "")
	eventos := nucleo.Eventos()
	if tipo == "" {
		return eventos, nil
	}

	filtrados := []kernel.Evento{}
	for _, e := range eventos {
		if e.Tipo == tipo {
			filtrados = append(filtrados, e)
		}
	}
	return filtrados, nil
}

// handlerTrabajo somete el trabajo que viene en los datos del mensaje
func handlerTrabajo(msg *utils.Mensaje) (interface{}, error) {
	crudo, err := json.Marshal(msg.Datos)
	if err != nil {
		return nil, fmt.Errorf("datos de trabajo inválidos: %w", err)
	}
	var t kernel.Trabajo
	if err := json.Unmarshal(crudo, &t); err != nil {
		return nil, fmt.Errorf("datos de trabajo inválidos: %w", err)
	}

	if err := nucleo.SometerTrabajo(t); err != nil {
		utils.ErrorLog.Error("Trabajo rechazado", "id", t.ID, "origen", msg.Origen, "error", err)
		return nil, err
	}
	return map[string]interface{}{"status": "OK", "id": t.ID}, nil
}

func handlerTrabajoAleatorio(msg *utils.Mensaje) (interface{}, error) {
	cantidad := utils.ExtraerEntero(msg, "cantidad", 1)
	for i := 0; i < cantidad; i++ {
		nucleo.SolicitarTrabajo()
	}
	return map[string]interface{}{"status": "OK", "pendientes": nucleo.Instantanea().Pendientes}, nil
}

func handlerTrabajosArchivo(msg *utils.Mensaje) (interface{}, error) {
	ruta := utils.ExtraerTexto(msg, "ruta", "")
	cantidad, err := cargarTrabajos(ruta)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "OK", "cargados": cantidad}, nil
}

// cargarTrabajos somete todos los trabajos de una lista. Devuelve cuántos entraron.
func cargarTrabajos(ruta string) (int, error) {
	trabajos, err := kernel.CargarTrabajos(ruta)
	if err != nil {
		return 0, err
	}
	for _, t := range trabajos {
		if err := nucleo.SometerTrabajo(t); err != nil {
			return 0, fmt.Errorf("trabajo %d de %s: %w", t.ID, ruta, err)
		}
	}
	utils.InfoLog.Info("Trabajos cargados", "archivo", ruta, "cantidad", len(trabajos))
	return len(trabajos), nil
}

func handlerFinalizarProceso(msg *utils.Mensaje) (interface{}, error) {
	pid := utils.ExtraerEntero(msg, "pid", -1)
	if err := nucleo.Finalizar(pid); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "OK", "pid": pid}, nil
}

func handlerPausar(msg *utils.Mensaje) (interface{}, error) {
	nucleo.Pausar()
	return map[string]interface{}{"status": "OK", "tick": nucleo.Ahora()}, nil
}

func handlerReanudar(msg *utils.Mensaje) (interface{}, error) {
	nucleo.Reanudar()
	return map[string]interface{}{"status": "OK", "tick": nucleo.Ahora()}, nil
}
