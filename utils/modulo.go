package utils

import (
	"context"
	"fmt"
	"log/slog"
)

// Modulo representa un módulo genérico del sistema
type Modulo struct {
	Nombre      string
	Server      *HTTPServer
	Clientes    map[string]*HTTPClient
	ConfigPath  string
	HandlerFunc map[int]map[string]HTTPHandlerFunc
	errores     chan error
}

// NuevoModulo crea una nueva instancia de un módulo
func NuevoModulo(nombre string, configPath string) *Modulo {
	return &Modulo{
		Nombre:      nombre,
		Clientes:    make(map[string]*HTTPClient),
		ConfigPath:  configPath,
		HandlerFunc: make(map[int]map[string]HTTPHandlerFunc),
		errores:     make(chan error, 1),
	}
}

// RegistrarHandler registra un handler para un tipo de mensaje y operación específicos.
// La operación "default" atiende las operaciones sin handler propio.
func (m *Modulo) RegistrarHandler(tipo int, operacion string, handler HTTPHandlerFunc) {
	if _, existe := m.HandlerFunc[tipo]; !existe {
		m.HandlerFunc[tipo] = make(map[string]HTTPHandlerFunc)
	}
	m.HandlerFunc[tipo][operacion] = handler
}

// ArmarServidor crea el servidor HTTP del módulo con todos los handlers registrados
func (m *Modulo) ArmarServidor(ip string, puerto int) *HTTPServer {
	m.Server = NewHTTPServer(ip, puerto, m.Nombre)

	for tipo, handlersPorOperacion := range m.HandlerFunc {
		tipo, handlersPorOperacion := tipo, handlersPorOperacion
		m.Server.RegisterHTTPHandler(tipo, func(msg *Mensaje) (interface{}, error) {
			operacion := msg.Operacion
			if operacion == "" {
				operacion = "default"
			}

			handler, existe := handlersPorOperacion[operacion]
			if !existe {
				handler, existe = handlersPorOperacion["default"]
				if !existe {
					slog.Error("No hay handler para operación", "tipo", tipo, "operacion", operacion)
					return nil, fmt.Errorf("no hay handler para operación %s", operacion)
				}
			}

			return handler(msg)
		})
	}
	return m.Server
}

// IniciarServidor arma el servidor y lo pone a escuchar en segundo plano. Un error al
// escuchar queda disponible en Errores.
func (m *Modulo) IniciarServidor(ip string, puerto int) {
	servidor := m.ArmarServidor(ip, puerto)

	go func() {
		if err := servidor.Start(); err != nil {
			slog.Error("Error al iniciar servidor HTTP", "error", err)
			m.errores <- err
		}
	}()

	slog.Info("Servidor HTTP iniciado", "módulo", m.Nombre, "dirección", fmt.Sprintf("%s:%d", ip, puerto))
}

// Errores devuelve el canal por el que se informa la caída del servidor
func (m *Modulo) Errores() <-chan error {
	return m.errores
}

// Detener apaga el servidor del módulo
func (m *Modulo) Detener(ctx context.Context) error {
	if m.Server == nil {
		return nil
	}
	return m.Server.Shutdown(ctx)
}

// Tipos de mensajes que entiende el simulador
const (
	// === COMUNICACIÓN BÁSICA (1-9) ===
	MensajeHandshake = 1 // Conexión inicial

	// === CONSULTAS (10-19) ===
	MensajeEstado     = 10 // Instantánea del núcleo
	MensajeVolcado    = 11 // Volcado de estado para depuración
	MensajeMemoryDump = 12 // Volcado de memoria de un proceso
	MensajeTraza      = 13 // Últimos eventos de la traza

	// === GESTIÓN DE PROCESOS (20-29) ===
	MensajeTrabajo          = 20 // Someter un trabajo
	MensajeFinalizarProceso = 21 // Cancelar un proceso

	// === RELOJ (30-39) ===
	MensajePausar   = 30 // Pausar el reloj
	MensajeReanudar = 31 // Reanudar el reloj
)
