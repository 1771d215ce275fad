package kernel

import (
	"log/slog"
	"sync"
)

// Tipos de evento de la traza
const (
	EventoCreacion     = "CREACION"
	EventoDespacho     = "DESPACHO"
	EventoExpropiacion = "EXPROPIACION"
	EventoFallo        = "FALLO_PAGINA"
	EventoReemplazo    = "REEMPLAZO"
	EventoBloqueo      = "BLOQUEO"
	EventoDesbloqueo   = "DESBLOQUEO"
	EventoSuspension   = "SUSPENSION"
	EventoReanudacion  = "REANUDACION"
	EventoRecurso      = "RECURSO"
	EventoInterbloqueo = "INTERBLOQUEO"
	EventoES           = "E/S"
	EventoTrabajo      = "TRABAJO"
	EventoFinalizacion = "FINALIZACION"
	EventoError        = "ERROR"
)

// Evento es lo que el núcleo informa al tablero
type Evento struct {
	Tick    int    `json:"tick"`
	Tipo    string `json:"tipo"`
	PID     int    `json:"pid"`
	Detalle string `json:"detalle"`
}

// Traza recibe los eventos del núcleo. Registrar no puede bloquear ni fallar.
type Traza interface {
	Registrar(e Evento)
}

// TrazaLog escribe cada evento en el logger
type TrazaLog struct {
	Logger *slog.Logger
}

func (t TrazaLog) Registrar(e Evento) {
	t.Logger.Debug("Evento", "tick", e.Tick, "tipo", e.Tipo, "pid", e.PID, "detalle", e.Detalle)
}

// TrazaMemoria guarda los últimos eventos en un buffer circular
type TrazaMemoria struct {
	mu        sync.Mutex
	eventos   []Evento
	inicio    int
	cantidad  int
	siguiente Traza
}

// NuevaTrazaMemoria guarda hasta capacidad eventos y reenvía cada uno a siguiente si no es nil
func NuevaTrazaMemoria(capacidad int, siguiente Traza) *TrazaMemoria {
	if capacidad <= 0 {
		capacidad = 1
	}
	return &TrazaMemoria{eventos: make([]Evento, capacidad), siguiente: siguiente}
}

func (t *TrazaMemoria) Registrar(e Evento) {
	t.mu.Lock()
	pos := (t.inicio + t.cantidad) % len(t.eventos)
	t.eventos[pos] = e
	if t.cantidad < len(t.eventos) {
		t.cantidad++
	} else {
		t.inicio = (t.inicio + 1) % len(t.eventos)
	}
	t.mu.Unlock()

	if t.siguiente != nil {
		t.siguiente.Registrar(e)
	}
}

// Eventos devuelve los eventos guardados, del más viejo al más nuevo
func (t *TrazaMemoria) Eventos() []Evento {
	t.mu.Lock()
	defer t.mu.Unlock()

	eventos := make([]Evento, t.cantidad)
	for i := range eventos {
		eventos[i] = t.eventos[(t.inicio+i)%len(t.eventos)]
	}
	return eventos
}

// Filtrar devuelve los eventos guardados del tipo indicado
func (t *TrazaMemoria) Filtrar(tipo string) []Evento {
	var filtrados []Evento
	for _, e := range t.Eventos() {
		if e.Tipo == tipo {
			filtrados = append(filtrados, e)
		}
	}
	return filtrados
}
