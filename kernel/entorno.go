package kernel

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/simulador-nucleo/archivos"
	"github.com/sisoputnfrba/simulador-nucleo/disco"
	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/reloj"
	"github.com/sisoputnfrba/simulador-nucleo/utils"
)

// Parametros son las constantes de planificación. Los tiempos están en ticks.
type Parametros struct {
	Quantum         int
	MaxProcesos     int
	UmbralMinMarcos int
	UmbralMaxMarcos int
	CicloDeteccion  int
	CicloTrabajos   int
	TiempoFallo     int
	TiempoES        int
	TiempoArchivo   int
	CapacidadTLB    int
	Recursos        []int
	CapacidadTraza  int
}

func ParametrosPorDefecto() Parametros {
	return Parametros{
		Quantum:         4,
		MaxProcesos:     14,
		UmbralMinMarcos: 6,
		UmbralMaxMarcos: 12,
		CicloDeteccion:  3,
		CicloTrabajos:   5,
		TiempoFallo:     1,
		TiempoES:        4,
		TiempoArchivo:   3,
		CapacidadTLB:    8,
		Recursos:        []int{1, 1, 2},
		CapacidadTraza:  256,
	}
}

// completar reemplaza los valores en cero por los de ParametrosPorDefecto
func (p Parametros) completar() Parametros {
	d := ParametrosPorDefecto()
	enteros := []struct {
		valor      *int
		porDefecto int
	}{
		{&p.Quantum, d.Quantum},
		{&p.MaxProcesos, d.MaxProcesos},
		{&p.UmbralMinMarcos, d.UmbralMinMarcos},
		{&p.UmbralMaxMarcos, d.UmbralMaxMarcos},
		{&p.CicloDeteccion, d.CicloDeteccion},
		{&p.CicloTrabajos, d.CicloTrabajos},
		{&p.TiempoFallo, d.TiempoFallo},
		{&p.TiempoES, d.TiempoES},
		{&p.TiempoArchivo, d.TiempoArchivo},
		{&p.CapacidadTLB, d.CapacidadTLB},
		{&p.CapacidadTraza, d.CapacidadTraza},
	}
	for _, e := range enteros {
		if *e.valor == 0 {
			*e.valor = e.porDefecto
		}
	}
	if len(p.Recursos) == 0 {
		p.Recursos = d.Recursos
	}
	p.Recursos = append([]int(nil), p.Recursos...)
	return p
}

// Validar controla que los parámetros entren en la memoria simulada
func (p Parametros) Validar() error {
	switch {
	case p.Quantum < 1:
		return fmt.Errorf("%w: quantum %d", ErrParametroInvalido, p.Quantum)
	case p.MaxProcesos < 1 || p.MaxProcesos > memoria.PaginasPoolPCB:
		return fmt.Errorf("%w: máximo de procesos %d (el pool tiene %d lugares)", ErrParametroInvalido, p.MaxProcesos, memoria.PaginasPoolPCB)
	case p.UmbralMinMarcos < 0 || p.UmbralMinMarcos > p.UmbralMaxMarcos || p.UmbralMaxMarcos > memoria.PaginasUsuario:
		return fmt.Errorf("%w: umbrales de marcos %d/%d", ErrParametroInvalido, p.UmbralMinMarcos, p.UmbralMaxMarcos)
	case p.CicloDeteccion < 1 || p.CicloTrabajos < 1:
		return fmt.Errorf("%w: ciclos %d/%d", ErrParametroInvalido, p.CicloDeteccion, p.CicloTrabajos)
	case p.TiempoFallo < 0 || p.TiempoES < 0 || p.TiempoArchivo < 0:
		return fmt.Errorf("%w: tiempos de servicio negativos", ErrParametroInvalido)
	case p.CapacidadTLB < 1:
		return fmt.Errorf("%w: capacidad de TLB %d", ErrParametroInvalido, p.CapacidadTLB)
	}
	for t, total := range p.Recursos {
		if total < 1 {
			return fmt.Errorf("%w: recurso %d con %d unidades", ErrParametroInvalido, t, total)
		}
	}
	return nil
}

// Entorno reúne los colaboradores del núcleo. Los campos en nil se completan con
// implementaciones en memoria; sin Traza se guardan los últimos CapacidadTraza eventos y se
// pasan al logger. Semilla alimenta el generador de trabajos; en cero se toma la hora.
type Entorno struct {
	Memoria     *memoria.MemoriaFisica
	Dispositivo disco.Dispositivo
	Archivos    archivos.SistemaArchivos
	Traza       Traza
	Logger      *slog.Logger
	Reloj       *reloj.Reloj
	Parametros  Parametros
	DirDump     string
	Semilla     int64
}

func (e Entorno) completar() Entorno {
	if e.Logger == nil {
		e.Logger = utils.InfoLog
	}
	if e.Memoria == nil {
		e.Memoria = memoria.NuevaMemoriaFisica()
	}
	if e.Dispositivo == nil {
		e.Dispositivo = disco.NuevoSwapMemoria()
	}
	if e.Archivos == nil {
		e.Archivos = archivos.NuevoEnMemoria(e.Memoria)
	}
	if e.Reloj == nil {
		e.Reloj = reloj.NuevoReloj()
	}
	if e.DirDump == "" {
		e.DirDump = "."
	}
	e.Parametros = e.Parametros.completar()
	if e.Traza == nil {
		e.Traza = NuevaTrazaMemoria(e.Parametros.CapacidadTraza, TrazaLog{Logger: e.Logger})
	}
	return e
}
