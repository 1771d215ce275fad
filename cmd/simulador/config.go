package main

import (
	"time"

	"github.com/sisoputnfrba/simulador-nucleo/kernel"
)

// SimuladorConfig representa la configuración del simulador. Los parámetros en cero toman
// el valor por defecto del núcleo.
type SimuladorConfig struct {
	IPSimulador     string `json:"IP_SIMULADOR" yaml:"IP_SIMULADOR"`
	PuertoSimulador int    `json:"PUERTO_SIMULADOR" yaml:"PUERTO_SIMULADOR"`
	LogLevel        string `json:"LOG_LEVEL" yaml:"LOG_LEVEL"`
	LogFile         string `json:"LOG_FILE" yaml:"LOG_FILE"`
	RetardoTick     int    `json:"RETARDO_TICK" yaml:"RETARDO_TICK"`         // Milisegundos por tick
	SwapfilePath    string `json:"SWAPFILE_PATH" yaml:"SWAPFILE_PATH"`       // Vacío: swap en memoria
	RetardoSwap     int    `json:"RETARDO_SWAP" yaml:"RETARDO_SWAP"`         // Retardo de acceso a swap
	ArchivoTrabajos string `json:"ARCHIVO_TRABAJOS" yaml:"ARCHIVO_TRABAJOS"` // Lista de trabajos a cargar al iniciar
	DumpPath        string `json:"DUMP_PATH" yaml:"DUMP_PATH"`               // Ruta para los archivos de dump
	Semilla         int64  `json:"SEMILLA" yaml:"SEMILLA"`

	Quantum         int   `json:"QUANTUM" yaml:"QUANTUM"`
	MaxProcesos     int   `json:"MAX_PROCESOS" yaml:"MAX_PROCESOS"`
	UmbralMinMarcos int   `json:"UMBRAL_MIN_MARCOS" yaml:"UMBRAL_MIN_MARCOS"`
	UmbralMaxMarcos int   `json:"UMBRAL_MAX_MARCOS" yaml:"UMBRAL_MAX_MARCOS"`
	CicloDeteccion  int   `json:"CICLO_DETECCION" yaml:"CICLO_DETECCION"`
	CicloTrabajos   int   `json:"CICLO_TRABAJOS" yaml:"CICLO_TRABAJOS"`
	TiempoFallo     int   `json:"TIEMPO_FALLO" yaml:"TIEMPO_FALLO"`
	TiempoES        int   `json:"TIEMPO_ES" yaml:"TIEMPO_ES"`
	TiempoArchivo   int   `json:"TIEMPO_ARCHIVO" yaml:"TIEMPO_ARCHIVO"`
	CapacidadTLB    int   `json:"CAPACIDAD_TLB" yaml:"CAPACIDAD_TLB"`
	CapacidadTraza  int   `json:"CAPACIDAD_TRAZA" yaml:"CAPACIDAD_TRAZA"`
	Recursos        []int `json:"RECURSOS" yaml:"RECURSOS"`
}

var config *SimuladorConfig

// Parametros arma los parámetros del núcleo a partir de la configuración
func (c *SimuladorConfig) Parametros() kernel.Parametros {
	return kernel.Parametros{
		Quantum:         c.Quantum,
		MaxProcesos:     c.MaxProcesos,
		UmbralMinMarcos: c.UmbralMinMarcos,
		UmbralMaxMarcos: c.UmbralMaxMarcos,
		CicloDeteccion:  c.CicloDeteccion,
		CicloTrabajos:   c.CicloTrabajos,
		TiempoFallo:     c.TiempoFallo,
		TiempoES:        c.TiempoES,
		TiempoArchivo:   c.TiempoArchivo,
		CapacidadTLB:    c.CapacidadTLB,
		Recursos:        c.Recursos,
		CapacidadTraza:  c.CapacidadTraza,
	}
}

// Periodo es el tiempo real entre ticks. Sin retardo configurado se usan 100ms.
func (c *SimuladorConfig) Periodo() time.Duration {
	if c.RetardoTick <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.RetardoTick) * time.Millisecond
}
