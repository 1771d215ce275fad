package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sisoputnfrba/simulador-nucleo/disco"
	"github.com/sisoputnfrba/simulador-nucleo/kernel"
	"github.com/sisoputnfrba/simulador-nucleo/utils"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Uso: %s <archivo_configuracion>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ejemplo: %s configs/simulador.yaml\n", os.Args[0])
		os.Exit(1)
	}
	rutaConfig := os.Args[1]

	config = utils.CargarConfiguracion[SimuladorConfig](rutaConfig)

	logger, err := utils.InicializarLogger(config.LogLevel, "simulador", config.LogFile)
	if err != nil {
		slog.Error("Error inicializando logger", "error", err)
		os.Exit(1)
	}
	logger.Info("Configuración cargada", "nivel_log", config.LogLevel, "config_path", rutaConfig)

	dispositivo, err := abrirSwap()
	if err != nil {
		utils.ErrorLog.Error("Error abriendo swap", "error", err)
		os.Exit(1)
	}
	defer dispositivo.Close()

	nucleo, err = kernel.NuevoKernel(kernel.Entorno{
		Dispositivo: dispositivo,
		Logger:      logger,
		Parametros:  config.Parametros(),
		DirDump:     config.DumpPath,
		Semilla:     config.Semilla,
	})
	if err != nil {
		utils.ErrorLog.Error("Error durante la inicialización del núcleo", "error", err)
		os.Exit(1)
	}

	if config.ArchivoTrabajos != "" {
		if _, err := cargarTrabajos(config.ArchivoTrabajos); err != nil {
			utils.ErrorLog.Error("Error cargando trabajos", "archivo", config.ArchivoTrabajos, "error", err)
			os.Exit(1)
		}
	}

	modulo := utils.NuevoModulo("Simulador", rutaConfig)
	registrarHandlers(modulo)
	modulo.IniciarServidor(config.IPSimulador, config.PuertoSimulador)

	ctx, cancelar := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelar()

	terminado := make(chan struct{})
	go func() {
		defer close(terminado)
		nucleo.Iniciar(ctx, config.Periodo())
	}()
	logger.Info("Simulador funcionando", "periodo", config.Periodo())

	select {
	case <-ctx.Done():
		logger.Info("Señal recibida. Finalizando simulador")
	case err := <-modulo.Errores():
		utils.ErrorLog.Error("El servidor HTTP se detuvo", "error", err)
		cancelar()
	}
	<-terminado

	ctxApagado, cancelarApagado := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelarApagado()
	if err := modulo.Detener(ctxApagado); err != nil {
		utils.ErrorLog.Error("Error deteniendo servidor HTTP", "error", err)
	}

	r := nucleo.Resumen()
	logger.Info("Simulador finalizado", "tick", nucleo.Ahora(), "finalizados", r.Finalizados,
		"retorno_promedio", r.RetornoPromedio, "fallos_pagina", r.FallosPagina,
		"aciertos_tlb", r.AciertosTLB, "fallos_tlb", r.FallosTLB)
}

type swapCerrable interface {
	disco.Dispositivo
	io.Closer
}

type swapEnMemoria struct {
	*disco.SwapMemoria
}

func (swapEnMemoria) Close() error { return nil }

// abrirSwap usa el archivo configurado o, si no hay, un swap en memoria
func abrirSwap() (swapCerrable, error) {
	if config.SwapfilePath == "" {
		utils.InfoLog.Info("Sin SWAPFILE_PATH, se usa swap en memoria")
		return swapEnMemoria{disco.NuevoSwapMemoria()}, nil
	}
	return disco.NuevoArchivoSwap(config.SwapfilePath, config.RetardoSwap)
}
