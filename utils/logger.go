package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	InfoLog  = slog.Default()
	ErrorLog = slog.Default()
)

// ParsearNivel traduce el nivel de log de la configuración. Un valor desconocido vale info.
func ParsearNivel(nivel string) slog.Level {
	switch strings.ToLower(nivel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InicializarLogger configura los loggers globales. Si archivo no es vacío, el log se escribe
// también en ese archivo.
func InicializarLogger(nivel string, modulo string, archivo string) (*slog.Logger, error) {
	var salida io.Writer = os.Stdout
	if archivo != "" {
		f, err := os.OpenFile(archivo, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("error al abrir archivo de log %s: %w", archivo, err)
		}
		salida = io.MultiWriter(os.Stdout, f)
	}

	logger := NuevoLogger(salida, nivel, modulo)
	InfoLog = logger
	ErrorLog = logger
	slog.SetDefault(logger)
	return logger, nil
}

// NuevoLogger arma un logger de texto sobre cualquier salida
func NuevoLogger(salida io.Writer, nivel string, modulo string) *slog.Logger {
	handler := slog.NewTextHandler(salida, &slog.HandlerOptions{
		Level: ParsearNivel(nivel),
	})
	return slog.New(handler).With("modulo", modulo)
}
