package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LeerConfiguracion decodifica el archivo en un T. Los archivos .yaml y .yml se leen como YAML,
// cualquier otro como JSON.
func LeerConfiguracion[T any](ruta string) (*T, error) {
	absPath, err := filepath.Abs(ruta)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo ruta absoluta de %s: %w", ruta, err)
	}

	contenido, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("error leyendo configuración: %w", err)
	}

	var config T
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(contenido, &config)
	default:
		err = json.Unmarshal(contenido, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("error decodificando configuración %s: %w", absPath, err)
	}
	return &config, nil
}

// CargarConfiguracion es LeerConfiguracion para el arranque de un binario: ante cualquier
// error lo registra y termina el proceso.
func CargarConfiguracion[T any](ruta string) *T {
	slog.Info("Cargando configuración", "ruta", ruta)

	config, err := LeerConfiguracion[T](ruta)
	if err != nil {
		slog.Error("Error cargando configuración", "error", err)
		os.Exit(1)
	}

	slog.Info("Configuración cargada correctamente")
	return config
}
