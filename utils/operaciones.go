package utils

import (
	"log/slog"
	"strconv"
	"time"
)

// AplicarRetardo aplica un retardo simulado y lo registra
func AplicarRetardo(operacion string, duracionMs int) {
	if duracionMs <= 0 {
		return
	}
	slog.Debug("Aplicando retardo", "operación", operacion, "duración_ms", duracionMs)
	time.Sleep(time.Duration(duracionMs) * time.Millisecond)
}

// ExtraerEntero obtiene un campo numérico de los datos del mensaje. Acepta números JSON y
// textos numéricos.
func ExtraerEntero(msg *Mensaje, clave string, valorPorDefecto int) int {
	datosMap, ok := msg.Datos.(map[string]interface{})
	if !ok {
		return valorPorDefecto
	}
	switch v := datosMap[clave].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return valorPorDefecto
}

// ExtraerTexto obtiene un campo de texto de los datos del mensaje
func ExtraerTexto(msg *Mensaje, clave string, valorPorDefecto string) string {
	if datosMap, ok := msg.Datos.(map[string]interface{}); ok {
		if texto, ok := datosMap[clave].(string); ok {
			return texto
		}
	}
	return valorPorDefecto
}
