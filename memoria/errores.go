package memoria

import "errors"

var (
	ErrSinMarcosLibres   = errors.New("no hay marcos libres en el área de usuario")
	ErrSinTablasLibres   = errors.New("no hay tablas de páginas libres")
	ErrPoolLleno         = errors.New("no hay lugar en el pool de PCBs")
	ErrSinBuffers        = errors.New("no hay buffers libres")
	ErrMarcoInvalido     = errors.New("marco fuera de rango")
	ErrDireccionInvalida = errors.New("dirección física fuera de rango")
	ErrEntradaInvalida   = errors.New("entrada de tabla de páginas inválida")
)
