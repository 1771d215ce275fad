package disco

import "errors"

var (
	ErrBloqueFueraDeRango = errors.New("bloque fuera del área de swap")
	ErrTamanioBloque      = errors.New("tamaño de bloque inválido")
	ErrSwapLleno          = errors.New("no quedan bloques de swap libres")
	ErrBloqueLibre        = errors.New("el bloque no estaba asignado")
)
