package proceso

import "errors"

var (
	ErrInstruccionInvalida = errors.New("instrucción inválida")
	ErrExtraInvalido       = errors.New("parámetro de instrucción inválido")
)
