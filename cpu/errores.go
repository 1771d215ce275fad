package cpu

import "errors"

var (
	ErrDireccionInvalida = errors.New("dirección fuera del proceso")
	ErrSinProceso        = errors.New("no hay proceso en ejecución")
	ErrSyscallInvalida   = errors.New("syscall desconocida")
)
