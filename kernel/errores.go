package kernel

import "errors"

var (
	ErrProcesoInexistente = errors.New("proceso inexistente")
	ErrProcesoEnEjecucion = errors.New("el proceso está en ejecución")
	ErrProcesoEnServicio  = errors.New("el proceso tiene una operación de E/S o un fallo en curso")
	ErrTrabajoInvalido    = errors.New("trabajo inválido")
	ErrTrabajoDuplicado   = errors.New("ya existe un trabajo con ese id")
	ErrRecursoInvalido    = errors.New("tipo de recurso inválido")
	ErrRecursoNoAsignado  = errors.New("el proceso no tiene asignado el recurso")
	ErrSinSolicitud       = errors.New("el proceso no tiene una solicitud pendiente del recurso")
	ErrParametroInvalido  = errors.New("parámetro del núcleo inválido")
)
