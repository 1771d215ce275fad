// Package archivos es el sistema de archivos que usan las syscalls de los procesos.
// Las transferencias van directo entre el archivo y la memoria física.
package archivos

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrArchivoInexistente = errors.New("el archivo no existe")
	ErrDescriptorInvalido = errors.New("descriptor de archivo inválido")
	ErrRutaInvalida       = errors.New("ruta de archivo inválida")
)

// SistemaArchivos es el colaborador de archivos del núcleo. Debe ser seguro para uso concurrente.
type SistemaArchivos interface {
	Crear(ruta string) (int, error)
	Abrir(ruta string) (int, error)
	Leer(fd int, dirFisica int, n int) (int, error)
	Escribir(fd int, dirFisica int, n int) (int, error)
	Cerrar(fd int) error
}

// MemoriaDatos es el acceso a memoria física que necesita el sistema de archivos
type MemoriaDatos interface {
	LeerBytes(dir, n int) ([]byte, error)
	EscribirBytes(dir int, datos []byte) error
}

type descriptor struct {
	ruta     string
	posicion int
}

// EnMemoria guarda los archivos en memoria del anfitrión
type EnMemoria struct {
	mu          sync.Mutex
	mem         MemoriaDatos
	archivos    map[string][]byte
	abiertos    map[int]*descriptor
	siguienteFD int
}

func NuevoEnMemoria(mem MemoriaDatos) *EnMemoria {
	return &EnMemoria{
		mem:         mem,
		archivos:    make(map[string][]byte),
		abiertos:    make(map[int]*descriptor),
		siguienteFD: 3,
	}
}

// Crear crea el archivo vacío (o lo vacía si ya existía) y lo deja abierto
func (fs *EnMemoria) Crear(ruta string) (int, error) {
	if ruta == "" {
		return -1, ErrRutaInvalida
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.archivos[ruta] = nil
	return fs.abrir(ruta), nil
}

// Abrir abre un archivo existente posicionado al principio
func (fs *EnMemoria) Abrir(ruta string) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.archivos[ruta]; !ok {
		return -1, fmt.Errorf("%w: %s", ErrArchivoInexistente, ruta)
	}
	return fs.abrir(ruta), nil
}

func (fs *EnMemoria) abrir(ruta string) int {
	fd := fs.siguienteFD
	fs.siguienteFD++
	fs.abiertos[fd] = &descriptor{ruta: ruta}
	return fd
}

// Leer copia hasta n bytes del archivo a memoria a partir de dirFisica y devuelve cuántos copió
func (fs *EnMemoria) Leer(fd int, dirFisica int, n int) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	d, ok := fs.abiertos[fd]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrDescriptorInvalido, fd)
	}

	contenido := fs.archivos[d.ruta]
	if d.posicion >= len(contenido) {
		return 0, nil
	}
	datos := contenido[d.posicion:]
	if len(datos) > n {
		datos = datos[:n]
	}
	if err := fs.mem.EscribirBytes(dirFisica, datos); err != nil {
		return 0, err
	}
	d.posicion += len(datos)
	return len(datos), nil
}

// Escribir copia n bytes de memoria desde dirFisica al archivo y devuelve cuántos copió
func (fs *EnMemoria) Escribir(fd int, dirFisica int, n int) (int, error) {
	datos, err := fs.mem.LeerBytes(dirFisica, n)
	if err != nil {
		return 0, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	d, ok := fs.abiertos[fd]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrDescriptorInvalido, fd)
	}

	contenido := fs.archivos[d.ruta]
	if fin := d.posicion + len(datos); fin > len(contenido) {
		contenido = append(contenido, make([]byte, fin-len(contenido))...)
	}
	copy(contenido[d.posicion:], datos)
	fs.archivos[d.ruta] = contenido
	d.posicion += len(datos)
	return len(datos), nil
}

func (fs *EnMemoria) Cerrar(fd int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.abiertos[fd]; !ok {
		return fmt.Errorf("%w: %d", ErrDescriptorInvalido, fd)
	}
	delete(fs.abiertos, fd)
	return nil
}

// Cargar deja un archivo con el contenido indicado, para preparar entradas
func (fs *EnMemoria) Cargar(ruta string, contenido []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.archivos[ruta] = append([]byte(nil), contenido...)
}

// Contenido devuelve una copia del archivo
func (fs *EnMemoria) Contenido(ruta string) ([]byte, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	contenido, ok := fs.archivos[ruta]
	return append([]byte(nil), contenido...), ok
}

// Archivos lista las rutas existentes en orden
func (fs *EnMemoria) Archivos() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	rutas := make([]string, 0, len(fs.archivos))
	for ruta := range fs.archivos {
		rutas = append(rutas, ruta)
	}
	sort.Strings(rutas)
	return rutas
}

// Abiertos devuelve cuántos descriptores siguen abiertos
func (fs *EnMemoria) Abiertos() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.abiertos)
}
