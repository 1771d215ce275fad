// Package disco modela el dispositivo de bloques donde vive el área de swap y el gestor de
// buffers por el que pasa toda transferencia entre el dispositivo y la memoria.
package disco

import (
	"fmt"
	"os"
	"sync"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/utils"
)

// Dispositivo es un disco direccionado por bloques de memoria.TamPagina bytes
type Dispositivo interface {
	LeerBloque(bloque int, destino []byte) error
	EscribirBloque(bloque int, origen []byte) error
}

func desplazamiento(bloque int, n int) (int64, error) {
	if bloque < memoria.InicioAreaSwap || bloque >= memoria.InicioAreaSwap+memoria.BloquesAreaSwap {
		return 0, fmt.Errorf("%w: %d", ErrBloqueFueraDeRango, bloque)
	}
	if n != memoria.TamPagina {
		return 0, fmt.Errorf("%w: %d bytes", ErrTamanioBloque, n)
	}
	return int64(bloque-memoria.InicioAreaSwap) * memoria.TamPagina, nil
}

// ArchivoSwap guarda el área de swap en un archivo del sistema anfitrión
type ArchivoSwap struct {
	mu      sync.Mutex
	ruta    string
	archivo *os.File
	retardo int
}

// NuevoArchivoSwap abre (o crea) el archivo de swap con el tamaño de toda el área.
// retardoMs simula la latencia de cada acceso.
func NuevoArchivoSwap(ruta string, retardoMs int) (*ArchivoSwap, error) {
	archivo, err := os.OpenFile(ruta, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("error al abrir archivo SWAP: %w", err)
	}
	if err := archivo.Truncate(int64(memoria.BloquesAreaSwap) * memoria.TamPagina); err != nil {
		archivo.Close()
		return nil, fmt.Errorf("error al dimensionar archivo SWAP: %w", err)
	}

	utils.InfoLog.Info("Archivo SWAP listo", "archivo", ruta, "bloques", memoria.BloquesAreaSwap)
	return &ArchivoSwap{ruta: ruta, archivo: archivo, retardo: retardoMs}, nil
}

// LeerBloque copia el bloque en destino
func (a *ArchivoSwap) LeerBloque(bloque int, destino []byte) error {
	offset, err := desplazamiento(bloque, len(destino))
	if err != nil {
		return err
	}

	utils.AplicarRetardo("swap", a.retardo)

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.archivo.ReadAt(destino, offset); err != nil {
		utils.ErrorLog.Error("Error leyendo desde SWAP", "archivo", a.ruta, "bloque", bloque, "error", err)
		return fmt.Errorf("error al leer bloque %d de SWAP: %w", bloque, err)
	}
	return nil
}

// EscribirBloque guarda origen en el bloque
func (a *ArchivoSwap) EscribirBloque(bloque int, origen []byte) error {
	offset, err := desplazamiento(bloque, len(origen))
	if err != nil {
		return err
	}

	utils.AplicarRetardo("swap", a.retardo)

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.archivo.WriteAt(origen, offset); err != nil {
		utils.ErrorLog.Error("Error escribiendo en SWAP", "archivo", a.ruta, "bloque", bloque, "error", err)
		return fmt.Errorf("error al escribir bloque %d en SWAP: %w", bloque, err)
	}
	return nil
}

// Close cierra el archivo
func (a *ArchivoSwap) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.archivo.Close()
}

// SwapMemoria es un Dispositivo que vive en memoria, para pruebas y corridas sin archivo
type SwapMemoria struct {
	mu         sync.Mutex
	datos      []byte
	lecturas   int
	escrituras int
}

// NuevoSwapMemoria crea el área de swap en cero
func NuevoSwapMemoria() *SwapMemoria {
	return &SwapMemoria{datos: make([]byte, memoria.BloquesAreaSwap*memoria.TamPagina)}
}

func (s *SwapMemoria) LeerBloque(bloque int, destino []byte) error {
	offset, err := desplazamiento(bloque, len(destino))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copy(destino, s.datos[offset:])
	s.lecturas++
	return nil
}

func (s *SwapMemoria) EscribirBloque(bloque int, origen []byte) error {
	offset, err := desplazamiento(bloque, len(origen))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.datos[offset:], origen)
	s.escrituras++
	return nil
}

// Contadores devuelve la cantidad de lecturas y escrituras atendidas
func (s *SwapMemoria) Contadores() (lecturas, escrituras int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lecturas, s.escrituras
}
