package proceso

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
)

// TamInstruccion es lo que ocupa una instrucción codificada en la página de código
const TamInstruccion = 8

// MaxInstrucciones es la cantidad de instrucciones que entran en la página de código
const MaxInstrucciones = memoria.TamPagina / TamInstruccion

type TipoOperacion int

const (
	OpSyscall TipoOperacion = iota
	OpCompute
	OpLoad
	OpStore
	OpSwitch
	OpJump
	OpApply
	OpRelease
)

var nombresOperacion = [...]string{"SYSCALL", "COMPUTE", "LOAD", "STORE", "SWITCH", "JUMP", "APPLY", "RELEASE"}

func (t TipoOperacion) String() string {
	if t < 0 || int(t) >= len(nombresOperacion) {
		return fmt.Sprintf("OP(%d)", int(t))
	}
	return nombresOperacion[t]
}

// Argumentos de OpSyscall
const (
	SyscallCrear   = 0
	SyscallEntrada = 1
	SyscallSalida  = 2
	SyscallCerrar  = 3
)

// Instruccion es una instrucción del proceso. Extra viaja por fuera de la página de código:
// la ruta del archivo para crear y cerrar, "k ruta" para entrada y salida.
type Instruccion struct {
	ID        int           `json:"id"`
	Tipo      TipoOperacion `json:"tipo"`
	Argumento int           `json:"argumento"`
	Extra     string        `json:"extra,omitempty"`
}

// Escribir codifica la instrucción en los primeros 8 bytes de destino
func (i Instruccion) Escribir(destino []byte) {
	binary.LittleEndian.PutUint16(destino[0:2], uint16(int16(i.ID)))
	binary.LittleEndian.PutUint16(destino[2:4], uint16(int16(i.Tipo)))
	binary.LittleEndian.PutUint16(destino[4:6], uint16(int16(i.Argumento)))
	destino[6], destino[7] = 0, 0
}

// DecodificarInstruccion lee una instrucción codificada. Extra queda vacío.
func DecodificarInstruccion(origen []byte) (Instruccion, error) {
	if len(origen) < TamInstruccion {
		return Instruccion{}, fmt.Errorf("%w: %d bytes", ErrInstruccionInvalida, len(origen))
	}
	i := Instruccion{
		ID:        int(int16(binary.LittleEndian.Uint16(origen[0:2]))),
		Tipo:      TipoOperacion(int16(binary.LittleEndian.Uint16(origen[2:4]))),
		Argumento: int(int16(binary.LittleEndian.Uint16(origen[4:6]))),
	}
	if i.Tipo < OpSyscall || i.Tipo > OpRelease {
		return i, fmt.Errorf("%w: tipo %d", ErrInstruccionInvalida, int(i.Tipo))
	}
	return i, nil
}

// ParametrosES separa el extra "k ruta" de una entrada o salida en la página de datos k y la ruta
func ParametrosES(extra string) (int, string, error) {
	campos := strings.Fields(extra)
	if len(campos) != 2 {
		return 0, "", fmt.Errorf("%w: %q", ErrExtraInvalido, extra)
	}
	pagina, err := strconv.Atoi(campos[0])
	if err != nil || pagina < 0 {
		return 0, "", fmt.Errorf("%w: página %q", ErrExtraInvalido, campos[0])
	}
	return pagina, campos[1], nil
}

// Validar controla que la instrucción no salga del proceso: direcciones dentro de sus páginas,
// saltos dentro de su código y tipos de recurso existentes. Saltar a cantInstrucciones+1
// termina el proceso.
func (i Instruccion) Validar(cantInstrucciones, cantPaginas, cantRecursos int) error {
	switch i.Tipo {
	case OpSyscall:
		switch i.Argumento {
		case SyscallCrear, SyscallCerrar:
			if strings.TrimSpace(i.Extra) == "" {
				return fmt.Errorf("%w: syscall %d sin ruta", ErrExtraInvalido, i.Argumento)
			}
		case SyscallEntrada, SyscallSalida:
			k, _, err := ParametrosES(i.Extra)
			if err != nil {
				return err
			}
			if InicioDatos+k >= cantPaginas {
				return fmt.Errorf("%w: página de datos %d fuera del proceso", ErrExtraInvalido, k)
			}
		default:
			return fmt.Errorf("%w: syscall %d", ErrInstruccionInvalida, i.Argumento)
		}
	case OpCompute, OpSwitch:
	case OpLoad, OpStore:
		if i.Argumento < 0 || i.Argumento/memoria.TamPagina >= cantPaginas {
			return fmt.Errorf("%w: dirección %d fuera del proceso", ErrInstruccionInvalida, i.Argumento)
		}
	case OpJump:
		if i.Argumento < 1 || i.Argumento > cantInstrucciones+1 {
			return fmt.Errorf("%w: salto a %d", ErrInstruccionInvalida, i.Argumento)
		}
	case OpApply, OpRelease:
		if i.Argumento < 0 || i.Argumento >= cantRecursos {
			return fmt.Errorf("%w: recurso %d", ErrInstruccionInvalida, i.Argumento)
		}
	default:
		return fmt.Errorf("%w: tipo %d", ErrInstruccionInvalida, int(i.Tipo))
	}
	return nil
}

// CodificarCodigo arma la página de código con las instrucciones en orden
func CodificarCodigo(instrucciones []Instruccion) ([]byte, error) {
	if len(instrucciones) > MaxInstrucciones {
		return nil, fmt.Errorf("%w: %d instrucciones no entran en una página", ErrInstruccionInvalida, len(instrucciones))
	}
	pagina := make([]byte, memoria.TamPagina)
	for n, i := range instrucciones {
		i.Escribir(pagina[n*TamInstruccion:])
	}
	return pagina, nil
}
