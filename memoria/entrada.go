package memoria

import (
	"encoding/binary"
	"fmt"
)

// EntradaTabla representa una entrada de la tabla de páginas de un proceso.
//
// En memoria ocupa 4 bytes little-endian con el formato:
//
//	bits 31-25 página lógica | 24-19 marco | 18-4 bloque de swap | 3 presente | 2 modificada | 1-0 reservados
type EntradaTabla struct {
	PaginaLogica int
	Marco        int // MarcoAusente si la página no está cargada
	Bloque       int
	Presente     bool
	Modificada   bool
}

// Codificar empaqueta la entrada en su representación de 32 bits
func (e EntradaTabla) Codificar() uint32 {
	marco := e.Marco
	if marco < 0 {
		marco = MarcoAusente
	}

	v := uint32(e.PaginaLogica&0x7F) << 25
	v |= uint32(marco&0x3F) << 19
	v |= uint32(e.Bloque&0x7FFF) << 4
	if e.Presente {
		v |= 1 << 3
	}
	if e.Modificada {
		v |= 1 << 2
	}
	return v
}

// DecodificarEntrada reconstruye una entrada a partir de su valor empaquetado
func DecodificarEntrada(v uint32) EntradaTabla {
	return EntradaTabla{
		PaginaLogica: int((v >> 25) & 0x7F),
		Marco:        int((v >> 19) & 0x3F),
		Bloque:       int((v >> 4) & 0x7FFF),
		Presente:     v&(1<<3) != 0,
		Modificada:   v&(1<<2) != 0,
	}
}

// Validar controla que cada campo entre en su ancho y que la presencia sea coherente con el marco
func (e EntradaTabla) Validar() error {
	switch {
	case e.PaginaLogica < 0 || e.PaginaLogica > MaxPaginaLogica:
		return fmt.Errorf("%w: página lógica %d", ErrEntradaInvalida, e.PaginaLogica)
	case e.Bloque < 0 || e.Bloque > MaxBloque:
		return fmt.Errorf("%w: bloque %d", ErrEntradaInvalida, e.Bloque)
	case e.Presente && (e.Marco < 0 || e.Marco >= MarcoAusente):
		return fmt.Errorf("%w: página presente sin marco válido (%d)", ErrEntradaInvalida, e.Marco)
	case !e.Presente && e.Marco != MarcoAusente:
		return fmt.Errorf("%w: página ausente con marco %d", ErrEntradaInvalida, e.Marco)
	}
	return nil
}

func (e EntradaTabla) escribir(destino []byte) {
	binary.LittleEndian.PutUint32(destino, e.Codificar())
}

func leerEntrada(origen []byte) EntradaTabla {
	return DecodificarEntrada(binary.LittleEndian.Uint32(origen))
}

func (e EntradaTabla) String() string {
	marco := fmt.Sprint(e.Marco)
	if e.Marco == MarcoAusente {
		marco = "-"
	}
	return fmt.Sprintf("{pagina:%d marco:%s bloque:%d presente:%t modificada:%t}",
		e.PaginaLogica, marco, e.Bloque, e.Presente, e.Modificada)
}
