package cpu

import (
	"fmt"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// TablaPaginas permite leer las entradas de las tablas guardadas en memoria física
type TablaPaginas interface {
	LeerEntrada(base, pagina int) (memoria.EntradaTabla, error)
}

// MMU traduce direcciones lógicas del proceso en ejecución consultando primero la TLB
type MMU struct {
	TLB   *TLB
	tabla TablaPaginas

	Aciertos int
	Fallos   int
}

func NuevaMMU(tabla TablaPaginas, capacidadTLB int) *MMU {
	return &MMU{TLB: NuevaTLB(capacidadTLB), tabla: tabla}
}

// Resolver devuelve la dirección física de dirLogica. presente es false cuando la página
// no está cargada en memoria y hay que atender un fallo.
func (m *MMU) Resolver(pcb *proceso.PCB, dirLogica int) (dirFisica int, presente bool, err error) {
	pagina := dirLogica >> memoria.BitsDesplazamiento
	desplazamiento := dirLogica & (memoria.TamPagina - 1)
	if dirLogica < 0 || pagina >= pcb.CantPaginas {
		return 0, false, fmt.Errorf("%w: pid %d dirección %d", ErrDireccionInvalida, pcb.PID, dirLogica)
	}

	if marco, ok := m.TLB.Buscar(pagina); ok {
		m.Aciertos++
		return marco*memoria.TamPagina + desplazamiento, true, nil
	}
	m.Fallos++

	pcb.Metricas.AccesosTablasPaginas++
	entrada, err := m.tabla.LeerEntrada(pcb.BaseTabla, pagina)
	if err != nil {
		return 0, false, err
	}
	if !entrada.Presente {
		return 0, false, nil
	}

	m.TLB.Actualizar(pagina, entrada.Marco)
	return entrada.Marco*memoria.TamPagina + desplazamiento, true, nil
}
