package kernel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/simulador-nucleo/cpu"
	"github.com/sisoputnfrba/simulador-nucleo/memoria"
	"github.com/sisoputnfrba/simulador-nucleo/proceso"
)

// Trabajo es un pedido de ejecución todavía sin proceso
type Trabajo struct {
	ID                int                   `json:"id"`
	Prioridad         int                   `json:"prioridad"`
	Llegada           int                   `json:"llegada"`
	CantInstrucciones int                   `json:"cant_instrucciones"`
	Paginas           int                   `json:"paginas"`
	Instrucciones     []proceso.Instruccion `json:"instrucciones"`
}

// Límites de un trabajo
const (
	PrioridadMaxima = 1
	PrioridadMinima = 5
)

// Validar controla la prioridad, el tamaño y que cada instrucción quede dentro del proceso
func (t Trabajo) Validar(cantRecursos int) error {
	switch {
	case t.ID < 0:
		return fmt.Errorf("%w: id %d", ErrTrabajoInvalido, t.ID)
	case t.Prioridad < PrioridadMaxima || t.Prioridad > PrioridadMinima:
		return fmt.Errorf("%w: prioridad %d", ErrTrabajoInvalido, t.Prioridad)
	case len(t.Instrucciones) < 1 || len(t.Instrucciones) > proceso.MaxInstrucciones:
		return fmt.Errorf("%w: %d instrucciones", ErrTrabajoInvalido, len(t.Instrucciones))
	case t.CantInstrucciones != len(t.Instrucciones):
		return fmt.Errorf("%w: declara %d instrucciones y trae %d", ErrTrabajoInvalido, t.CantInstrucciones, len(t.Instrucciones))
	case t.Paginas < proceso.MinPaginas || t.Paginas > proceso.MaxPaginas:
		return fmt.Errorf("%w: %d páginas", ErrTrabajoInvalido, t.Paginas)
	case t.Llegada < 0:
		return fmt.Errorf("%w: llegada %d", ErrTrabajoInvalido, t.Llegada)
	}
	for n, i := range t.Instrucciones {
		if err := i.Validar(len(t.Instrucciones), t.Paginas, cantRecursos); err != nil {
			return fmt.Errorf("%w: instrucción %d: %w", ErrTrabajoInvalido, n+1, err)
		}
	}
	return nil
}

// SometerTrabajo encola un trabajo. Pasa a la reserva en el primer ciclo de ingreso en que
// su llegada ya ocurrió.
func (k *Kernel) SometerTrabajo(t Trabajo) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.someter(t, k.reloj.Ahora())
}

func (k *Kernel) someter(t Trabajo, ahora int) error {
	if t.CantInstrucciones == 0 {
		t.CantInstrucciones = len(t.Instrucciones)
	}
	if err := t.Validar(k.recursos.CantidadTipos()); err != nil {
		return err
	}
	if k.ids[t.ID] {
		return fmt.Errorf("%w: %d", ErrTrabajoDuplicado, t.ID)
	}
	k.ids[t.ID] = true

	pos := sort.Search(len(k.trabajos), func(i int) bool { return k.trabajos[i].Llegada > t.Llegada })
	k.trabajos = append(k.trabajos, Trabajo{})
	copy(k.trabajos[pos+1:], k.trabajos[pos:])
	k.trabajos[pos] = t

	k.log.Info("Trabajo sometido", "id", t.ID, "prioridad", t.Prioridad, "llegada", t.Llegada,
		"instrucciones", t.CantInstrucciones, "paginas", t.Paginas)
	k.registrar(ahora, EventoTrabajo, t.ID, "llegada %d", t.Llegada)
	return nil
}

// ingresarTrabajos pasa a la reserva los trabajos que ya llegaron, en orden de llegada
func (k *Kernel) ingresarTrabajos(ahora int) {
	for len(k.trabajos) > 0 && k.trabajos[0].Llegada <= ahora {
		t := k.trabajos[0]
		k.trabajos = k.trabajos[1:]
		k.reserva = append(k.reserva, t)
		k.log.Debug("Trabajo a reserva", "id", t.ID, "tick", ahora)
	}
}

// descartarTrabajo saca un trabajo que todavía no tiene proceso
func (k *Kernel) descartarTrabajo(id int) bool {
	for _, cola := range []*[]Trabajo{&k.trabajos, &k.reserva} {
		for i, t := range *cola {
			if t.ID == id {
				*cola = append((*cola)[:i], (*cola)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// SolicitarTrabajo dispara la interrupción de pedido de trabajo, que genera uno al azar
func (k *Kernel) SolicitarTrabajo() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.despachar(&cpu.Interrupcion{Vector: cpu.VectorSolicitudTrabajo}, nil, k.reloj.Ahora())
}

func (k *Kernel) generarTrabajo(ahora int) {
	id := 1
	for usado := range k.ids {
		if usado >= id {
			id = usado + 1
		}
	}
	llegada := ahora
	if llegada < 0 {
		llegada = 0
	}
	t := GenerarTrabajo(k.rng, id, llegada, k.recursos.CantidadTipos())
	if err := k.someter(t, ahora); err != nil {
		k.log.Error("Trabajo generado inválido", "id", id, "error", err)
	}
}

// GenerarTrabajo arma un trabajo al azar con entre 30 y 60 instrucciones y de 2 a 10
// páginas de datos. Los accesos van a direcciones pares de los datos. Cada archivo se crea
// antes de usarse y se cierra al final, y cada recurso pedido se libera más adelante.
func GenerarTrabajo(rng *rand.Rand, id, llegada, cantRecursos int) Trabajo {
	cant := rng.Intn(31) + 30
	paginasDatos := rng.Intn(9) + 2

	instrucciones := make([]proceso.Instruccion, cant)
	for i := range instrucciones {
		instr := proceso.Instruccion{ID: i + 1, Tipo: proceso.TipoOperacion(rng.Intn(5) + 1), Extra: "."}
		switch instr.Tipo {
		case proceso.OpLoad, proceso.OpStore:
			dir := rng.Intn(paginasDatos*memoria.TamPagina) &^ 1
			instr.Argumento = dir + proceso.InicioDatos*memoria.TamPagina
		case proceso.OpJump:
			instr.Argumento = instr.ID + 1
		}
		instrucciones[i] = instr
	}

	libres := rng.Perm(cant)
	tomar := func(n int) []int {
		elegidos := append([]int(nil), libres[:n]...)
		libres = libres[n:]
		sort.Ints(elegidos)
		return elegidos
	}

	crear := rng.Intn(3)
	entradas, salidas := 0, 0
	if crear > 0 {
		entradas, salidas = rng.Intn(3), rng.Intn(3)
	}
	indices := tomar(2*crear + entradas + salidas)
	var rutas []string
	for n, i := range indices {
		instr := &instrucciones[i]
		instr.Tipo = proceso.OpSyscall
		switch {
		case n < crear:
			instr.Argumento = proceso.SyscallCrear
			instr.Extra = fmt.Sprintf("/home/job_%d/file_%d", id, i+1)
			rutas = append(rutas, instr.Extra)
		case n < crear+entradas+salidas:
			instr.Argumento = proceso.SyscallEntrada
			if n >= crear+entradas {
				instr.Argumento = proceso.SyscallSalida
			}
			instr.Extra = fmt.Sprintf("%d %s", rng.Intn(paginasDatos), rutas[rng.Intn(len(rutas))])
		default:
			instr.Argumento = proceso.SyscallCerrar
			instr.Extra = rutas[n-crear-entradas-salidas]
		}
	}

	tipos := rng.Perm(cantRecursos)[:rng.Intn(cantRecursos+1)]
	indices = tomar(2 * len(tipos))
	sacar := func() int {
		n := rng.Intn(len(indices))
		i := indices[n]
		indices = append(indices[:n], indices[n+1:]...)
		return i
	}
	for _, tipo := range tipos {
		pedido, liberacion := sacar(), sacar()
		if pedido > liberacion {
			pedido, liberacion = liberacion, pedido
		}
		instrucciones[pedido] = proceso.Instruccion{ID: pedido + 1, Tipo: proceso.OpApply, Argumento: tipo, Extra: fmt.Sprintf("apply %d", tipo)}
		instrucciones[liberacion] = proceso.Instruccion{ID: liberacion + 1, Tipo: proceso.OpRelease, Argumento: tipo, Extra: fmt.Sprintf("release %d", tipo)}
	}

	return Trabajo{
		ID:                id,
		Prioridad:         rng.Intn(PrioridadMinima) + PrioridadMaxima,
		Llegada:           llegada,
		CantInstrucciones: cant,
		Paginas:           proceso.InicioDatos + paginasDatos,
		Instrucciones:     instrucciones,
	}
}

// CargarTrabajos lee la lista de trabajos y, para cada uno, su archivo de instrucciones
// <id>.txt en el mismo directorio
func CargarTrabajos(ruta string) ([]Trabajo, error) {
	trabajos, err := LeerTrabajos(ruta)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(ruta)
	for i := range trabajos {
		archivo := filepath.Join(dir, fmt.Sprintf("%d.txt", trabajos[i].ID))
		trabajos[i].Instrucciones, err = LeerInstrucciones(archivo, trabajos[i].CantInstrucciones)
		if err != nil {
			return nil, err
		}
	}
	return trabajos, nil
}

// LeerTrabajos lee la lista de trabajos: una línea de encabezado y después
// id,prioridad,llegada,instrucciones,paginas
func LeerTrabajos(ruta string) ([]Trabajo, error) {
	filas, err := leerCSV(ruta, 5)
	if err != nil {
		return nil, err
	}

	trabajos := make([]Trabajo, 0, len(filas))
	for n, fila := range filas {
		v, err := enteros(fila)
		if err != nil {
			return nil, fmt.Errorf("%s línea %d: %w", ruta, n+2, err)
		}
		trabajos = append(trabajos, Trabajo{
			ID:                v[0],
			Prioridad:         v[1],
			Llegada:           v[2],
			CantInstrucciones: v[3],
			Paginas:           v[4],
		})
	}
	return trabajos, nil
}

// LeerInstrucciones lee las primeras n instrucciones de un archivo con encabezado y líneas
// id,tipo,argumento,extra
func LeerInstrucciones(ruta string, n int) ([]proceso.Instruccion, error) {
	filas, err := leerCSV(ruta, 4)
	if err != nil {
		return nil, err
	}
	if len(filas) < n {
		return nil, fmt.Errorf("%w: %s tiene %d instrucciones y se esperaban %d", ErrTrabajoInvalido, ruta, len(filas), n)
	}

	instrucciones := make([]proceso.Instruccion, 0, n)
	for i, fila := range filas[:n] {
		v, err := enteros(fila[:3])
		if err != nil {
			return nil, fmt.Errorf("%s línea %d: %w", ruta, i+2, err)
		}
		instrucciones = append(instrucciones, proceso.Instruccion{
			ID:        v[0],
			Tipo:      proceso.TipoOperacion(v[1]),
			Argumento: v[2],
			Extra:     fila[3],
		})
	}
	return instrucciones, nil
}

func leerCSV(ruta string, campos int) ([][]string, error) {
	f, err := os.Open(ruta)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = campos
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s vacío", ErrTrabajoInvalido, ruta)
		}
		return nil, fmt.Errorf("leyendo %s: %w", ruta, err)
	}
	filas, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leyendo %s: %w", ruta, err)
	}
	return filas, nil
}

func enteros(campos []string) ([]int, error) {
	v := make([]int, len(campos))
	for i, c := range campos {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("%w: %q no es un número", ErrTrabajoInvalido, c)
		}
		v[i] = n
	}
	return v, nil
}
