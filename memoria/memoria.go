package memoria

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// MemoriaFisica es el arreglo de bytes de la memoria principal junto con los bitmaps de
// ocupación de cada región. Es segura para uso concurrente.
type MemoriaFisica struct {
	mu      sync.Mutex
	datos   []byte
	tablas  *Bitmap
	pool    *Bitmap
	usuario *Bitmap
	buffers *Bitmap
}

// Ocupacion resume cuántas posiciones libres quedan en cada región
type Ocupacion struct {
	TablasLibres   int `json:"tablas_libres"`
	PoolLibre      int `json:"pool_libre"`
	MarcosLibres   int `json:"marcos_libres"`
	BuffersLibres  int `json:"buffers_libres"`
	MarcosTotales  int `json:"marcos_totales"`
	BuffersTotales int `json:"buffers_totales"`
}

// NuevaMemoriaFisica crea la memoria con todos sus bytes en ValorInicialByte
func NuevaMemoriaFisica() *MemoriaFisica {
	datos := make([]byte, TamMemoria)
	for i := range datos {
		datos[i] = ValorInicialByte
	}

	return &MemoriaFisica{
		datos:   datos,
		tablas:  NuevoBitmap(CantidadTablas),
		pool:    NuevoBitmap(PaginasPoolPCB),
		usuario: NuevoBitmap(PaginasUsuario),
		buffers: NuevoBitmap(PaginasBuffers),
	}
}

// AsignarTabla reserva una región de tabla de páginas y devuelve su dirección base
func (m *MemoriaFisica) AsignarTabla() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	indice, ok := m.tablas.Asignar()
	if !ok {
		return 0, ErrSinTablasLibres
	}
	return InicioTablas*TamPagina + indice*TamTabla, nil
}

// LiberarTabla devuelve la región de tabla que empieza en base
func (m *MemoriaFisica) LiberarTabla(base int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	indice := (base - InicioTablas*TamPagina) / TamTabla
	if !m.tablas.Liberar(indice) {
		return fmt.Errorf("%w: tabla con base %d no asignada", ErrDireccionInvalida, base)
	}
	return nil
}

// AsignarPool reserva un marco del pool de PCBs
func (m *MemoriaFisica) AsignarPool() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	indice, ok := m.pool.Asignar()
	if !ok {
		return 0, ErrPoolLleno
	}
	return InicioPoolPCB + indice, nil
}

// LiberarPool devuelve un marco del pool de PCBs
func (m *MemoriaFisica) LiberarPool(marco int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.pool.Liberar(marco - InicioPoolPCB) {
		return fmt.Errorf("%w: marco de pool %d", ErrMarcoInvalido, marco)
	}
	return nil
}

// AsignarMarco reserva un marco del área de usuario
func (m *MemoriaFisica) AsignarMarco() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	indice, ok := m.usuario.Asignar()
	if !ok {
		return 0, ErrSinMarcosLibres
	}
	return InicioUsuario + indice, nil
}

// LiberarMarco devuelve un marco del área de usuario
func (m *MemoriaFisica) LiberarMarco(marco int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.usuario.Liberar(marco - InicioUsuario) {
		return fmt.Errorf("%w: marco de usuario %d", ErrMarcoInvalido, marco)
	}
	return nil
}

// MarcosLibres cuenta los marcos libres del área de usuario
func (m *MemoriaFisica) MarcosLibres() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usuario.Libres()
}

// AsignarBuffer reserva un marco del área de buffers
func (m *MemoriaFisica) AsignarBuffer() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	indice, ok := m.buffers.Asignar()
	if !ok {
		return 0, ErrSinBuffers
	}
	return InicioBuffers + indice, nil
}

// LiberarBuffer devuelve un marco del área de buffers
func (m *MemoriaFisica) LiberarBuffer(marco int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.buffers.Liberar(marco - InicioBuffers) {
		return fmt.Errorf("%w: buffer %d", ErrMarcoInvalido, marco)
	}
	return nil
}

// Ocupacion devuelve el estado de las regiones
func (m *MemoriaFisica) Ocupacion() Ocupacion {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Ocupacion{
		TablasLibres:   m.tablas.Libres(),
		PoolLibre:      m.pool.Libres(),
		MarcosLibres:   m.usuario.Libres(),
		BuffersLibres:  m.buffers.Libres(),
		MarcosTotales:  m.usuario.Tamanio(),
		BuffersTotales: m.buffers.Tamanio(),
	}
}

// LeerEntrada lee la entrada de la página lógica indicada en la tabla que empieza en base
func (m *MemoriaFisica) LeerEntrada(base, pagina int) (EntradaTabla, error) {
	dir, err := direccionEntrada(base, pagina)
	if err != nil {
		return EntradaTabla{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return leerEntrada(m.datos[dir : dir+TamEntrada]), nil
}

// EscribirEntrada guarda la entrada en la posición de su página lógica
func (m *MemoriaFisica) EscribirEntrada(base int, e EntradaTabla) error {
	if err := e.Validar(); err != nil {
		return err
	}
	dir, err := direccionEntrada(base, e.PaginaLogica)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e.escribir(m.datos[dir : dir+TamEntrada])
	return nil
}

func direccionEntrada(base, pagina int) (int, error) {
	if pagina < 0 || pagina >= EntradasPorTabla {
		return 0, fmt.Errorf("%w: página %d fuera de la tabla", ErrDireccionInvalida, pagina)
	}
	if base < InicioTablas*TamPagina || base+TamTabla > (InicioTablas+PaginasTablas)*TamPagina || base%TamTabla != 0 {
		return 0, fmt.Errorf("%w: base de tabla %d", ErrDireccionInvalida, base)
	}
	return base + pagina*TamEntrada, nil
}

// LeerPagina devuelve una copia del contenido del marco
func (m *MemoriaFisica) LeerPagina(marco int) ([]byte, error) {
	if marco < 0 || marco >= NumPaginas {
		return nil, fmt.Errorf("%w: %d", ErrMarcoInvalido, marco)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pagina := make([]byte, TamPagina)
	copy(pagina, m.datos[marco*TamPagina:(marco+1)*TamPagina])
	return pagina, nil
}

// EscribirPagina copia datos al comienzo del marco. Si datos es más corto que una página,
// el resto del marco queda en cero.
func (m *MemoriaFisica) EscribirPagina(marco int, datos []byte) error {
	if marco < 0 || marco >= NumPaginas {
		return fmt.Errorf("%w: %d", ErrMarcoInvalido, marco)
	}
	if len(datos) > TamPagina {
		return fmt.Errorf("%w: %d bytes no entran en una página", ErrDireccionInvalida, len(datos))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	destino := m.datos[marco*TamPagina : (marco+1)*TamPagina]
	n := copy(destino, datos)
	clear(destino[n:])
	return nil
}

// LeerBytes copia n bytes desde la dirección física dir
func (m *MemoriaFisica) LeerBytes(dir, n int) ([]byte, error) {
	if dir < 0 || n < 0 || dir+n > TamMemoria {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrDireccionInvalida, dir, dir+n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	datos := make([]byte, n)
	copy(datos, m.datos[dir:dir+n])
	return datos, nil
}

// EscribirBytes copia datos a partir de la dirección física dir
func (m *MemoriaFisica) EscribirBytes(dir int, datos []byte) error {
	if dir < 0 || dir+len(datos) > TamMemoria {
		return fmt.Errorf("%w: [%d, %d)", ErrDireccionInvalida, dir, dir+len(datos))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.datos[dir:], datos)
	return nil
}

// LeerPalabra lee el entero de 16 bits little-endian guardado en dir
func (m *MemoriaFisica) LeerPalabra(dir int) (uint16, error) {
	datos, err := m.LeerBytes(dir, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(datos), nil
}

// EscribirPalabra guarda un entero de 16 bits little-endian en dir
func (m *MemoriaFisica) EscribirPalabra(dir int, valor uint16) error {
	var datos [2]byte
	binary.LittleEndian.PutUint16(datos[:], valor)
	return m.EscribirBytes(dir, datos[:])
}
