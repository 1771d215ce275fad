package memoria

// Distribución de la memoria física simulada, medida en páginas de TamPagina bytes.
const (
	TamPagina          = 512
	NumPaginas         = 64
	TamMemoria         = TamPagina * NumPaginas
	BitsDesplazamiento = 9
	ValorInicialByte   = 0xFF

	// Región de tablas de páginas: 16 tablas de 16 entradas de 4 bytes
	InicioTablas     = 0
	PaginasTablas    = 2
	TamEntrada       = 4
	EntradasPorTabla = 16
	TamTabla         = EntradasPorTabla * TamEntrada
	CantidadTablas   = PaginasTablas * TamPagina / TamTabla

	InicioPoolPCB  = 2
	PaginasPoolPCB = 14

	InicioUsuario  = 16
	PaginasUsuario = 32

	InicioBuffers  = 48
	PaginasBuffers = 16
)

// Límites de los campos de una entrada de tabla de páginas y del área de swap
const (
	InicioAreaSwap  = 20224
	BloquesAreaSwap = 256
	MaxBloque       = 1<<15 - 1
	MaxPaginaLogica = 1<<7 - 1
	MarcoAusente    = 1<<6 - 1
)
