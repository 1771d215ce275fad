package cpu

import "sort"

// EntradaTLB asocia una página lógica del proceso en ejecución con su marco
type EntradaTLB struct {
	Pagina    int `json:"pagina"`
	Marco     int `json:"marco"`
	ultimoUso int64
}

// TLB es la caché de traducciones del proceso en ejecución. Reemplaza por LRU.
type TLB struct {
	entradas []EntradaTLB
	contador int64
}

// NuevaTLB crea una TLB vacía con la capacidad indicada
func NuevaTLB(capacidad int) *TLB {
	if capacidad <= 0 {
		capacidad = 1
	}
	t := &TLB{entradas: make([]EntradaTLB, capacidad)}
	t.Limpiar()
	return t
}

// Buscar devuelve el marco de la página y refresca su uso
func (t *TLB) Buscar(pagina int) (int, bool) {
	for i, entrada := range t.entradas {
		if entrada.Pagina == pagina {
			t.contador++
			t.entradas[i].ultimoUso = t.contador
			return entrada.Marco, true
		}
	}
	return -1, false
}

// Actualizar carga la traducción. Si la página ya estaba se pisa su marco; si la TLB está
// llena se reemplaza la entrada usada hace más tiempo.
func (t *TLB) Actualizar(pagina, marco int) {
	t.contador++

	indice := -1
	for i, entrada := range t.entradas {
		if entrada.Pagina == pagina {
			indice = i
			break
		}
		if entrada.Pagina == -1 && indice == -1 {
			indice = i
		}
	}

	if indice == -1 {
		indice = 0
		for i, entrada := range t.entradas {
			if entrada.ultimoUso < t.entradas[indice].ultimoUso {
				indice = i
			}
		}
	}

	t.entradas[indice] = EntradaTLB{Pagina: pagina, Marco: marco, ultimoUso: t.contador}
}

// Quitar invalida la traducción de la página si estaba cargada
func (t *TLB) Quitar(pagina int) {
	for i, entrada := range t.entradas {
		if entrada.Pagina == pagina {
			t.entradas[i] = EntradaTLB{Pagina: -1, Marco: -1}
			return
		}
	}
}

// Limpiar vacía la TLB
func (t *TLB) Limpiar() {
	for i := range t.entradas {
		t.entradas[i] = EntradaTLB{Pagina: -1, Marco: -1}
	}
}

func (t *TLB) Capacidad() int {
	return len(t.entradas)
}

// Entradas devuelve las traducciones cargadas de la menos a la más recientemente usada
func (t *TLB) Entradas() []EntradaTLB {
	var cargadas []EntradaTLB
	for _, entrada := range t.entradas {
		if entrada.Pagina != -1 {
			cargadas = append(cargadas, entrada)
		}
	}
	sort.Slice(cargadas, func(i, j int) bool {
		return cargadas[i].ultimoUso < cargadas[j].ultimoUso
	})
	return cargadas
}
