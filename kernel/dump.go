package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sisoputnfrba/simulador-nucleo/memoria"
)

// VolcarMemoria escribe en <pid>-<timestamp>.dmp las páginas residentes del proceso en orden
// de página lógica y devuelve la ruta del archivo
func (k *Kernel) VolcarMemoria(pid int) (string, error) {
	k.mu.Lock()
	pcb, ok := k.procesos[pid]
	if !ok {
		k.mu.Unlock()
		return "", fmt.Errorf("%w: %d", ErrProcesoInexistente, pid)
	}

	var contenido []byte
	for _, pagina := range k.paginasResidentes(pcb) {
		entrada, err := k.mem.LeerEntrada(pcb.BaseTabla, pagina)
		if err != nil {
			k.mu.Unlock()
			return "", err
		}
		datos, err := k.mem.LeerPagina(entrada.Marco)
		if err != nil {
			k.mu.Unlock()
			return "", err
		}
		contenido = append(contenido, datos...)
	}
	k.mu.Unlock()

	if err := os.MkdirAll(k.dirDump, 0755); err != nil {
		return "", fmt.Errorf("error al crear directorio para dumps: %w", err)
	}
	nombre := fmt.Sprintf("%d-%s.dmp", pid, time.Now().Format("20060102-150405"))
	ruta := filepath.Join(k.dirDump, nombre)
	if err := os.WriteFile(ruta, contenido, 0644); err != nil {
		return "", fmt.Errorf("error al escribir el dump: %w", err)
	}

	k.log.Info(fmt.Sprintf("## PID: %d Memory Dump solicitado", pid))
	k.log.Info("Memory dump completado", "pid", pid, "archivo", nombre, "paginas", len(contenido)/memoria.TamPagina)
	return ruta, nil
}
