package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/simulador-nucleo/kernel"
	"github.com/sisoputnfrba/simulador-nucleo/utils"
)

const uso = `Uso: %s <ip:puerto> <comando> [argumentos]

Comandos:
  estado [pid]            instantánea del núcleo o de un proceso
  volcado                 volcado de depuración
  traza [tipo]            últimos eventos
  trabajo <archivo.json>  somete un trabajo
  trabajo aleatorio [n]   genera n trabajos al azar
  trabajos <lista.csv>    carga una lista de trabajos del lado del simulador
  finalizar <pid>         cancela un proceso
  dump <pid>              memory dump de un proceso
  pausar | reanudar       controla el reloj
`

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, uso, os.Args[0])
		os.Exit(1)
	}
	if _, err := utils.InicializarLogger("WARN", "consola", ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ip, puerto, err := direccion(os.Args[1])
	if err != nil {
		utils.ErrorLog.Error("Dirección inválida", "direccion", os.Args[1], "error", err)
		os.Exit(1)
	}
	cliente := utils.NewHTTPClient(ip, puerto, "Consola")
	respuesta, err := ejecutar(cliente, os.Args[2], os.Args[3:])
	if err != nil {
		utils.ErrorLog.Error("Error en el comando", "comando", os.Args[2], "error", err)
		os.Exit(1)
	}

	salida, err := json.MarshalIndent(respuesta, "", "  ")
	if err != nil {
		utils.ErrorLog.Error("Error formateando respuesta", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(salida))
}

func ejecutar(c *utils.HTTPClient, comando string, args []string) (interface{}, error) {
	switch comando {
	case "estado":
		if len(args) == 0 {
			return c.EnviarHTTPMensaje(utils.MensajeEstado, "", nil)
		}
		pid, err := entero(args, 0)
		if err != nil {
			return nil, err
		}
		return c.EnviarHTTPMensaje(utils.MensajeEstado, "proceso", map[string]interface{}{"pid": pid})
	case "volcado":
		resp, err := c.EnviarHTTPMensaje(utils.MensajeVolcado, "", nil)
		if err != nil {
			return nil, err
		}
		if m, ok := resp.(map[string]interface{}); ok {
			fmt.Println(m["volcado"])
		}
		return resp, nil
	case "traza":
		datos := map[string]interface{}{}
		if len(args) > 0 {
			datos["tipo"] = strings.ToUpper(args[0])
		}
		return c.EnviarHTTPMensaje(utils.MensajeTraza, "", datos)
	case "trabajo":
		if len(args) == 0 {
			return nil, fmt.Errorf("falta el archivo del trabajo")
		}
		if args[0] == "aleatorio" {
			cantidad := 1
			if len(args) > 1 {
				n, err := entero(args, 1)
				if err != nil {
					return nil, err
				}
				cantidad = n
			}
			return c.EnviarHTTPMensaje(utils.MensajeTrabajo, "aleatorio", map[string]interface{}{"cantidad": cantidad})
		}
		t, err := leerTrabajo(args[0])
		if err != nil {
			return nil, err
		}
		return c.EnviarHTTPMensaje(utils.MensajeTrabajo, "", t)
	case "trabajos":
		if len(args) == 0 {
			return nil, fmt.Errorf("falta la lista de trabajos")
		}
		return c.EnviarHTTPMensaje(utils.MensajeTrabajo, "archivo", map[string]interface{}{"ruta": args[0]})
	case "finalizar", "dump":
		pid, err := entero(args, 0)
		if err != nil {
			return nil, err
		}
		tipo := utils.MensajeFinalizarProceso
		if comando == "dump" {
			tipo = utils.MensajeMemoryDump
		}
		return c.EnviarHTTPMensaje(tipo, "", map[string]interface{}{"pid": pid})
	case "pausar":
		return c.EnviarHTTPMensaje(utils.MensajePausar, "", nil)
	case "reanudar":
		return c.EnviarHTTPMensaje(utils.MensajeReanudar, "", nil)
	}
	return nil, fmt.Errorf("comando desconocido: %s", comando)
}

func direccion(s string) (string, int, error) {
	ip, p, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, err
	}
	puerto, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("puerto %q: %w", p, err)
	}
	return ip, puerto, nil
}

func entero(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("falta un argumento numérico")
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%q no es un número: %w", args[i], err)
	}
	return n, nil
}

// leerTrabajo valida el trabajo antes de mandarlo con los recursos por defecto
func leerTrabajo(ruta string) (*kernel.Trabajo, error) {
	t, err := utils.LeerConfiguracion[kernel.Trabajo](ruta)
	if err != nil {
		return nil, err
	}
	if t.CantInstrucciones == 0 {
		t.CantInstrucciones = len(t.Instrucciones)
	}
	if err := t.Validar(len(kernel.ParametrosPorDefecto().Recursos)); err != nil {
		return nil, err
	}
	return t, nil
}
