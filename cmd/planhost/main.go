// Command planhost is an interactive host-side console for the motion
// planner: it streams G-code (from a file or a live serial connection) into
// a machine.Manager and exposes a REPL for feeding lines by hand and
// inspecting planner state, generalizing the teacher's
// host/cmd/gopper-host to this module's planner/gcode/machine stack in
// place of the Klipper wire protocol.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"

	"stepplan/config"
	"stepplan/core"
	"stepplan/host/serial"
	"stepplan/machine"
)

var (
	device     = flag.String("device", "", "Serial device path (e.g. /dev/ttyACM0); omit to run without a live machine")
	baud       = flag.Int("baud", 115200, "Baud rate for -device")
	configPath = flag.String("config", "", "Path to a JSON machine configuration; omit to use the built-in default")
	gcodeFile  = flag.String("file", "", "A .gcode file to load and run immediately on startup")
	verbose    = flag.Bool("verbose", false, "Enable verbose planner status after each command")
	debug      = flag.Bool("debug", false, "Enable async debug tracing (see the 'dump' console command)")
)

func main() {
	flag.Parse()

	if *debug {
		core.SetDebugWriter(func(s string) { fmt.Println(s) })
		core.SetDebugEnabled(true)
		core.InitAsyncDebug()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	mgr, err := machine.NewManagerWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start machine: %v\n", err)
		os.Exit(1)
	}
	defer mgr.Close()

	var port serial.Port
	if *device != "" {
		port, err = serial.Open(&serial.Config{Device: *device, Baud: *baud, ReadTimeout: 100})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open %s: %v\n", *device, err)
			os.Exit(1)
		}
		defer port.Close()
		fmt.Printf("Connected to %s\n", *device)
	}

	fmt.Println("Motion Planner Host")
	fmt.Println("====================")

	if *gcodeFile != "" {
		if err := runFile(mgr, *gcodeFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to run %s: %v\n", *gcodeFile, err)
			os.Exit(1)
		}
	}

	fmt.Println("Enter G-code or a console command (type 'help' for a list, 'quit' to exit):")
	repl(mgr, port)
}

func loadConfig(path string) (*config.MachineConfig, error) {
	if path == "" {
		return config.DefaultCartesianConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return config.LoadConfig(data)
}

func runFile(mgr *machine.Manager, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := mgr.ProcessLine(line); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	mgr.Synchronize()
	return nil
}

func repl(mgr *machine.Manager, port serial.Port) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if handled := dispatchConsoleCommand(mgr, line); handled {
			continue
		}

		if err := mgr.ProcessLine(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if port != nil {
			fmt.Fprintf(port, "%s\n", line)
		}
		if *verbose {
			printStatus(mgr)
		} else {
			fmt.Println("ok")
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// dispatchConsoleCommand recognizes the REPL's own commands (as opposed to
// G-code passed through to the machine) and reports whether line was one of
// them. Arguments are tokenized with shlex so a quoted file path with
// spaces works the same way a shell would treat it.
func dispatchConsoleCommand(mgr *machine.Manager, line string) bool {
	fields, err := shlex.Split(line)
	if err != nil || len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		fmt.Println("Goodbye!")
		os.Exit(0)
	case "help", "?":
		printHelp()
	case "status":
		printStatus(mgr)
	case "queue":
		printQueue(mgr)
	case "load":
		if len(fields) < 2 {
			fmt.Println("usage: load <path>")
			return true
		}
		if err := runFile(mgr, fields[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	case "accel":
		handleAccelCommand(mgr, fields)
	case "dump":
		if len(fields) >= 2 && strings.ToLower(fields[1]) == "clear" {
			core.ClearTimingRing()
			fmt.Println("timing ring cleared")
		} else {
			core.DumpTimingRing()
		}
	case "timers":
		handleTimersCommand(fields)
	default:
		return false
	}
	return true
}

// handleTimersCommand reports or resets the count of "timer in past" events
// core.TimerDispatch has recorded, the same post-mortem counter a real ISR
// loop uses to notice the simulated stepper falling behind its schedule.
func handleTimersCommand(fields []string) {
	if len(fields) < 2 {
		fmt.Printf("timer_past_errors=%d\n", core.GetTimerPastErrors())
		return
	}
	switch strings.ToLower(fields[1]) {
	case "reset":
		core.ResetTimerPastErrors()
		fmt.Println("timer_past_errors reset to 0")
	default:
		fmt.Println("usage: timers [reset]")
	}
}

func handleAccelCommand(mgr *machine.Manager, fields []string) {
	if len(fields) < 2 {
		fmt.Printf("acceleration management: %s\n", onOff(mgr.AccelerationManagementEnabled()))
		return
	}
	switch strings.ToLower(fields[1]) {
	case "on":
		mgr.EnableAccelerationManagement()
	case "off":
		mgr.DisableAccelerationManagement()
	default:
		fmt.Println("usage: accel [on|off]")
	}
}

func printHelp() {
	fmt.Println()
	fmt.Println("Console commands:")
	fmt.Println("  help             - Show this help message")
	fmt.Println("  status           - Print machine position and planner mode")
	fmt.Println("  queue            - Print the planner's currently queued blocks")
	fmt.Println("  load <path>      - Run a .gcode file and wait for it to drain")
	fmt.Println("  accel [on|off]   - Show, enable, or disable look-ahead acceleration management")
	fmt.Println("  dump [clear]     - Print (or clear) the post-mortem timing ring buffer")
	fmt.Println("  timers [reset]   - Show (or reset) the timer-in-past error count")
	fmt.Println("  quit/exit/q      - Exit the program")
	fmt.Println()
	fmt.Println("Anything else is sent to the machine as a line of G-code.")
	fmt.Println()
}

func printStatus(mgr *machine.Manager) {
	state := mgr.State()
	pos := mgr.CurrentPosition()
	fmt.Printf("pos=(%.3f, %.3f, %.3f) feed=%.1f accel_mgmt=%s queue_depth=%d\n",
		pos.X, pos.Y, pos.Z, state.FeedRate,
		onOff(mgr.AccelerationManagementEnabled()), mgr.QueueDepth())
}

func printQueue(mgr *machine.Manager) {
	snap := mgr.Snapshot()
	if len(snap) == 0 {
		fmt.Println("queue empty")
		return
	}
	for i, b := range snap {
		fmt.Printf("  [%d] entry_factor=%.4f steps=%d accel_until=%d decel_after=%d nominal_speed=%.1f\n",
			i, b.EntryFactor, b.StepEventCount, b.AccelerateUntil, b.DecelerateAfter, b.NominalSpeed)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
