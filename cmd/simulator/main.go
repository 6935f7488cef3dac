package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// defaultScript walks one order from greeting to confirmation.
const defaultScript = `
مرحبا
بدي اطلب
اسمي سامي
برغر وبطاطا
لا، هيك تمام
نعم أكد الطلب
`

var (
	serverURL   = flag.String("server", "ws://localhost:8080/ws/chat", "Assistant chat WebSocket URL")
	userID      = flag.String("user", "simulator", "User ID sent as X-User-ID")
	token       = flag.String("token", "", "Bearer token")
	scriptPath  = flag.String("script", "", "File with one customer line per row (default: built-in order)")
	pause       = flag.Duration("pause", time.Second, "Pause between scripted lines")
	timeout     = flag.Duration("timeout", 90*time.Second, "Maximum wait for each reply")
	interactive = flag.Bool("interactive", false, "Enable interactive mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	simulator := NewSimulator(&SimulatorConfig{
		ServerURL:    *serverURL,
		UserID:       *userID,
		Token:        *token,
		ReplyTimeout: *timeout,
	}, logger, os.Stdout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		simulator.Stop()
		os.Exit(0)
	}()

	if err := simulator.Connect(); err != nil {
		logger.Fatal("Failed to connect to assistant", zap.Error(err))
	}
	defer simulator.Stop()

	if *interactive {
		runInteractiveMode(simulator)
		return
	}

	var script io.Reader = strings.NewReader(defaultScript)
	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			logger.Fatal("Failed to open script", zap.Error(err))
		}
		defer f.Close()
		script = f
	}

	if err := simulator.RunScript(script, *pause); err != nil {
		logger.Fatal("Script failed", zap.Error(err))
	}
}

const interactiveHelp = `
Voice Order Assistant - customer simulator
  <text>          say something to the assistant
  /voice <file>   send an audio file as a voice turn
  /clear          clear the conversation
  /quit           exit

`

func runInteractiveMode(sim *Simulator) {
	fmt.Print(interactiveHelp)

	sim.RunInteractive(os.Stdin)
}
