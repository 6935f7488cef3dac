package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	wsAdapter "github.com/seu-repo/voice-order-assistant/internal/adapter/websocket"
	"github.com/seu-repo/voice-order-assistant/internal/service/assistant"
)

// SimulatorConfig holds the simulator configuration
type SimulatorConfig struct {
	ServerURL    string
	UserID       string
	Token        string
	ReplyTimeout time.Duration
}

// Simulator plays a customer against the assistant's /ws/chat stream.
type Simulator struct {
	config *SimulatorConfig
	conn   *websocket.Conn
	log    *zap.Logger
	out    io.Writer

	replies chan wsAdapter.Message

	// gorilla allows one concurrent writer.
	writeMu sync.Mutex

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSimulator(config *SimulatorConfig, log *zap.Logger, out io.Writer) *Simulator {
	if config.ReplyTimeout <= 0 {
		config.ReplyTimeout = 90 * time.Second
	}
	return &Simulator{
		config:   config,
		log:      log,
		out:      out,
		replies:  make(chan wsAdapter.Message, 16),
		stopChan: make(chan struct{}),
	}
}

// Connect dials the chat stream and starts the reader.
func (s *Simulator) Connect() error {
	header := http.Header{}
	header.Set("X-User-ID", s.config.UserID)
	if s.config.Token != "" {
		header.Set("Authorization", "Bearer "+s.config.Token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(s.config.ServerURL, header)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	s.conn = conn
	s.log.Info("Connected to assistant",
		zap.String("url", s.config.ServerURL),
		zap.String("user_id", s.config.UserID),
	)

	s.wg.Add(1)
	go s.readMessages()

	return nil
}

func (s *Simulator) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.conn != nil {
			s.writeMu.Lock()
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			s.writeMu.Unlock()
			s.conn.Close()
		}
	})
	s.wg.Wait()
}

func (s *Simulator) readMessages() {
	defer s.wg.Done()
	defer close(s.replies)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopChan:
			default:
				s.log.Error("Read error", zap.Error(err))
			}
			return
		}

		var msg wsAdapter.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("Invalid message", zap.Error(err))
			continue
		}

		if msg.Type == wsAdapter.MessageOrderConfirmed {
			s.printOrderPush(msg)
			continue
		}
		s.replies <- msg
	}
}

func (s *Simulator) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *Simulator) await() (wsAdapter.Message, error) {
	select {
	case msg, ok := <-s.replies:
		if !ok {
			return wsAdapter.Message{}, errors.New("connection closed")
		}
		return msg, nil
	case <-time.After(s.config.ReplyTimeout):
		return wsAdapter.Message{}, errors.New("timed out waiting for the assistant")
	}
}

// Say sends one text turn and prints the exchange.
func (s *Simulator) Say(text string) error {
	data, _ := json.Marshal(wsAdapter.Message{Type: wsAdapter.MessageText, Text: text})
	if err := s.write(websocket.TextMessage, data); err != nil {
		return err
	}

	reply, err := s.await()
	if err != nil {
		return err
	}
	s.printReply(text, reply)
	return nil
}

// SayAudio sends the file at path as a voice turn.
func (s *Simulator) SayAudio(path string) error {
	audio, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := s.write(websocket.BinaryMessage, audio); err != nil {
		return err
	}

	reply, err := s.await()
	if err != nil {
		return err
	}
	label := "🎤 " + path
	if reply.Result != nil {
		label = reply.Result.UserText
	}
	s.printReply(label, reply)
	return nil
}

func (s *Simulator) Clear() error {
	data, _ := json.Marshal(wsAdapter.Message{Type: wsAdapter.MessageClear})
	if err := s.write(websocket.TextMessage, data); err != nil {
		return err
	}
	reply, err := s.await()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, reply.Status)
	return nil
}

func (s *Simulator) printReply(userText string, reply wsAdapter.Message) {
	switch reply.Type {
	case wsAdapter.MessageTurn:
		fmt.Fprint(s.out, assistant.FormatExchange(userText, reply.Result.CleanResponse))
		fmt.Fprintln(s.out, assistant.Status(reply.Result))
		fmt.Fprintln(s.out)
	case wsAdapter.MessageError:
		fmt.Fprintf(s.out, "❌ %s\n\n", reply.Error)
	default:
		fmt.Fprintf(s.out, "? %s\n\n", reply.Type)
	}
}

func (s *Simulator) printOrderPush(msg wsAdapter.Message) {
	if msg.Order == nil {
		return
	}
	s.log.Info("Order confirmed",
		zap.String("order_id", msg.Order.OrderID),
		zap.Int("eta_minutes", msg.Order.ETAMinutes),
	)
}

// RunScript sends each non-empty, non-comment line of r as a turn.
func (s *Simulator) RunScript(r io.Reader, pause time.Duration) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.dispatch(line); err != nil {
			return err
		}
		time.Sleep(pause)
	}
	return scanner.Err()
}

// RunInteractive reads turns from stdin until quit or EOF.
func (s *Simulator) RunInteractive(in io.Reader) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			return
		default:
			if err := s.dispatch(line); err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
			}
		}
		fmt.Fprint(s.out, "> ")
	}
}

func (s *Simulator) dispatch(line string) error {
	switch {
	case line == "/clear":
		return s.Clear()
	case strings.HasPrefix(line, "/voice "):
		return s.SayAudio(strings.TrimSpace(strings.TrimPrefix(line, "/voice ")))
	default:
		return s.Say(line)
	}
}
