package dispense

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/config"
	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
	"github.com/aldousari/vendpoint-backend/pkg/metrics"
)

// Session states. At most one of these is active at a time.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateError        = "error"
)

// SessionStates lists every state, in the order metrics report them.
var SessionStates = []string{StateDisconnected, StateConnecting, StateConnected, StateError}

type slotStore interface {
	FindByNumber(ctx context.Context, machineID uuid.UUID, slotNumber int) (*models.Slot, error)
	Update(ctx context.Context, slot *models.Slot) (*models.Slot, error)
}

type machineFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error)
}

type pendingCommand struct {
	slotNumber int
	sentAt     time.Time
	timer      *time.Timer
}

// Service owns the single relay session and the commands flowing through it.
type Service struct {
	dialer   Dialer
	slots    slotStore
	machines machineFinder
	logg     *logger.Logger
	metrics  *metrics.DispenseMetrics
	cfg      config.RelayConfig

	mu        sync.Mutex
	state     string
	conn      Conn
	machine   *models.Machine
	inflight  *pendingCommand
	lastError string
	events    *eventLog
}

func NewService(dialer Dialer, slots slotStore, machines machineFinder, logg *logger.Logger, m *metrics.DispenseMetrics, cfg config.RelayConfig) *Service {
	s := &Service{
		dialer:   dialer,
		slots:    slots,
		machines: machines,
		logg:     logg,
		metrics:  m,
		cfg:      cfg,
		state:    StateDisconnected,
		events:   newEventLog(cfg.EventBuffer),
	}
	m.SetSessionState(StateDisconnected, SessionStates)
	return s
}

// Open connects to the relay on behalf of the given machine. Only one
// session exists at a time: opening again for the same machine is a
// state conflict, while opening for a different machine replaces the
// current session.
func (s *Service) Open(ctx context.Context, machineID uuid.UUID) (*StatusDTO, error) {
	s.mu.Lock()
	if s.state == StateConnecting {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a dispense session is already open")
	}
	if s.state == StateConnected && s.machine != nil && s.machine.ID == machineID {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a dispense session is already open")
	}
	s.mu.Unlock()

	machine, err := s.machines.FindByID(ctx, machineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up machine")
	}

	s.mu.Lock()
	if s.state == StateConnecting {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a dispense session is already open")
	}
	if s.state == StateConnected {
		if s.machine != nil && s.machine.ID == machineID {
			s.mu.Unlock()
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a dispense session is already open")
		}
		// Switching machines tears down the current session first.
		s.teardownLocked()
	}
	s.setStateLocked(StateConnecting)
	s.machine = machine
	s.lastError = ""
	s.mu.Unlock()

	conn, err := s.dialer.DialContext(ctx, s.cfg.URL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		// Close raced the dial and won.
		if conn != nil {
			conn.Close()
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session closed while connecting")
	}
	if err != nil {
		s.setStateLocked(StateError)
		s.lastError = err.Error()
		s.machine = nil
		s.events.Append(Event{Type: EventError, MachineCode: machine.Code, Detail: err.Error()})
		s.logg.Error(ctx, "relay connect failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "connecting to relay")
	}
	s.conn = conn
	s.setStateLocked(StateConnected)
	s.events.Append(Event{Type: EventConnected, MachineCode: machine.Code})
	s.logg.Info(s.logg.WithMachineID(ctx, machine.ID.String()), "relay session opened")
	go s.readLoop(conn, machine)
	return s.statusLocked(), nil
}

// Close tears down the active session.
func (s *Service) Close(ctx context.Context) (*StatusDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no dispense session is open")
	}
	s.teardownLocked()
	s.logg.Info(ctx, "relay session closed")
	return s.statusLocked(), nil
}

// teardownLocked drops the connection and returns the session to
// disconnected. Callers hold s.mu.
func (s *Service) teardownLocked() {
	machineCode := ""
	if s.machine != nil {
		machineCode = s.machine.Code
	}
	s.clearInflightLocked()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.machine = nil
	s.setStateLocked(StateDisconnected)
	s.events.Append(Event{Type: EventDisconnected, MachineCode: machineCode})
}

// Status reports the session state without touching the connection.
func (s *Service) Status(ctx context.Context) *StatusDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Events returns the retained session activity, oldest first.
func (s *Service) Events(ctx context.Context) []Event {
	return s.events.Snapshot()
}

// Dispense sends one vend command for a slot on the session's machine.
// The slot must hold stock, and only one command may be in flight.
func (s *Service) Dispense(ctx context.Context, slotNumber int) (*CommandDTO, error) {
	if slotNumber < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot number must be positive")
	}

	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no dispense session is open")
	}
	machine := s.machine
	s.mu.Unlock()

	slot, err := s.slots.FindByNumber(ctx, machine.ID, slotNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("slot %d not found", slotNumber))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up slot")
	}
	if slot.ProductID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("slot %d has no product assigned", slotNumber))
	}
	if slot.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("slot %d is empty", slotNumber))
	}

	payload, err := encodeCommand(machine.Code, slotNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding dispense command")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected || s.machine == nil || s.machine.ID != machine.ID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no dispense session is open")
	}
	if s.inflight != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("dispense for slot %d is still awaiting acknowledgement", s.inflight.slotNumber))
	}
	if s.cfg.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.failLocked(ctx, machine.Code, err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing to relay")
	}

	sentAt := time.Now().UTC()
	cmd := &pendingCommand{slotNumber: slotNumber, sentAt: sentAt}
	cmd.timer = time.AfterFunc(s.cfg.AckTimeout, func() { s.onAckTimeout(cmd) })
	s.inflight = cmd
	s.metrics.IncSent(machine.Code)
	s.events.Append(Event{Type: EventSent, MachineCode: machine.Code, SlotNumber: slotNumber, At: sentAt})
	s.logg.Info(s.logg.WithSlotNumber(s.logg.WithMachineID(ctx, machine.ID.String()), slotNumber), "dispense command sent")
	return &CommandDTO{MachineID: machine.ID, MachineCode: machine.Code, SlotNumber: slotNumber, SentAt: sentAt}, nil
}

func (s *Service) readLoop(conn Conn, machine *models.Machine) {
	ctx := s.logg.WithMachineID(context.Background(), machine.ID.String())
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			s.handleReadError(ctx, conn, machine, err)
			return
		}
		frame, ok := decodeInbound(payload)
		if !ok {
			s.metrics.IncDropped()
			s.logg.Debug(ctx, "dropped unrecognized relay message")
			continue
		}
		switch frame.Type {
		case messageTypeAck:
			s.handleAck(ctx, machine, frame.SlotNumber)
		case messageTypeError:
			s.handleRelayError(ctx, machine, frame.Error)
		}
	}
}

// handleAck resolves the in-flight command and decrements the slot's stock.
// Acks for slots nothing is waiting on are dropped.
func (s *Service) handleAck(ctx context.Context, machine *models.Machine, slotNumber int) {
	s.mu.Lock()
	cmd := s.inflight
	if cmd == nil || cmd.slotNumber != slotNumber {
		s.mu.Unlock()
		s.metrics.IncDropped()
		s.logg.Debug(ctx, "dropped unexpected acknowledgement")
		return
	}
	cmd.timer.Stop()
	s.inflight = nil
	s.events.Append(Event{Type: EventAcked, MachineCode: machine.Code, SlotNumber: slotNumber})
	s.mu.Unlock()

	s.metrics.IncAcked(machine.Code)
	s.metrics.ObserveAckLatency(machine.Code, time.Since(cmd.sentAt))
	s.logg.Info(s.logg.WithSlotNumber(ctx, slotNumber), "dispense acknowledged")

	slot, err := s.slots.FindByNumber(ctx, machine.ID, slotNumber)
	if err != nil {
		s.logg.Error(ctx, "loading slot after acknowledgement", err)
		return
	}
	if slot.Quantity <= 0 {
		return
	}
	slot.Quantity--
	if _, err := s.slots.Update(ctx, slot); err != nil {
		s.logg.Error(ctx, "recording dispensed stock", err)
	}
}

// handleRelayError clears the in-flight command. The socket stays up; a
// vend failure does not end the session.
func (s *Service) handleRelayError(ctx context.Context, machine *models.Machine, detail string) {
	if detail == "" {
		detail = "relay reported an error"
	}
	s.mu.Lock()
	slotNumber := 0
	if s.inflight != nil {
		slotNumber = s.inflight.slotNumber
		s.clearInflightLocked()
	}
	s.lastError = detail
	s.events.Append(Event{Type: EventError, MachineCode: machine.Code, SlotNumber: slotNumber, Detail: detail})
	s.mu.Unlock()

	s.metrics.IncErrored(machine.Code)
	s.logg.Warn(s.logg.WithField(ctx, "relay_error", detail), "relay reported dispense error")
}

func (s *Service) onAckTimeout(cmd *pendingCommand) {
	s.mu.Lock()
	if s.inflight != cmd {
		s.mu.Unlock()
		return
	}
	s.inflight = nil
	machineCode := ""
	if s.machine != nil {
		machineCode = s.machine.Code
	}
	s.lastError = fmt.Sprintf("no acknowledgement for slot %d within %s", cmd.slotNumber, s.cfg.AckTimeout)
	s.events.Append(Event{Type: EventTimeout, MachineCode: machineCode, SlotNumber: cmd.slotNumber, Detail: s.lastError})
	s.mu.Unlock()

	s.metrics.IncErrored(machineCode)
	s.logg.Warn(context.Background(), "dispense acknowledgement timed out")
}

func (s *Service) handleReadError(ctx context.Context, conn Conn, machine *models.Machine, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		// Close already swapped the session out; this is the old reader.
		return
	}
	s.clearInflightLocked()
	s.conn = nil
	s.machine = nil
	s.setStateLocked(StateError)
	s.lastError = err.Error()
	s.events.Append(Event{Type: EventDisconnected, MachineCode: machine.Code, Detail: err.Error()})
	s.logg.Error(ctx, "relay connection lost", err)
}

func (s *Service) failLocked(ctx context.Context, machineCode string, err error) {
	s.clearInflightLocked()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.machine = nil
	s.setStateLocked(StateError)
	s.lastError = err.Error()
	s.events.Append(Event{Type: EventError, MachineCode: machineCode, Detail: err.Error()})
	s.logg.Error(ctx, "relay write failed", err)
}

func (s *Service) clearInflightLocked() {
	if s.inflight != nil {
		s.inflight.timer.Stop()
		s.inflight = nil
	}
}

func (s *Service) setStateLocked(state string) {
	s.state = state
	s.metrics.SetSessionState(state, SessionStates)
}

func (s *Service) statusLocked() *StatusDTO {
	status := &StatusDTO{State: s.state, LastError: s.lastError}
	if s.machine != nil {
		id := s.machine.ID
		status.MachineID = &id
		status.MachineCode = s.machine.Code
	}
	if s.inflight != nil {
		slot := s.inflight.slotNumber
		status.InFlightSlot = &slot
	}
	return status
}
