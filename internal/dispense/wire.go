package dispense

import "encoding/json"

const (
	messageTypeDispense = "dispense"
	messageTypeAck      = "dispense-ack"
	messageTypeError    = "error"
)

// commandFrame is the outbound dispense instruction. The relay's deployed
// firmware reads the all-lowercase "machineid" key; "machineId" and
// "machineCode" carry the same value for newer units.
type commandFrame struct {
	Type          string `json:"type"`
	LegacyMachine string `json:"machineid"`
	MachineID     string `json:"machineId"`
	MachineCode   string `json:"machineCode"`
	SlotNumber    int    `json:"slotNumber"`
}

// inboundFrame is the envelope for relay messages. Unknown types and
// malformed payloads are dropped without closing the session.
type inboundFrame struct {
	Type       string `json:"type"`
	SlotNumber int    `json:"slotNumber"`
	Error      string `json:"error"`
}

func encodeCommand(machineCode string, slotNumber int) ([]byte, error) {
	return json.Marshal(commandFrame{
		Type:          messageTypeDispense,
		LegacyMachine: machineCode,
		MachineID:     machineCode,
		MachineCode:   machineCode,
		SlotNumber:    slotNumber,
	})
}

func decodeInbound(payload []byte) (*inboundFrame, bool) {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return nil, false
	}
	switch frame.Type {
	case messageTypeAck, messageTypeError:
		return &frame, true
	default:
		return nil, false
	}
}
