package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OpKind identifies a replay record type.
type OpKind uint8

const (
	OpWrite OpKind = iota // write a byte to an I/O port
	OpRead                // read a byte from an I/O port
	OpWait                // advance a number of full clock cycles
	OpInfo                // annotation, logged only
)

// Op is one typed replay record. Scripted scenarios are a flat sequence
// of these, decoupled from any specific test content.
type Op struct {
	Kind   OpKind
	Port   uint8
	Value  uint8
	Cycles int
	Text   string
}

// ParseScript reads a replay script in the logged test-pattern CSV
// format:
//
//	IO,port,value     write value to port
//	READ,port         read from port (result is logged)
//	CYCLE,count       advance count full clock cycles
//	INFO,"text"       annotation
//
// Port and value accept decimal or 0x-prefixed hex. Blank lines and lines
// starting with # are skipped.
func ParseScript(r io.Reader) ([]Op, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var ops []Op
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse script: %w", err)
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}

		op, err := parseRecord(rec)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("parse script line %d: %w", line, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseRecord(rec []string) (Op, error) {
	switch strings.ToUpper(rec[0]) {
	case "IO":
		if len(rec) != 3 {
			return Op{}, fmt.Errorf("IO record needs port and value, got %d fields", len(rec)-1)
		}
		port, err := parseByte(rec[1])
		if err != nil {
			return Op{}, fmt.Errorf("port: %w", err)
		}
		value, err := parseByte(rec[2])
		if err != nil {
			return Op{}, fmt.Errorf("value: %w", err)
		}
		return Op{Kind: OpWrite, Port: port, Value: value}, nil
	case "READ":
		if len(rec) != 2 {
			return Op{}, fmt.Errorf("READ record needs a port, got %d fields", len(rec)-1)
		}
		port, err := parseByte(rec[1])
		if err != nil {
			return Op{}, fmt.Errorf("port: %w", err)
		}
		return Op{Kind: OpRead, Port: port}, nil
	case "CYCLE":
		if len(rec) != 2 {
			return Op{}, fmt.Errorf("CYCLE record needs a count, got %d fields", len(rec)-1)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(rec[1]), 0, 32)
		if err != nil || n < 0 {
			return Op{}, fmt.Errorf("invalid cycle count %q", rec[1])
		}
		return Op{Kind: OpWait, Cycles: int(n)}, nil
	case "INFO":
		text := ""
		if len(rec) > 1 {
			text = rec[1]
		}
		return Op{Kind: OpInfo, Text: text}, nil
	default:
		return Op{}, fmt.Errorf("unknown record type %q", rec[0])
	}
}

func parseByte(s string) (uint8, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return uint8(n), nil
}

// Replay executes a sequence of replay records against the harness.
// Read results and annotations go through the verbose diagnostic log.
func (h *Harness) Replay(ops []Op) {
	for _, op := range ops {
		switch op.Kind {
		case OpWrite:
			h.WritePort(op.Port, op.Value)
		case OpRead:
			val := h.ReadPort(op.Port)
			h.logf("replay: read port=0x%02X -> 0x%02X", op.Port, val)
		case OpWait:
			h.StepCycles(op.Cycles)
		case OpInfo:
			h.logf("replay: %s", op.Text)
		}
	}
}
