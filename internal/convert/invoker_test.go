package convert

import (
	"bytes"
	"errors"
	"testing"
)

func TestCommandInvoker_Execute_Empty(t *testing.T) {
	invoker := NewCommandInvoker(nil)

	input := []byte{0x01, 0x02}
	out, err := invoker.Execute(input)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Errorf("Expected pass-through output, got %v", out)
	}
}

func TestCommandInvoker_Execute_Sequence(t *testing.T) {
	appendByte := func(b byte) *mockCommand {
		return &mockCommand{
			name: "append",
			executeFunc: func(data []byte) ([]byte, error) {
				return append(data, b), nil
			},
		}
	}

	invoker := NewCommandInvoker([]Command{appendByte(0x01), appendByte(0x02)})
	out, err := invoker.Execute([]byte{0x00})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := []byte{0x00, 0x01, 0x02}
	if !bytes.Equal(out, want) {
		t.Errorf("Expected %v, got %v", want, out)
	}
}

func TestCommandInvoker_Execute_Error(t *testing.T) {
	invoker := NewCommandInvoker([]Command{
		newMockCommand("ok"),
		newMockCommandWithError("failing", errors.New("boom")),
	})

	if _, err := invoker.Execute([]byte{0x00}); err == nil {
		t.Fatal("Expected error from failing command")
	}
}
