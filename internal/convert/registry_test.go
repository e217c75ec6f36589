package convert

import (
	"errors"
	"testing"
)

func passthroughFactory(name string) CommandFactory {
	return func(params map[string]any) (Command, error) {
		return newMockCommand(name), nil
	}
}

func TestNewCommandRegistry(t *testing.T) {
	registry := NewCommandRegistry()
	if registry == nil {
		t.Fatal("Expected non-nil registry")
	}
	if registry.factories == nil {
		t.Fatal("Expected non-nil factories map")
	}
}

func TestCommandRegistry_Register(t *testing.T) {
	registry := NewCommandRegistry()

	err := registry.Register("TestCommand", passthroughFactory("TestCommand"))
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	// Duplicate registration
	err = registry.Register("TestCommand", passthroughFactory("TestCommand"))
	if err == nil {
		t.Error("Expected error for duplicate registration")
	}

	// Empty name
	err = registry.Register("", passthroughFactory(""))
	if err == nil {
		t.Error("Expected error for empty name")
	}

	// Nil factory
	err = registry.Register("NilFactory", nil)
	if err == nil {
		t.Error("Expected error for nil factory")
	}
}

func TestCommandRegistry_Create(t *testing.T) {
	registry := NewCommandRegistry()
	if err := registry.Register("TestCommand", passthroughFactory("TestCommand")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	command, err := registry.Create("TestCommand", map[string]any{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if command.Name() != "TestCommand" {
		t.Errorf("Expected name 'TestCommand', got '%s'", command.Name())
	}

	if _, err = registry.Create("DoesNotExist", nil); err == nil {
		t.Error("Expected error for unknown command")
	}

	failing := func(params map[string]any) (Command, error) {
		return nil, errors.New("boom")
	}
	if err := registry.Register("Failing", failing); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err = registry.Create("Failing", nil); err == nil {
		t.Error("Expected error from failing factory")
	}
}

func TestCommandRegistry_IsRegistered(t *testing.T) {
	registry := NewCommandRegistry()
	if registry.IsRegistered("TestCommand") {
		t.Error("Expected TestCommand to be unregistered")
	}
	if err := registry.Register("TestCommand", passthroughFactory("TestCommand")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !registry.IsRegistered("TestCommand") {
		t.Error("Expected TestCommand to be registered")
	}
}

func TestDefaultRegistry_BuiltinCommands(t *testing.T) {
	for _, name := range []string{"PixelScaleCommand", "BasemapOverlayCommand"} {
		if !DefaultRegistry.IsRegistered(name) {
			t.Errorf("Expected %s to be registered in the default registry", name)
		}
	}
}

func TestBuildCommands(t *testing.T) {
	commands, err := BuildCommands([]CommandConfig{
		{Name: "PixelScaleCommand", Params: map[string]any{"width": 128}},
	})
	if err != nil {
		t.Fatalf("BuildCommands failed: %v", err)
	}
	if len(commands) != 1 {
		t.Fatalf("Expected 1 command, got %d", len(commands))
	}

	if _, err = BuildCommands([]CommandConfig{{Name: "Unknown"}}); err == nil {
		t.Error("Expected error for unknown command name")
	}
}
