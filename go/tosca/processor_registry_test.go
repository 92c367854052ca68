// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

import (
	"errors"
	"testing"

	gomock "go.uber.org/mock/gomock"
)

func TestProcessorRegistry_RegisteredFactoryIsFound(t *testing.T) {
	RegisterProcessorFactory("test1", func(any) (Processor, error) { return nil, nil })
	if GetProcessorFactory("test1") == nil {
		t.Errorf("registered factory not found")
	}
}

func TestProcessorRegistry_NamesAreCaseInsensitive(t *testing.T) {
	RegisterProcessorFactory("TeSt2", func(any) (Processor, error) { return nil, nil })
	if GetProcessorFactory("test2") == nil {
		t.Errorf("expected factory to be found using lower case name")
	}
}

func TestProcessorRegistry_ConfigIsForwardedToFactory(t *testing.T) {
	ctrl := gomock.NewController(t)
	processor := NewMockProcessor(ctrl)

	var received any
	RegisterProcessorFactory("test3", func(config any) (Processor, error) {
		received = config
		return processor, nil
	})

	got, err := NewProcessor("test3", "my-config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != processor {
		t.Errorf("unexpected processor returned")
	}
	if received != "my-config" {
		t.Errorf("unexpected configuration forwarded: %v", received)
	}
}

func TestProcessorRegistry_FactoryErrorsArePropagated(t *testing.T) {
	injected := errors.New("injected")
	RegisterProcessorFactory("test4", func(any) (Processor, error) { return nil, injected })
	if _, err := NewProcessor("test4"); !errors.Is(err, injected) {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestProcessorRegistry_UnknownProcessorIsReported(t *testing.T) {
	if _, err := NewProcessor("something odd"); err == nil {
		t.Errorf("expected error for unknown processor")
	}
}

func TestProcessorRegistry_TooManyConfigurationsAreRejected(t *testing.T) {
	if _, err := NewProcessor("test1", 1, 2); err == nil {
		t.Errorf("expected error for multiple configurations")
	}
}

func TestProcessorRegistry_FailToRegisterNilFactory(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic, got nil")
		}
	}()
	RegisterProcessorFactory("nil", nil)
}

func TestProcessorRegistry_FailToRegisterSameNameMultipleTimes(t *testing.T) {
	name := "test5"
	factory := func(any) (Processor, error) { return nil, nil }
	RegisterProcessorFactory(name, factory)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic, got nil")
		}
	}()
	RegisterProcessorFactory(name, factory)
}
